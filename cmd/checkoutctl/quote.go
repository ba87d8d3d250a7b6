package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
)

func newQuoteCmd(c *cli) *cobra.Command {
	var (
		req checkout.QuoteRequest
		sms bool
	)

	cmd := &cobra.Command{
		Use:   "quote EVENT_ID",
		Short: "Price a ticket selection",
		Example: `  checkoutctl quote jazz-night --qty ga=2,parking=1 --promo JAZZ10
  checkoutctl quote jazz-night --qty ga=2 --sms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app()
			if err != nil {
				return err
			}
			defer app.Close()

			req.EventID = args[0]
			if sms {
				req.DeliveryMethod = models.DeliverySMS
			}

			sel, err := app.Checkout.Quote(cmd.Context(), req)
			switch {
			case errors.Is(err, pricing.ErrInvalidPromoCode):
				fmt.Fprintf(cmd.ErrOrStderr(), "Invalid promo code %q, priced without it\n", req.PromoCode)
			case err != nil:
				return err
			}

			currency := sel.Catalog().Event.CurrencyCode()
			p := sel.Pricing()

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle(sel.Catalog().Event.Name)
			t.AppendHeader(table.Row{"Item", "Qty", "Unit", "Amount"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, Align: text.AlignRight},
				{Number: 3, Align: text.AlignRight},
				{Number: 4, Align: text.AlignRight},
			})
			for _, line := range sel.Lines() {
				t.AppendRow(table.Row{line.Name, line.Quantity, line.UnitPrice.String(), line.Amount().String()})
			}
			t.AppendSeparator()
			t.AppendRow(table.Row{"Subtotal", "", "", p.Subtotal.String()})
			t.AppendRow(table.Row{"Marketplace fee", "", "", p.MarketplaceFee.String()})
			if p.PromoDiscount > 0 {
				t.AppendRow(table.Row{"Promo " + pricing.PromoCode, "", "", "-" + p.PromoDiscount.String()})
			}
			if p.DeliverySurcharge > 0 {
				t.AppendRow(table.Row{"SMS delivery", "", "", p.DeliverySurcharge.String()})
			}
			total := p.Total.Format(currency)
			if p.IsFree {
				total = "Free"
			}
			t.AppendFooter(table.Row{"Total", "", "", total})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringToIntVar(&req.Quantities, "qty", nil, "quantities by item id, e.g. ga=2,parking=1")
	cmd.Flags().StringVar(&req.PromoCode, "promo", "", "promo code")
	cmd.Flags().BoolVar(&sms, "sms", false, "deliver tickets by SMS")
	return cmd
}
