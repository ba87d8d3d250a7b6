package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ticket-checkout/internal/models"
)

func newOrdersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect archived orders",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.app()
			if err != nil {
				return err
			}
			defer app.Close()

			orders, err := app.Archive.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders found")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Order", "Date", "Customer", "Event", "Tickets", "Settled", "Total"})
			for _, o := range orders {
				t.AppendRow(table.Row{
					o.OrderNumber,
					o.PurchaseDate.Format("2006-01-02 15:04"),
					o.Customer.FullName(),
					o.Event.Name,
					ticketCount(o),
					o.GetKindDisplayName(),
					o.FinalTotal.Format(o.Event.CurrencyCode()),
				})
			}
			t.Render()
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum orders to show")
	list.Flags().IntVar(&offset, "offset", 0, "orders to skip")

	var asJSON bool
	show := &cobra.Command{
		Use:   "show ORDER_NUMBER",
		Short: "Print an order's invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.IsValidOrderNumber(args[0]) {
				return fmt.Errorf("%q is not an order number", args[0])
			}

			app, err := c.app()
			if err != nil {
				return err
			}
			defer app.Close()

			order, err := app.Archive.GetByOrderNumber(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			inv := app.Invoices.Build(order)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(inv)
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.Invoices.RenderText(inv))
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the invoice as JSON")

	cmd.AddCommand(list, show)
	return cmd
}

func ticketCount(o *models.Order) int {
	n := 0
	for _, line := range o.Tickets {
		n += line.Quantity
	}
	return n
}
