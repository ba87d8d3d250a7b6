package services

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ticket-checkout/internal/models"
)

//go:embed templates/*.html
var invoiceTemplates embed.FS

// InvoiceLine is one billed row
type InvoiceLine struct {
	Description string       `json:"description"`
	Quantity    int          `json:"quantity"`
	UnitPrice   models.Money `json:"unitPrice"`
	Amount      models.Money `json:"amount"`
}

// Invoice is the display-only document shown after checkout
type Invoice struct {
	InvoiceNumber  string              `json:"invoiceNumber"`
	OrderNumber    string              `json:"orderNumber"`
	Date           time.Time           `json:"date"`
	Currency       string              `json:"currency"`
	Event          models.Event        `json:"event"`
	BillTo         models.CustomerInfo `json:"billTo"`
	Lines          []InvoiceLine       `json:"lines"`
	Subtotal       models.Money        `json:"subtotal"`
	MarketplaceFee models.Money        `json:"marketplaceFee"`
	PromoDiscount  models.Money        `json:"promoDiscount"`
	DeliveryFee    models.Money        `json:"deliveryFee"`
	Total          models.Money        `json:"total"`
	PaymentMethod  string              `json:"paymentMethod"`
}

// InvoiceRenderer builds invoices from orders and renders them as HTML or text
type InvoiceRenderer struct {
	tmpl *template.Template
}

// NewInvoiceRenderer parses the embedded invoice template
func NewInvoiceRenderer() (*InvoiceRenderer, error) {
	tmpl, err := template.New("invoice.html").Funcs(template.FuncMap{
		"money": func(m models.Money, currency string) string { return m.Format(currency) },
		"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
	}).ParseFS(invoiceTemplates, "templates/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	return &InvoiceRenderer{tmpl: tmpl}, nil
}

// Build derives the invoice for an order. Amounts come from the frozen order
// totals and are never recomputed.
func (r *InvoiceRenderer) Build(order *models.Order) *Invoice {
	inv := &Invoice{
		InvoiceNumber:  order.InvoiceNumber(),
		OrderNumber:    order.OrderNumber,
		Date:           order.PurchaseDate,
		Currency:       order.Event.CurrencyCode(),
		Event:          order.Event,
		BillTo:         order.Customer,
		Subtotal:       order.Subtotal,
		MarketplaceFee: order.MarketplaceFee,
		PromoDiscount:  order.PromoDiscount,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.FinalTotal,
		PaymentMethod:  "No payment required",
	}

	for _, line := range order.Lines() {
		inv.Lines = append(inv.Lines, InvoiceLine{
			Description: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount(),
		})
	}

	if order.Payment != nil {
		inv.PaymentMethod = "Card ending in " + order.Payment.CardLast4
	}

	return inv
}

// RenderHTML writes the invoice page
func (r *InvoiceRenderer) RenderHTML(w io.Writer, inv *Invoice) error {
	if err := r.tmpl.Execute(w, inv); err != nil {
		return fmt.Errorf("failed to render invoice: %w", err)
	}
	return nil
}

// RenderText returns the invoice as a plain-text table
func (r *InvoiceRenderer) RenderText(inv *Invoice) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Invoice %s  |  Order %s  |  %s", inv.InvoiceNumber, inv.OrderNumber, inv.Date.Format("2006-01-02")))
	t.AppendHeader(table.Row{"Item", "Qty", "Unit", "Amount"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 40},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	for _, line := range inv.Lines {
		t.AppendRow(table.Row{line.Description, line.Quantity, line.UnitPrice.String(), line.Amount.String()})
	}

	t.AppendSeparator()
	t.AppendRow(table.Row{"Subtotal", "", "", inv.Subtotal.String()})
	if inv.MarketplaceFee > 0 {
		t.AppendRow(table.Row{"Marketplace fee", "", "", inv.MarketplaceFee.String()})
	}
	if inv.PromoDiscount > 0 {
		t.AppendRow(table.Row{"Promo discount", "", "", "-" + inv.PromoDiscount.String()})
	}
	if inv.DeliveryFee > 0 {
		t.AppendRow(table.Row{"SMS delivery", "", "", inv.DeliveryFee.String()})
	}
	t.AppendFooter(table.Row{"Total", "", "", inv.Total.Format(inv.Currency)})
	t.SetCaption(fmt.Sprintf("Bill to: %s <%s>  |  %s", inv.BillTo.FullName(), inv.BillTo.Email, inv.PaymentMethod))
	t.SetStyle(table.StyleLight)

	return t.Render()
}
