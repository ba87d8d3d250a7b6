package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
	"ticket-checkout/internal/services"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoading:
		return header + "\n\n" + m.spinner.View() + " Loading..."
	case stateSelectEvent:
		return header + "\n\n" + m.eventList.View()
	case stateTickets:
		return header + "\n\n" + m.ticketsView()
	case stateDetails:
		return header + "\n\n" + m.detailsView()
	case statePayment:
		return header + "\n\n" + m.paymentView()
	case stateCharging:
		return header + "\n\n" + m.spinner.View() + " Processing payment..."
	case stateConfirmed:
		return header + "\n\n" + m.confirmationView()
	case stateError:
		return header + "\n\n" + errorStyle.Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := titleStyle.Render("Checkout")
	if m.selection != nil && m.state != stateSelectEvent {
		title += "  " + m.selection.Catalog().Event.Name
	}

	steps := []struct {
		label string
		on    bool
	}{
		{"Tickets", m.state == stateTickets},
		{"Details", m.state == stateDetails},
		{"Payment", m.state == statePayment || m.state == stateCharging},
		{"Done", m.state == stateConfirmed},
	}
	parts := make([]string, len(steps))
	for i, s := range steps {
		if s.on {
			parts[i] = activeStyle.Render(s.label)
		} else {
			parts[i] = hint(s.label)
		}
	}
	return title + "\n" + strings.Join(parts, hint(" › "))
}

func (m appModel) ticketsView() string {
	catalog := m.selection.Catalog()
	currency := catalog.Event.CurrencyCode()

	var b strings.Builder
	for i, item := range catalog.Items() {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		label := item.Name
		if item.Kind == models.KindAddOn {
			label += " (add-on)"
		}
		if item.Required {
			label += " *"
		}

		qty := fmt.Sprintf("%2d", m.selection.Quantity(item.ID))
		if item.IsSoldOut() {
			qty = errorStyle.Render("sold out")
		}

		fmt.Fprintf(&b, "%s%-32s %14s  [%s]\n", cursor, label, priceLabel(item.UnitPrice, currency), qty)
	}

	b.WriteString("\nPromo code: ")
	b.WriteString(m.promo.View())
	b.WriteString("\n\n")
	b.WriteString(pricingView(m.selection.Pricing(), currency))
	b.WriteString(m.noticeView())
	b.WriteString("\n")
	b.WriteString(hint("↑/↓ move • +/- quantity • p promo • x remove promo • enter continue • esc events"))
	return b.String()
}

func (m appModel) detailsView() string {
	var b strings.Builder
	b.WriteString(m.formView())

	box := "[ ]"
	if m.sms {
		box = "[x]"
	}
	fmt.Fprintf(&b, "\n%s SMS delivery (+%s)\n", box, pricing.SMSSurcharge.String())

	b.WriteString(m.noticeView())
	b.WriteString("\n")
	b.WriteString(hint("tab next field • ctrl+t toggle SMS • enter continue • esc tickets"))
	return b.String()
}

func (m appModel) paymentView() string {
	var b strings.Builder
	if m.summary != nil {
		b.WriteString(boxStyle.Render(pricingView(m.summary.Pricing, m.summary.Currency)))
		b.WriteString("\n\n")
	}
	b.WriteString(m.formView())
	b.WriteString(m.noticeView())
	b.WriteString("\n")
	b.WriteString(hint(fmt.Sprintf("tab next field • enter pay • esc details • card %s declines", services.DeclineTestCard)))
	return b.String()
}

func (m appModel) formView() string {
	var b strings.Builder
	inputs := m.activeInputs()
	for i, f := range m.activeFields() {
		label := fmt.Sprintf("%-14s", f.label)
		if i == m.focus {
			label = activeStyle.Render(label)
		}
		b.WriteString(label + " " + inputs[i].View() + "\n")
		for _, msg := range m.fieldErrors[f.key] {
			b.WriteString(strings.Repeat(" ", 15) + errorStyle.Render(msg) + "\n")
		}
	}
	return b.String()
}

func (m appModel) confirmationView() string {
	conf := m.confirmation
	if conf == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(successStyle.Render(conf.Headline))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Order %s for %s\n", conf.Order.OrderNumber, conf.Order.Customer.FullName())
	if conf.Order.Customer.DeliveryMethod == models.DeliverySMS {
		fmt.Fprintf(&b, "Tickets will be texted to %s\n", conf.Order.Customer.Phone)
	} else {
		fmt.Fprintf(&b, "Tickets are in your mobile wallet for %s\n", conf.Order.Customer.Email)
	}
	b.WriteString("\n")
	b.WriteString(m.invoices.RenderText(conf.Invoice))
	b.WriteString("\n\n")
	b.WriteString(hint("n new checkout • q quit"))
	return b.String()
}

func (m appModel) noticeView() string {
	if m.notice == "" {
		return ""
	}
	return "\n" + noticeStyle.Render(m.notice) + "\n"
}

func pricingView(p models.PricingResult, currency string) string {
	if p.IsFree {
		return titleStyle.Render("Total: Free") + "\n"
	}

	var b strings.Builder
	row := func(label, amount string) {
		fmt.Fprintf(&b, "%-18s %14s\n", label, amount)
	}
	row("Subtotal", p.Subtotal.Format(currency))
	row("Marketplace fee", p.MarketplaceFee.Format(currency))
	if p.PromoDiscount > 0 {
		row("Promo "+pricing.PromoCode, "-"+p.PromoDiscount.Format(currency))
	}
	if p.DeliverySurcharge > 0 {
		row("SMS delivery", p.DeliverySurcharge.Format(currency))
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-18s %14s", "Total", p.Total.Format(currency))))
	b.WriteString("\n")
	return b.String()
}

func priceLabel(price models.Money, currency string) string {
	if price == 0 {
		return "Free"
	}
	return price.Format(currency)
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}
