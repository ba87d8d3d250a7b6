package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ticket-checkout/internal/models"
	"ticket-checkout/internal/services"
)

type formField struct {
	key         string
	label       string
	placeholder string
	limit       int
	secret      bool
}

const (
	fieldFirstName = iota
	fieldLastName
	fieldEmail
	fieldPhone
)

var detailFields = []formField{
	{key: "firstName", label: "First name", limit: 50},
	{key: "lastName", label: "Last name", limit: 50},
	{key: "email", label: "Email", placeholder: "you@example.com", limit: 255},
	{key: "phone", label: "Phone", placeholder: "required for SMS delivery", limit: 20},
}

const (
	fieldCardHolder = iota
	fieldCardNumber
	fieldExpiry
	fieldCVC
)

var cardFields = []formField{
	{key: "cardHolder", label: "Name on card", limit: 60},
	{key: "cardNumber", label: "Card number", placeholder: "4242 4242 4242 4242", limit: 23},
	{key: "expiry", label: "Expiry", placeholder: "MM/YY", limit: 7},
	{key: "cvc", label: "CVC", placeholder: "123", limit: 4, secret: true},
}

func newInputs(fields []formField) []textinput.Model {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		if f.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		inputs[i] = ti
	}
	return inputs
}

func (m *appModel) activeInputs() []textinput.Model {
	switch m.state {
	case stateDetails:
		return m.details
	case statePayment, stateCharging:
		return m.card
	}
	return nil
}

func (m *appModel) activeFields() []formField {
	if m.state == stateDetails {
		return detailFields
	}
	return cardFields
}

// focusField focuses input idx, wrapping around, and blurs the rest
func (m *appModel) focusField(idx int) tea.Cmd {
	inputs := m.activeInputs()
	if len(inputs) == 0 {
		return nil
	}

	idx = (idx + len(inputs)) % len(inputs)
	m.focus = idx

	var cmd tea.Cmd
	for i := range inputs {
		if i == idx {
			cmd = inputs[i].Focus()
			continue
		}
		inputs[i].Blur()
	}
	return cmd
}

func (m *appModel) prefillDetails(c *models.CustomerInfo) {
	if c == nil {
		return
	}
	m.details[fieldFirstName].SetValue(c.FirstName)
	m.details[fieldLastName].SetValue(c.LastName)
	m.details[fieldEmail].SetValue(c.Email)
	m.details[fieldPhone].SetValue(c.Phone)
	m.sms = c.DeliveryMethod == models.DeliverySMS
}

func (m appModel) customerInfo() models.CustomerInfo {
	delivery := models.DeliveryMobile
	if m.sms {
		delivery = models.DeliverySMS
	}
	return models.CustomerInfo{
		FirstName:      m.details[fieldFirstName].Value(),
		LastName:       m.details[fieldLastName].Value(),
		Email:          m.details[fieldEmail].Value(),
		Phone:          m.details[fieldPhone].Value(),
		DeliveryMethod: delivery,
	}
}

func (m appModel) cardDetails() services.CardDetails {
	return services.CardDetails{
		Holder: m.card[fieldCardHolder].Value(),
		Number: m.card[fieldCardNumber].Value(),
		Expiry: m.card[fieldExpiry].Value(),
		CVC:    m.card[fieldCVC].Value(),
	}
}

type eventItem struct {
	event models.Event
}

func (i eventItem) Title() string { return i.event.Name }

func (i eventItem) Description() string {
	desc := i.event.StartsAt.Local().Format("Mon Jan 2, 15:04")
	if i.event.Venue != "" {
		desc += " • " + i.event.Venue
	}
	return desc
}

func (i eventItem) FilterValue() string { return i.event.Name }

func buildEventItems(events []models.Event) []list.Item {
	items := make([]list.Item, 0, len(events))
	for _, e := range events {
		items = append(items, eventItem{event: e})
	}
	return items
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.SetFilteringEnabled(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}
