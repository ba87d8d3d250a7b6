package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ticket-checkout/internal/checkout"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/pricing"
	"ticket-checkout/internal/services"
	"ticket-checkout/internal/session"
)

type appState int

const (
	stateLoading appState = iota
	stateSelectEvent
	stateTickets
	stateDetails
	statePayment
	stateCharging
	stateConfirmed
	stateError
)

// EventLister lists the events a checkout can start from
type EventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type appModel struct {
	checkout *checkout.Service
	events   EventLister
	invoices *services.InvoiceRenderer
	store    session.Store

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	eventList list.Model

	selection *checkout.Selection
	cursor    int
	promo     textinput.Model

	details     []textinput.Model
	sms         bool
	card        []textinput.Model
	focus       int
	fieldErrors models.ValidationErrors

	summary      *checkout.PaymentSummary
	confirmation *checkout.Confirmation

	spinner spinner.Model
}

type errMsg struct {
	err error
}

type eventsMsg struct {
	events []models.Event
	err    error
}

type selectionMsg struct {
	selection *checkout.Selection
	err       error
}

type selectedMsg struct {
	err error
}

type stepMsg struct {
	step checkout.Step
	snap checkout.Snapshot
	err  error
}

type detailsMsg struct {
	step checkout.Step
	err  error
}

type summaryMsg struct {
	summary *checkout.PaymentSummary
	err     error
}

type paidMsg struct {
	err error
}

type confirmationMsg struct {
	confirmation *checkout.Confirmation
	err          error
}

// New creates the terminal checkout. The store holds one checkout at a time.
func New(svc *checkout.Service, events EventLister, invoices *services.InvoiceRenderer, store session.Store) tea.Model {
	m := appModel{
		checkout: svc,
		events:   events,
		invoices: invoices,
		store:    store,
		state:    stateLoading,
	}

	m.eventList = newList("Select Event")

	m.promo = textinput.New()
	m.promo.Placeholder = pricing.PromoCode
	m.promo.CharLimit = 20
	m.promo.Prompt = ""

	m.details = newInputs(detailFields)
	m.card = newInputs(cardFields)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

// Run starts the program on the alternate screen and blocks until it exits
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchEventsCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventList.SetSize(msg.Width, max(msg.Height-4, 6))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != stateLoading && m.state != stateCharging {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case errMsg:
		return m.fail(msg.err)

	case eventsMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.eventList.SetItems(buildEventItems(msg.events))
		m.state = stateSelectEvent
		return m, nil

	case selectionMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.selection = msg.selection
		m.cursor = 0
		m.notice = ""
		m.promo.Reset()
		m.promo.Blur()
		if m.selection.PromoApplied() {
			m.promo.SetValue(pricing.PromoCode)
		}
		m.state = stateTickets
		return m, nil

	case selectedMsg:
		switch {
		case msg.err == nil:
			m.notice = ""
			return m, m.enterCmd(checkout.Detailing)
		case errors.Is(msg.err, checkout.ErrEmptySelection),
			errors.Is(msg.err, checkout.ErrRequiredAddOn),
			errors.Is(msg.err, models.ErrOrderTotalExceeded),
			errors.Is(msg.err, pricing.ErrInvalidPromoCode):
			m.notice = msg.err.Error()
			return m, nil
		}
		return m.fail(msg.err)

	case stepMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		return m.showStep(msg.step, msg.snap)

	case detailsMsg:
		var verrs models.ValidationErrors
		switch {
		case errors.As(msg.err, &verrs):
			m.fieldErrors = verrs
			m.notice = "Please fix the highlighted fields."
			return m, nil
		case msg.err != nil:
			return m.fail(msg.err)
		}
		m.fieldErrors = nil
		return m, m.enterCmd(msg.step)

	case summaryMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.summary = msg.summary
		m.state = statePayment
		m.fieldErrors = nil
		return m, m.focusField(0)

	case paidMsg:
		var verrs models.ValidationErrors
		switch {
		case msg.err == nil:
			m.notice = ""
			m.fieldErrors = nil
			m.state = stateLoading
			return m, m.enterCmd(checkout.Confirmed)
		case errors.As(msg.err, &verrs):
			m.state = statePayment
			m.fieldErrors = verrs
			m.notice = "Please fix the highlighted fields."
			return m, nil
		case errors.Is(msg.err, services.ErrPaymentDeclined):
			m.state = statePayment
			m.notice = "Your card was declined. Please try another card."
			return m, nil
		case errors.Is(msg.err, context.DeadlineExceeded):
			m.state = statePayment
			m.notice = "Payment timed out. Please try again."
			return m, nil
		case errors.Is(msg.err, models.ErrInsufficientStock),
			errors.Is(msg.err, models.ErrOrderTotalExceeded):
			m.state = statePayment
			m.notice = "This order can no longer be placed; your card was not charged. Press esc to change it."
			return m, nil
		}
		return m.fail(msg.err)

	case confirmationMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.confirmation = msg.confirmation
		m.state = stateConfirmed
		return m, nil
	}

	return m.updateActive(msg)
}

// showStep moves the screen to whatever step the wizard resolved
func (m appModel) showStep(step checkout.Step, snap checkout.Snapshot) (tea.Model, tea.Cmd) {
	m.notice = ""
	m.fieldErrors = nil

	switch step {
	case checkout.Detailing:
		m.prefillDetails(snap.Customer)
		m.state = stateDetails
		return m, m.focusField(0)
	case checkout.Paying:
		m.state = stateLoading
		return m, tea.Batch(m.fetchSummaryCmd(), m.spinner.Tick)
	case checkout.Confirmed:
		m.state = stateLoading
		return m, tea.Batch(m.fetchConfirmationCmd(), m.spinner.Tick)
	}

	if snap.Selection != nil && snap.Selection.Event.ID != "" {
		m.state = stateLoading
		return m, tea.Batch(m.loadSelectionCmd(snap.Selection.Event.ID), m.spinner.Tick)
	}
	m.state = stateSelectEvent
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateSelectEvent:
		if m.eventList.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			item, ok := m.eventList.SelectedItem().(eventItem)
			if !ok {
				return m, nil
			}
			m.state = stateLoading
			return m, tea.Batch(m.loadSelectionCmd(item.event.ID), m.spinner.Tick)
		}

	case stateTickets:
		return m.handleTicketKey(msg)

	case stateDetails, statePayment:
		return m.handleFormKey(msg)

	case stateConfirmed:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "n", "enter":
			m.confirmation = nil
			m.selection = nil
			m.state = stateLoading
			return m, tea.Batch(m.restartCmd(), m.spinner.Tick)
		}
		return m, nil

	case stateError:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc", "enter":
			m.err = nil
			m.state = m.lastState
		}
		return m, nil

	case stateLoading, stateCharging:
		return m, nil
	}

	return m.updateActive(msg)
}

func (m appModel) handleTicketKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.promo.Focused() {
		switch msg.String() {
		case "esc":
			m.promo.Blur()
			return m, nil
		case "enter":
			m.promo.Blur()
			m.applyPromo()
			return m, nil
		}
		var cmd tea.Cmd
		m.promo, cmd = m.promo.Update(msg)
		return m, cmd
	}

	items := m.selection.Catalog().Items()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.notice = ""
		m.state = stateSelectEvent
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "+", "=", "right", "l":
		if len(items) > 0 {
			m.selection.Increment(items[m.cursor].ID)
		}
	case "-", "left", "h":
		if len(items) > 0 {
			m.selection.Decrement(items[m.cursor].ID)
		}
	case "p":
		m.notice = ""
		return m, m.promo.Focus()
	case "x":
		m.selection.RemovePromo()
		m.promo.Reset()
		m.notice = ""
	case "enter":
		return m, m.submitSelectionCmd()
	}
	return m, nil
}

// applyPromo applies the typed code; an empty field removes the discount
func (m *appModel) applyPromo() {
	code := m.promo.Value()
	if code == "" {
		m.selection.RemovePromo()
		m.notice = ""
		return
	}
	if err := m.selection.ApplyPromo(code); err != nil {
		m.notice = "Invalid promo code"
		return
	}
	m.notice = "Promo applied"
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inputs := m.activeInputs()

	switch msg.String() {
	case "esc":
		target := checkout.Selecting
		if m.state == statePayment {
			target = checkout.Detailing
		}
		return m, m.enterCmd(target)
	case "tab", "down":
		return m, m.focusField(m.focus + 1)
	case "shift+tab", "up":
		return m, m.focusField(m.focus - 1)
	case "ctrl+t":
		if m.state == stateDetails {
			m.sms = !m.sms
		}
		return m, nil
	case "enter":
		if m.focus < len(inputs)-1 {
			return m, m.focusField(m.focus + 1)
		}
		m.notice = ""
		if m.state == stateDetails {
			return m, m.submitDetailsCmd()
		}
		m.state = stateCharging
		return m, tea.Batch(m.chargeCmd(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	inputs[m.focus], cmd = inputs[m.focus].Update(msg)
	return m, cmd
}

func (m appModel) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case stateSelectEvent:
		m.eventList, cmd = m.eventList.Update(msg)
	case stateTickets:
		m.promo, cmd = m.promo.Update(msg)
	case stateDetails, statePayment:
		inputs := m.activeInputs()
		inputs[m.focus], cmd = inputs[m.focus].Update(msg)
	}
	return m, cmd
}

func (m appModel) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	m.lastState = m.recoverState()
	m.state = stateError
	return m, nil
}

func (m appModel) recoverState() appState {
	switch m.state {
	case stateCharging:
		return statePayment
	case stateLoading:
		if m.selection != nil {
			return stateTickets
		}
		return stateSelectEvent
	}
	return m.state
}

func (m appModel) fetchEventsCmd() tea.Cmd {
	return func() tea.Msg {
		events, err := m.events.ListEvents(context.Background())
		return eventsMsg{events: events, err: err}
	}
}

func (m appModel) loadSelectionCmd(eventID string) tea.Cmd {
	return func() tea.Msg {
		sel, err := m.checkout.CurrentSelection(context.Background(), m.store, eventID)
		return selectionMsg{selection: sel, err: err}
	}
}

func (m appModel) submitSelectionCmd() tea.Cmd {
	req := quoteRequest(m.selection)
	return func() tea.Msg {
		_, err := m.checkout.SelectTickets(context.Background(), m.store, req)
		return selectedMsg{err: err}
	}
}

func (m appModel) enterCmd(target checkout.Step) tea.Cmd {
	return func() tea.Msg {
		step, snap, err := m.checkout.Enter(context.Background(), m.store, target)
		return stepMsg{step: step, snap: snap, err: err}
	}
}

func (m appModel) submitDetailsCmd() tea.Cmd {
	info := m.customerInfo()
	return func() tea.Msg {
		step, _, err := m.checkout.SubmitDetails(context.Background(), m.store, info)
		return detailsMsg{step: step, err: err}
	}
}

func (m appModel) fetchSummaryCmd() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.checkout.PaymentSummary(context.Background(), m.store)
		return summaryMsg{summary: summary, err: err}
	}
}

func (m appModel) chargeCmd() tea.Cmd {
	card := m.cardDetails()
	return func() tea.Msg {
		_, err := m.checkout.SubmitPayment(context.Background(), m.store, card)
		return paidMsg{err: err}
	}
}

func (m appModel) fetchConfirmationCmd() tea.Cmd {
	return func() tea.Msg {
		conf, err := m.checkout.Confirmation(context.Background(), m.store)
		return confirmationMsg{confirmation: conf, err: err}
	}
}

// restartCmd empties the checkout and goes back to the event list
func (m appModel) restartCmd() tea.Cmd {
	return func() tea.Msg {
		if err := session.ClearAll(context.Background(), m.store); err != nil {
			return errMsg{err: fmt.Errorf("failed to reset checkout: %w", err)}
		}
		events, err := m.events.ListEvents(context.Background())
		return eventsMsg{events: events, err: err}
	}
}

func quoteRequest(sel *checkout.Selection) checkout.QuoteRequest {
	req := checkout.QuoteRequest{
		EventID:    sel.Catalog().Event.ID,
		Quantities: make(map[string]int),
	}
	for _, item := range sel.Catalog().Items() {
		if q := sel.Quantity(item.ID); q > 0 {
			req.Quantities[item.ID] = q
		}
	}
	if sel.PromoApplied() {
		req.PromoCode = pricing.PromoCode
	}
	return req
}
