package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinema-booking-cli/auth"
	"cinema-booking-cli/booking"
	"cinema-booking-cli/confirm"
	"cinema-booking-cli/model"
	"cinema-booking-cli/payment"
	"cinema-booking-cli/service"
	"cinema-booking-cli/store"
)

const fetchTimeout = 20 * time.Second

type appState int

const (
	stateLoadingRooms appState = iota
	stateSelectRoom
	stateLoadingRoom
	stateSelectDate
	stateSeatMap
	statePayment
	stateSubmitting
	stateConfirmation
	stateLogin
	stateError
	stateFatal
)

// Backend is the part of the cinema API the screens use.
type Backend interface {
	GetRooms(ctx context.Context) ([]model.Room, error)
	booking.API
	auth.Authenticator
}

type Deps struct {
	API    Backend
	Auth   *auth.Session
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type appModel struct {
	api    Backend
	auth   *auth.Session
	logger *slog.Logger
	now    func() time.Time

	state     appState
	lastState appState
	err       error

	width  int
	height int

	rooms    []model.Room
	roomList list.Model
	dateList list.Model

	session *booking.Session
	cursor  model.Seat
	flash   string

	loginForm   formModel
	loginReturn appState
	payForm     formModel

	receipt payment.Receipt
	summary confirm.Summary
	qr      string

	spinner spinner.Model
}

type errMsg struct {
	err error
}

type roomsMsg struct {
	rooms []model.Room
	err   error
}

type roomMsg struct {
	roomID int
	room   model.Room
	err    error
}

type availabilityMsg struct {
	req          booking.AvailabilityRequest
	reservations []model.Reservation
	err          error
}

type submitMsg struct {
	result booking.SubmitResult
}

type loginMsg struct {
	user model.User
	err  error
}

var (
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

func New(deps Deps) tea.Model {
	m := appModel{
		api:    deps.API,
		auth:   deps.Auth,
		logger: deps.Logger,
		now:    deps.Now,
		state:  stateLoadingRooms,
	}
	if m.auth == nil {
		m.auth = auth.NewSession(nil)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.now == nil {
		m.now = time.Now
	}

	m.roomList = newList("Select Room")
	m.dateList = newList("Select Date")
	m.dateList.SetFilteringEnabled(false)
	m.loginForm = newLoginForm()
	m.payForm = newPaymentForm()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(deps Deps) error {
	_, err := tea.NewProgram(New(deps), tea.WithAltScreen()).Run()
	return err
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchRoomsCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.isFormState() {
			return m.handleFormKey(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		m, cmd, handled := m.handleKey(msg)
		if handled {
			return m, cmd
		}
		// fallthrough to component update
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		m.lastState = recoverStateFrom(m.state)
		m.state = stateError
		return m, nil

	case roomsMsg:
		if msg.err != nil {
			return m, errCmd(fmt.Errorf("could not load rooms: %w", msg.err))
		}
		m.rooms = msg.rooms
		recents, err := store.LoadRecentRooms()
		if err != nil {
			m.logger.Warn("could not read recent rooms", "err", err)
		}
		m.roomList.SetItems(buildRoomItems(msg.rooms, recents))
		m.roomList.Select(0)
		m.state = stateSelectRoom
		return m, nil

	case roomMsg:
		if m.session == nil || msg.roomID != m.session.RoomID() {
			return m, nil
		}
		m.session.ApplyRoom(msg.room, msg.err)
		if m.session.Phase() == booking.PhaseFatal {
			m.state = stateFatal
			return m, nil
		}
		if err := store.RememberRoom(msg.room); err != nil {
			m.logger.Warn("could not remember room", "err", err)
		}
		m.cursor = model.Seat{Row: 1, Column: 1}
		m.openDatePicker()
		return m, nil

	case availabilityMsg:
		if m.session == nil || !m.session.ApplyAvailability(msg.req, msg.reservations, msg.err) {
			return m, nil
		}
		if booking.IsKind(m.session.Err(), booking.KindAuth) {
			return m.openLogin(stateSeatMap, "Your session expired. Please log in again.")
		}
		return m, nil

	case submitMsg:
		return m.applySubmit(msg.result)

	case loginMsg:
		if m.state != stateLogin {
			return m, nil
		}
		if msg.err != nil {
			m.loginForm.err = loginErrorText(msg.err)
			m.state = stateLogin
			return m, nil
		}
		m.loginForm = newLoginForm()
		m.flash = ""
		m.state = m.loginReturn
		m.logger.Info("login from tui", "username", msg.user.Username)
		if m.state == stateSeatMap && m.session != nil && m.session.Availability() == booking.AvailabilityFailed {
			next, cmd, _ := m.retryAvailability()
			return next, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectRoom:
		m.roomList, cmd = m.roomList.Update(msg)
	case stateSelectDate:
		m.dateList, cmd = m.dateList.Update(msg)
	case stateLogin:
		m.loginForm, cmd = m.loginForm.update(msg)
	case statePayment:
		m.payForm, cmd = m.payForm.update(msg)
	}
	return m, cmd
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingRooms, stateLoadingRoom, stateSubmitting:
		return header + "\n\n" + m.loadingView()
	case stateSelectRoom:
		return header + "\n\n" + m.roomList.View()
	case stateSelectDate:
		return header + "\n\n" + m.dateList.View()
	case stateSeatMap:
		return header + "\n\n" + m.seatMapView()
	case statePayment:
		return header + "\n\n" + m.paymentView()
	case stateConfirmation:
		return header + "\n\n" + m.confirmationView()
	case stateLogin:
		return header + "\n\n" + m.loginForm.view()
	case stateFatal:
		message := "This room could not be loaded."
		if m.session != nil && m.session.Err() != nil {
			message = m.session.Err().Message
		}
		return header + "\n\n" + errorStyle.Render(message) + "\n\n" + hint("Press esc to choose another room or ctrl+c to quit.")
	case stateError:
		return header + "\n\n" + errorStyle.Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Cinema Booking")
	sub := []string{}
	if user, ok := m.auth.CurrentUser(); ok {
		sub = append(sub, fmt.Sprintf("User: %s", user.Username))
	} else {
		sub = append(sub, "Not logged in")
	}
	if m.session != nil && m.state != stateSelectRoom && m.state != stateLoadingRooms {
		room := m.session.Room()
		if room.Name != "" {
			sub = append(sub, fmt.Sprintf("Room: %s • %s", room.Name, room.MovieName))
		}
		if m.session.HasDate() {
			sub = append(sub, fmt.Sprintf("Date: %s", model.FormatDate(m.session.Date())))
		}
	}
	meta := lipgloss.NewStyle().Faint(true).Render(strings.Join(sub, " • "))

	hints := "ctrl+c quit • esc back"
	switch m.state {
	case stateSelectRoom:
		hints = "ctrl+c quit • type to filter • enter open room • ctrl+l log in • ctrl+o log out"
	case stateSelectDate:
		hints = "ctrl+c quit • esc back • enter select date"
	case stateSeatMap:
		hints = "ctrl+c quit • esc back • arrows/hjkl move • space toggle • c clear • d date • r reload • enter pay"
	case statePayment, stateLogin:
		hints = "ctrl+c quit • esc back • tab next field • enter confirm"
	case stateConfirmation:
		hints = "ctrl+c quit • enter back to rooms"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + "\n" + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+l":
		if m.state == stateSelectRoom {
			next, cmd := m.openLogin(stateSelectRoom, "")
			return next, cmd, true
		}
	case "ctrl+o":
		if m.state == stateSelectRoom {
			if err := m.auth.Logout(); err != nil {
				m.logger.Warn("logout failed", "err", err)
			}
			return m, nil, true
		}
	}

	if m.state == stateSeatMap {
		return m.handleSeatMapKey(msg)
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateSelectRoom:
			item, ok := m.roomList.SelectedItem().(roomItem)
			if !ok {
				return m, nil, true
			}
			m.session = booking.NewSession(item.room.Id, booking.WithClock(m.now), booking.WithLogger(m.logger))
			m.flash = ""
			m.state = stateLoadingRoom
			return m, tea.Batch(m.fetchRoomCmd(item.room.Id), m.spinner.Tick), true
		case stateSelectDate:
			item, ok := m.dateList.SelectedItem().(dateItem)
			if !ok || m.session == nil {
				return m, nil, true
			}
			req, err := m.session.SelectDate(item.date)
			if err != nil {
				m.flash = err.Error()
				return m, nil, true
			}
			m.flash = ""
			m.state = stateSeatMap
			return m, tea.Batch(m.fetchAvailabilityCmd(req), m.spinner.Tick), true
		case stateConfirmation:
			next, cmd := m.backToRooms()
			return next, cmd, true
		}
	}
	return m, nil, false
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	room := m.session.Room()
	switch msg.String() {
	case "up", "k":
		m.cursor.Row = max(1, m.cursor.Row-1)
	case "down", "j":
		m.cursor.Row = min(room.NumRows, m.cursor.Row+1)
	case "left", "h":
		m.cursor.Column = max(1, m.cursor.Column-1)
	case "right", "l":
		m.cursor.Column = min(room.NumColumns, m.cursor.Column+1)
	case " ", "x":
		if m.session.Toggle(m.cursor) {
			m.flash = ""
		} else if m.session.SeatState(m.cursor) == booking.SeatReserved {
			m.flash = fmt.Sprintf("Seat %s is already reserved.", m.cursor.Label())
		}
	case "c":
		m.session.ClearSelection()
		m.flash = ""
	case "d":
		m.openDatePicker()
	case "r":
		return m.retryAvailability()
	case "enter":
		return m.openPayment()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := &m.payForm
	if m.state == stateLogin {
		form = &m.loginForm
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		next, cmd := m.goBack()
		return next, cmd
	case "tab", "down":
		form.next()
		return m, nil
	case "shift+tab", "up":
		form.prev()
		return m, nil
	case "enter":
		if !form.onLastField() {
			form.next()
			return m, nil
		}
		if m.state == stateLogin {
			return m.submitLogin()
		}
		return m.submitPayment()
	}
	var cmd tea.Cmd
	*form, cmd = form.update(msg)
	return m, cmd
}

func (m appModel) openLogin(returnTo appState, reason string) (appModel, tea.Cmd) {
	m.loginForm = newLoginForm()
	m.loginForm.err = reason
	m.loginReturn = returnTo
	m.state = stateLogin
	return m, nil
}

func (m appModel) submitLogin() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.loginForm.value(0))
	password := m.loginForm.value(1)
	if username == "" || password == "" {
		m.loginForm.err = "Please enter your username and password."
		return m, nil
	}
	m.loginForm.err = ""
	return m, m.loginCmd(username, password)
}

func (m appModel) openPayment() (appModel, tea.Cmd, bool) {
	user, err := m.auth.RequireUser()
	if err != nil {
		next, cmd := m.openLogin(stateSeatMap, "Please log in to book seats.")
		return next, cmd, true
	}
	if err := m.session.CheckSubmit(user.Id); err != nil {
		m.flash = err.Error()
		return m, nil, true
	}
	m.flash = ""
	m.payForm.err = ""
	m.state = statePayment
	return m, nil, true
}

func (m appModel) submitPayment() (tea.Model, tea.Cmd) {
	if err := m.payForm.paymentForm().Validate(); err != nil {
		m.payForm.err = err.Error()
		return m, nil
	}
	user, err := m.auth.RequireUser()
	if err != nil {
		return m.openLogin(statePayment, "Your session expired. Please log in again.")
	}
	// nothing may fail once the seats are booked
	receipt, err := payment.Authorize(m.payForm.paymentForm(), m.session.TotalPrice())
	if err != nil {
		m.payForm.err = err.Error()
		return m, nil
	}
	req, err := m.session.BeginSubmit(user.Id)
	if err != nil {
		m.flash = err.Error()
		m.state = stateSeatMap
		return m, nil
	}
	m.receipt = receipt
	m.payForm.err = ""
	m.state = stateSubmitting
	return m, tea.Batch(m.submitCmd(req), m.spinner.Tick)
}

func (m appModel) applySubmit(result booking.SubmitResult) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	m.session.ApplySubmit(result)
	switch m.session.Phase() {
	case booking.PhaseSucceeded:
		conf, _ := m.session.Confirmation()
		m.summary = confirm.New(conf, m.receipt)
		var err error
		m.qr, err = m.summary.RenderQR()
		if err != nil {
			m.logger.Warn("could not render qr", "err", err)
		}
		m.payForm = newPaymentForm()
		m.receipt = payment.Receipt{}
		m.state = stateConfirmation
		return m, nil
	case booking.PhaseFailed:
		failure := m.session.Err()
		if failure == nil {
			m.state = stateSeatMap
			return m, nil
		}
		if failure.Kind == booking.KindAuth {
			return m.openLogin(statePayment, "Your session expired. Please log in again.")
		}
		m.flash = failure.Message
		if len(failure.Unreverted) > 0 {
			m.flash += fmt.Sprintf(" Seats %s stayed reserved and could not be released.", strings.Join(model.SeatLabels(failure.Unreverted), ", "))
		}
		m.state = stateSeatMap
		if failure.Kind == booking.KindConflict {
			next, cmd, _ := m.retryAvailability()
			return next, cmd
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) retryAvailability() (appModel, tea.Cmd, bool) {
	req, err := m.session.RetryAvailability()
	if err != nil {
		m.flash = err.Error()
		return m, nil, true
	}
	return m, tea.Batch(m.fetchAvailabilityCmd(req), m.spinner.Tick), true
}

func (m appModel) backToRooms() (appModel, tea.Cmd) {
	m.session = nil
	m.summary = confirm.Summary{}
	m.qr = ""
	m.flash = ""
	if len(m.rooms) == 0 {
		m.state = stateLoadingRooms
		return m, tea.Batch(m.fetchRoomsCmd(), m.spinner.Tick)
	}
	m.state = stateSelectRoom
	return m, nil
}

func (m appModel) goBack() (appModel, tea.Cmd) {
	switch m.state {
	case stateSelectDate:
		if m.session != nil && m.session.HasDate() {
			m.state = stateSeatMap
			return m, nil
		}
		return m.backToRooms()
	case stateSeatMap, stateFatal, stateConfirmation:
		return m.backToRooms()
	case statePayment:
		m.state = stateSeatMap
	case stateLogin:
		m.loginForm = newLoginForm()
		m.state = m.loginReturn
	case stateError:
		if m.lastState == stateLoadingRooms {
			return m.backToRooms()
		}
		m.state = m.lastState
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func (m *appModel) openDatePicker() {
	if m.session == nil {
		return
	}
	today := m.session.Today()
	m.dateList.SetItems(buildDateItems(m.session.BookableDates(), today))
	m.dateList.Select(0)
	if m.session.HasDate() {
		for i, item := range m.dateList.Items() {
			if d, ok := item.(dateItem); ok && isSameDay(d.date, m.session.Date()) {
				m.dateList.Select(i)
				break
			}
		}
	}
	m.state = stateSelectDate
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectRoom:
		return &m.roomList
	case stateSelectDate:
		return &m.dateList
	default:
		return nil
	}
}

func (m appModel) isFormState() bool {
	return m.state == stateLogin || m.state == statePayment
}

func (m appModel) isLoadingState() bool {
	if m.state == stateSeatMap && m.session != nil {
		return m.session.Availability() == booking.AvailabilityLoading
	}
	return m.state == stateLoadingRooms ||
		m.state == stateLoadingRoom ||
		m.state == stateSubmitting
}

func (m appModel) loadingView() string {
	title := "Loading"
	detail := "Fetching data..."
	switch m.state {
	case stateLoadingRooms:
		title = "Loading rooms"
	case stateLoadingRoom:
		title = "Loading room"
	case stateSubmitting:
		title = "Booking your seats"
		detail = "Reserving one seat at a time. Please wait."
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint(detail))
}

func (m appModel) paymentView() string {
	var b strings.Builder
	seats := model.SeatLabels(m.session.SelectedSeats())
	b.WriteString(fmt.Sprintf("Seats: %s\n", strings.Join(seats, ", ")))
	b.WriteString(fmt.Sprintf("Total: %s\n\n", formatPrice(m.session.TotalPrice())))
	b.WriteString(m.payForm.view())
	b.WriteString("\n")
	b.WriteString(hint("Payment is simulated; no card data leaves this terminal."))
	return b.String()
}

func (m appModel) confirmationView() string {
	var b strings.Builder
	b.WriteString(okStyle.Render("Reservation confirmed"))
	b.WriteString("\n\n")
	labelStyle := lipgloss.NewStyle().Width(11).Faint(true)
	for _, row := range m.summary.Lines() {
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
		b.WriteString("\n")
	}
	if m.qr != "" {
		b.WriteString("\n")
		b.WriteString(m.qr)
	}
	return b.String()
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.roomList.SetSize(m.width, h)
	m.dateList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingRoom, stateSubmitting:
		return stateSelectRoom
	case stateError:
		return stateSelectRoom
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func loginErrorText(err error) string {
	if service.IsUnauthorized(err) {
		return "Invalid username or password."
	}
	return fmt.Sprintf("Login failed: %v", err)
}

func (m appModel) fetchRoomsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rooms, err := m.api.GetRooms(ctx)
		return roomsMsg{rooms: rooms, err: err}
	}
}

func (m appModel) fetchRoomCmd(roomID int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		room, err := m.api.GetRoom(ctx, roomID)
		return roomMsg{roomID: roomID, room: room, err: err}
	}
}

func (m appModel) fetchAvailabilityCmd(req booking.AvailabilityRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		reservations, err := booking.FetchAvailability(ctx, m.api, req)
		return availabilityMsg{req: req, reservations: reservations, err: err}
	}
}

func (m appModel) submitCmd(req booking.SubmitRequest) tea.Cmd {
	return func() tea.Msg {
		return submitMsg{result: booking.Submit(context.Background(), m.api, req, m.logger)}
	}
}

func (m appModel) loginCmd(username string, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		user, err := m.auth.Login(ctx, m.api, username, password)
		return loginMsg{user: user, err: err}
	}
}

type roomItem struct {
	room   model.Room
	recent bool
}

func (r roomItem) Title() string {
	title := fmt.Sprintf("%s • %s", r.room.Name, r.room.MovieName)
	if r.recent {
		title += " (recent)"
	}
	return title
}

func (r roomItem) Description() string {
	parts := []string{confirm.FormatShowTime(r.room.Hour)}
	if r.room.Genre != "" {
		parts = append(parts, r.room.Genre)
	}
	if r.room.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%d min", r.room.Duration))
	}
	parts = append(parts, formatPrice(r.room.Price), fmt.Sprintf("%d seats", r.room.TotalSeats()))
	return strings.Join(parts, " • ")
}

func (r roomItem) FilterValue() string {
	return r.room.Name + " " + r.room.MovieName + " " + r.room.Genre
}

// buildRoomItems lists recently opened rooms first, most recent first, then
// the rest by id.
func buildRoomItems(rooms []model.Room, recents []store.RecentRoom) []list.Item {
	rank := make(map[int]int, len(recents))
	for i, recent := range recents {
		rank[recent.ID] = i
	}
	sorted := make([]model.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iRecent := rank[sorted[i].Id]
		rj, jRecent := rank[sorted[j].Id]
		switch {
		case iRecent && jRecent:
			return ri < rj
		case iRecent != jRecent:
			return iRecent
		default:
			return sorted[i].Id < sorted[j].Id
		}
	})
	items := make([]list.Item, 0, len(sorted))
	for _, room := range sorted {
		_, recent := rank[room.Id]
		items = append(items, roomItem{room: room, recent: recent})
	}
	return items
}

type dateItem struct {
	date  time.Time
	today bool
}

func (d dateItem) Title() string {
	if d.today {
		return fmt.Sprintf("%s • %s (Today)", d.date.Format("Mon"), d.date.Format("02/01"))
	}
	return fmt.Sprintf("%s • %s", d.date.Format("Mon"), d.date.Format("02/01"))
}

func (d dateItem) Description() string {
	return d.date.Format(time.DateOnly)
}

func (d dateItem) FilterValue() string {
	return d.Title()
}

func buildDateItems(dates []time.Time, today time.Time) []list.Item {
	items := make([]list.Item, 0, len(dates))
	for _, date := range dates {
		items = append(items, dateItem{date: date, today: isSameDay(date, today)})
	}
	return items
}

func isSameDay(a time.Time, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatPrice(price float64) string {
	if price <= 0 {
		return "-"
	}
	return fmt.Sprintf("$%.2f", price)
}
