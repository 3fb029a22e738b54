// Package booking implements the reservation session: one user's attempt to
// book seats in one room for one date.
//
// A Session is a state machine. Its methods never perform I/O; transitions
// that need the API return a request value, the caller executes it (see
// FetchAvailability and Submit) and hands the result back through the
// matching Apply method. All mutation therefore happens on the caller's
// goroutine, and results that arrive late are recognised by their sequence
// number and dropped.
package booking

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/exp/maps"

	"cinema-booking-cli/model"
)

// BookingWindowDays is how far ahead of today a session date may be.
const BookingWindowDays = 8

// requestSeq numbers availability requests across all sessions, so a result
// from a discarded session never matches a newer one.
var requestSeq atomic.Uint64

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
	// PhaseFatal is entered when the room cannot be loaded; there is no way out.
	PhaseFatal
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type Availability int

const (
	AvailabilityNoDate Availability = iota
	AvailabilityLoading
	AvailabilityLoaded
	// AvailabilityFailed blocks seat selection and submission until a retry succeeds.
	AvailabilityFailed
)

func (a Availability) String() string {
	switch a {
	case AvailabilityNoDate:
		return "no date"
	case AvailabilityLoading:
		return "loading"
	case AvailabilityLoaded:
		return "loaded"
	case AvailabilityFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type SeatState int

const (
	SeatAvailable SeatState = iota
	SeatSelected
	SeatReserved
)

// AvailabilityRequest asks for the reservations of a room on a date. Seq tags
// the request so only the latest one is applied.
type AvailabilityRequest struct {
	Seq    uint64
	RoomID int
	Date   time.Time
}

type SubmitRequest struct {
	UserID int
	Room   model.Room
	Date   time.Time
	Seats  []model.Seat
}

type SubmitResult struct {
	Reservations []model.Reservation
	Err          error
}

// Confirmation is everything the confirmation screen shows.
type Confirmation struct {
	Room           model.Room
	Date           time.Time
	Seats          []string
	TotalPrice     float64
	ReservationIDs []int
}

type Session struct {
	roomID int
	room   model.Room
	phase  Phase

	date         time.Time
	availability Availability
	seq          uint64
	reserved     map[model.Seat]struct{}
	selected     []model.Seat

	pending      SubmitRequest
	confirmation *Confirmation
	lastErr      *Error
	notice       string

	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Session)

// WithClock replaces time.Now, which decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession starts a session for roomID in the loading phase. The caller
// fetches the room and passes it to ApplyRoom.
func NewSession(roomID int, opts ...Option) *Session {
	s := &Session{
		roomID:   roomID,
		phase:    PhaseLoading,
		reserved: make(map[model.Seat]struct{}),
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("room_id", roomID)
	return s
}

func (s *Session) RoomID() int                { return s.roomID }
func (s *Session) Room() model.Room           { return s.room }
func (s *Session) Phase() Phase               { return s.phase }
func (s *Session) Date() time.Time            { return s.date }
func (s *Session) HasDate() bool              { return !s.date.IsZero() }
func (s *Session) Availability() Availability { return s.availability }

// Err is the most recent failure, or nil.
func (s *Session) Err() *Error {
	return s.lastErr
}

// Notice is an informational message about the last availability refresh.
func (s *Session) Notice() string {
	return s.notice
}

func (s *Session) Confirmation() (Confirmation, bool) {
	if s.confirmation == nil {
		return Confirmation{}, false
	}
	return *s.confirmation, true
}

// ApplyRoom completes the loading phase. A failure is fatal.
func (s *Session) ApplyRoom(room model.Room, err error) {
	if s.phase != PhaseLoading {
		return
	}
	if err != nil {
		s.phase = PhaseFatal
		s.lastErr = classifyFetch(err, "room")
		s.logger.Warn("room load failed", "err", err)
		return
	}
	if room.TotalSeats() == 0 {
		s.phase = PhaseFatal
		s.lastErr = &Error{Kind: KindTransport, Message: "This room has no seats configured."}
		return
	}
	s.room = room
	s.phase = PhaseReady
	s.logger.Debug("room loaded", "rows", room.NumRows, "columns", room.NumColumns)
}

// Today is the first bookable date.
func (s *Session) Today() time.Time {
	return model.TruncateDate(s.now())
}

// LastBookableDate is Today plus the booking window.
func (s *Session) LastBookableDate() time.Time {
	return s.Today().AddDate(0, 0, BookingWindowDays)
}

// InWindow reports whether the calendar date of d is bookable.
func (s *Session) InWindow(d time.Time) bool {
	date := model.TruncateDate(d)
	return !date.Before(s.Today()) && !date.After(s.LastBookableDate())
}

// BookableDates lists every date in the booking window, today first.
func (s *Session) BookableDates() []time.Time {
	today := s.Today()
	dates := make([]time.Time, 0, BookingWindowDays+1)
	for i := 0; i <= BookingWindowDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

func (s *Session) editable() bool {
	return s.phase == PhaseReady || s.phase == PhaseFailed
}

// SelectDate sets the session date and returns the availability request to
// run. A date outside the window is rejected and the session is unchanged.
func (s *Session) SelectDate(d time.Time) (AvailabilityRequest, error) {
	if !s.editable() {
		return AvailabilityRequest{}, validation(msgNotReady)
	}
	if d.IsZero() {
		err := validation(msgNoDate)
		s.lastErr = err
		return AvailabilityRequest{}, err
	}
	if !s.InWindow(d) {
		err := validation(msgDateOutOfRange)
		s.lastErr = err
		return AvailabilityRequest{}, err
	}

	s.date = model.TruncateDate(d)
	s.availability = AvailabilityLoading
	s.seq = requestSeq.Add(1)
	s.lastErr = nil
	s.notice = ""
	s.logger.Debug("date selected", "date", model.FormatDate(s.date), "seq", s.seq)
	return AvailabilityRequest{Seq: s.seq, RoomID: s.room.Id, Date: s.date}, nil
}

// RetryAvailability reissues the availability request for the current date.
func (s *Session) RetryAvailability() (AvailabilityRequest, error) {
	if s.date.IsZero() {
		err := validation(msgNoDate)
		s.lastErr = err
		return AvailabilityRequest{}, err
	}
	return s.SelectDate(s.date)
}

// ApplyAvailability installs the result of req. It returns false when req is
// no longer the latest request and the result was dropped.
func (s *Session) ApplyAvailability(req AvailabilityRequest, reservations []model.Reservation, err error) bool {
	if req.Seq != s.seq || req.RoomID != s.room.Id || !model.TruncateDate(req.Date).Equal(s.date) || !s.editable() {
		s.logger.Debug("dropping stale availability", "seq", req.Seq, "current", s.seq)
		return false
	}

	if err != nil {
		s.reserved = make(map[model.Seat]struct{})
		s.availability = AvailabilityFailed
		s.lastErr = classifyFetch(err, "seat availability")
		s.logger.Warn("availability load failed", "date", model.FormatDate(req.Date), "err", err)
		return true
	}

	reserved := make(map[model.Seat]struct{}, len(reservations))
	for _, r := range reservations {
		seat := r.Seat()
		if !s.room.Contains(seat) {
			continue
		}
		reserved[seat] = struct{}{}
	}
	s.reserved = reserved
	s.availability = AvailabilityLoaded
	if s.lastErr != nil && s.lastErr.Kind != KindConflict {
		s.lastErr = nil
	}

	var kept, dropped []model.Seat
	for _, seat := range s.selected {
		if _, taken := reserved[seat]; taken {
			dropped = append(dropped, seat)
			continue
		}
		kept = append(kept, seat)
	}
	s.selected = kept
	s.notice = ""
	if len(dropped) > 0 {
		s.notice = fmt.Sprintf("Seats %s were taken and removed from your selection.", strings.Join(model.SeatLabels(dropped), ", "))
	}
	s.logger.Debug("availability loaded", "date", model.FormatDate(req.Date), "reserved", len(reserved), "dropped", len(dropped))
	return true
}

// Toggle flips seat in the selection. Reserved or out-of-grid seats, and any
// seat while availability is failed, are left alone; it reports whether the
// selection changed.
func (s *Session) Toggle(seat model.Seat) bool {
	if !s.editable() || s.availability == AvailabilityFailed || !s.room.Contains(seat) {
		return false
	}
	if _, taken := s.reserved[seat]; taken {
		return false
	}
	for i, selected := range s.selected {
		if selected == seat {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return true
		}
	}
	s.selected = append(s.selected, seat)
	return true
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	if s.editable() {
		s.selected = nil
	}
}

// SelectedSeats returns the selection in the order seats were picked.
func (s *Session) SelectedSeats() []model.Seat {
	out := make([]model.Seat, len(s.selected))
	copy(out, s.selected)
	return out
}

// ReservedSeats returns the reserved-seat set in row-major order.
func (s *Session) ReservedSeats() []model.Seat {
	seats := maps.Keys(s.reserved)
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Column < seats[j].Column
	})
	return seats
}

func (s *Session) SeatState(seat model.Seat) SeatState {
	if _, taken := s.reserved[seat]; taken {
		return SeatReserved
	}
	for _, selected := range s.selected {
		if selected == seat {
			return SeatSelected
		}
	}
	return SeatAvailable
}

func (s *Session) TotalSeats() int {
	return s.room.TotalSeats()
}

// AvailableSeats is TotalSeats minus the reserved-seat set, floored at zero.
func (s *Session) AvailableSeats() int {
	return max(0, s.TotalSeats()-len(s.reserved))
}

// TotalPrice is the price of the current selection.
func (s *Session) TotalPrice() float64 {
	return float64(len(s.selected)) * s.room.Price
}

// CheckSubmit reports whether BeginSubmit would accept userID now, without
// leaving the current phase.
func (s *Session) CheckSubmit(userID int) error {
	if !s.editable() {
		return validation(msgNotReady)
	}
	if err := s.submitError(userID); err != nil {
		s.lastErr = err
		return err
	}
	return nil
}

func (s *Session) submitError(userID int) *Error {
	switch {
	case userID <= 0:
		return &Error{Kind: KindAuth, Message: msgLogin}
	case s.date.IsZero():
		return validation(msgNoDate)
	case !s.InWindow(s.date):
		return validation(msgDateOutOfRange)
	case s.availability == AvailabilityLoading:
		return validation(msgAvailabilityBusy)
	case s.availability == AvailabilityFailed:
		return validation(msgAvailabilityDown)
	case len(s.selected) == 0:
		return validation(msgNoSeats)
	}
	return nil
}

// BeginSubmit checks the preconditions of a booking and moves to the
// submitting phase. Any failure is a validation error and nothing is sent.
func (s *Session) BeginSubmit(userID int) (SubmitRequest, error) {
	if err := s.CheckSubmit(userID); err != nil {
		return SubmitRequest{}, err
	}

	s.pending = SubmitRequest{
		UserID: userID,
		Room:   s.room,
		Date:   s.date,
		Seats:  s.SelectedSeats(),
	}
	s.phase = PhaseSubmitting
	s.lastErr = nil
	s.logger.Info("submitting reservation", "date", model.FormatDate(s.date), "seats", len(s.selected))
	return s.pending, nil
}

// ApplySubmit ends the submitting phase. On success the session is finished
// and Confirmation returns the summary; on failure the user may edit and
// submit again.
func (s *Session) ApplySubmit(result SubmitResult) {
	if s.phase != PhaseSubmitting {
		return
	}
	if result.Err != nil {
		s.phase = PhaseFailed
		var bookingErr *Error
		if errors.As(result.Err, &bookingErr) {
			s.lastErr = bookingErr
		} else {
			s.lastErr = &Error{Kind: KindTransport, Message: msgTransport, Err: result.Err}
		}
		s.logger.Warn("reservation failed", "kind", s.lastErr.Kind.String(), "err", result.Err)
		return
	}

	ids := make([]int, 0, len(result.Reservations))
	for _, r := range result.Reservations {
		ids = append(ids, r.Id)
	}
	s.confirmation = &Confirmation{
		Room:           s.pending.Room,
		Date:           s.pending.Date,
		Seats:          model.SeatLabels(s.pending.Seats),
		TotalPrice:     float64(len(s.pending.Seats)) * s.pending.Room.Price,
		ReservationIDs: ids,
	}
	s.phase = PhaseSucceeded
	s.lastErr = nil
	s.logger.Info("reservation confirmed", "seats", len(s.pending.Seats), "total", s.confirmation.TotalPrice)
}
