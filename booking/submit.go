package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cinema-booking-cli/model"
)

const (
	compensationTimeout = 15 * time.Second
	compensationWorkers = 4
)

// API is the part of the cinema API a session needs.
type API interface {
	GetRoom(ctx context.Context, roomID int) (model.Room, error)
	GetReservations(ctx context.Context, roomID int, date time.Time) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, in model.NewReservation) (model.Reservation, error)
	CancelReservation(ctx context.Context, reservationID int) error
}

// Load fetches the session's room and applies it.
func (s *Session) Load(ctx context.Context, api API) error {
	room, err := api.GetRoom(ctx, s.roomID)
	s.ApplyRoom(room, err)
	if s.phase == PhaseFatal {
		return s.lastErr
	}
	return nil
}

// FetchAvailability runs req against the API. The result is meant for
// Session.ApplyAvailability.
func FetchAvailability(ctx context.Context, api API, req AvailabilityRequest) ([]model.Reservation, error) {
	return api.GetReservations(ctx, req.RoomID, req.Date)
}

// Submit books every seat of req, one write per seat in selection order. The
// first failure stops the loop and every reservation already created is
// cancelled, so the submission either books all seats or none of them.
func Submit(ctx context.Context, api API, req SubmitRequest, logger *slog.Logger) SubmitResult {
	if logger == nil {
		logger = slog.Default()
	}
	date := model.FormatDate(req.Date)
	created := make([]model.Reservation, 0, len(req.Seats))

	for _, seat := range req.Seats {
		reservation, err := api.CreateReservation(ctx, model.NewReservation{
			UserId:          req.UserID,
			RoomId:          req.Room.Id,
			SeatRow:         seat.Row,
			SeatColumn:      seat.Column,
			ReservationDate: date,
		})
		if err != nil {
			failure := classifySubmit(err, seat)
			logger.Warn("seat write failed, rolling back", "seat", seat.Label(), "created", len(created), "err", err)
			failure.Unreverted = compensate(ctx, api, created, logger)
			return SubmitResult{Err: failure}
		}
		created = append(created, reservation)
	}
	return SubmitResult{Reservations: created}
}

// compensate cancels reservations created by a failed submission and returns
// the seats it could not release.
func compensate(ctx context.Context, api API, created []model.Reservation, logger *slog.Logger) []model.Seat {
	if len(created) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var (
		mu         sync.Mutex
		unreverted []model.Seat
	)
	var g errgroup.Group
	g.SetLimit(compensationWorkers)
	for _, reservation := range created {
		g.Go(func() error {
			var err error
			if reservation.Id <= 0 {
				err = errMissingID
			} else {
				err = api.CancelReservation(ctx, reservation.Id)
			}
			if err != nil {
				logger.Error("could not cancel reservation", "reservation_id", reservation.Id, "seat", reservation.Seat().Label(), "err", err)
				mu.Lock()
				unreverted = append(unreverted, reservation.Seat())
				mu.Unlock()
			}
			return err
		})
	}
	_ = g.Wait()
	return unreverted
}
