package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cinema-booking-cli/auth"
	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(Options{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func loggedInClient(t *testing.T, baseURL, username, password string) (*service.Client, *auth.Session) {
	t.Helper()
	session := auth.NewSession(nil)
	client := service.NewClient(&http.Client{Timeout: 5 * time.Second},
		service.WithBaseURL(baseURL+"/api"), service.WithTokenSource(session))
	_, err := session.Login(context.Background(), client, username, password)
	require.NoError(t, err)
	return client, session
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRoomsAndLogin(t *testing.T) {
	_, ts := newTestServer(t)
	client := service.NewClient(nil, service.WithBaseURL(ts.URL+"/api"))
	ctx := context.Background()

	rooms, err := client.GetRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, len(seedRooms))
	assert.Equal(t, 1, rooms[0].Id)

	room, err := client.GetRoom(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 48, room.TotalSeats())

	_, err = client.GetRoom(ctx, 99)
	assert.True(t, service.IsNotFound(err))

	token, err := client.Login(ctx, "demo", "demo123")
	require.NoError(t, err)
	claims, err := auth.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "demo", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Positive(t, claims.UserID)

	_, err = client.Login(ctx, "demo", "wrong")
	assert.True(t, service.IsUnauthorized(err))
}

func TestRegisterThenLogin(t *testing.T) {
	_, ts := newTestServer(t)
	client := service.NewClient(nil, service.WithBaseURL(ts.URL+"/api"))
	ctx := context.Background()

	session := auth.NewSession(nil)
	require.NoError(t, session.Register(ctx, client, "lucia", "lucia@example.com", "secret1", "secret1"))
	err := session.Register(ctx, client, "lucia", "other@example.com", "secret1", "secret1")
	var apiErr *service.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	user, err := session.Login(ctx, client, "lucia", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "lucia", user.Username)
}

func TestCreateReservation_RequiresToken(t *testing.T) {
	_, ts := newTestServer(t)
	client := service.NewClient(nil, service.WithBaseURL(ts.URL+"/api"))

	_, err := client.CreateReservation(context.Background(), model.NewReservation{UserId: 2, RoomId: 1, SeatRow: 1, SeatColumn: 1, ReservationDate: "2026-10-17"})
	assert.True(t, service.IsUnauthorized(err))

	req := httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	srv, _ := newTestServer(t)
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReservation_ConflictsAndBounds(t *testing.T) {
	_, ts := newTestServer(t)
	client, session := loggedInClient(t, ts.URL, "demo", "demo123")
	user, _ := session.CurrentUser()
	ctx := context.Background()

	in := model.NewReservation{UserId: user.Id, RoomId: 1, SeatRow: 2, SeatColumn: 3, ReservationDate: "2026-10-17"}
	created, err := client.CreateReservation(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, created.Id)

	_, err = client.CreateReservation(ctx, in)
	assert.True(t, service.IsConflict(err))

	other := in
	other.ReservationDate = "2026-10-18"
	_, err = client.CreateReservation(ctx, other)
	assert.NoError(t, err)

	outside := in
	outside.SeatRow = 6
	_, err = client.CreateReservation(ctx, outside)
	assert.True(t, service.IsConflict(err))

	forged := in
	forged.UserId = user.Id + 100
	forged.SeatColumn = 4
	_, err = client.CreateReservation(ctx, forged)
	assert.True(t, service.IsUnauthorized(err))

	reservations, err := client.GetReservations(ctx, 1, time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, reservations, 1)
	assert.Equal(t, model.Seat{Row: 2, Column: 3}, reservations[0].Seat())
}

func TestCreateReservation_FirstWriterWins(t *testing.T) {
	_, ts := newTestServer(t)
	client, session := loggedInClient(t, ts.URL, "demo", "demo123")
	user, _ := session.CurrentUser()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.CreateReservation(context.Background(), model.NewReservation{
				UserId: user.Id, RoomId: 3, SeatRow: 4, SeatColumn: 4, ReservationDate: "2026-10-20",
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestCancelReservation_OwnerOnly(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	demo, demoSession := loggedInClient(t, ts.URL, "demo", "demo123")
	admin, _ := loggedInClient(t, ts.URL, "admin", "admin123")
	demoUser, _ := demoSession.CurrentUser()

	created, err := demo.CreateReservation(ctx, model.NewReservation{UserId: demoUser.Id, RoomId: 1, SeatRow: 1, SeatColumn: 1, ReservationDate: "2026-10-17"})
	require.NoError(t, err)

	plain := service.NewClient(nil, service.WithBaseURL(ts.URL+"/api"))
	require.NoError(t, plain.Register(ctx, "mallory", "mallory@example.com", "secret1"))
	mallory, _ := loggedInClient(t, ts.URL, "mallory", "secret1")
	assert.True(t, service.IsUnauthorized(mallory.CancelReservation(ctx, created.Id)))

	require.NoError(t, demo.CancelReservation(ctx, created.Id))
	assert.True(t, service.IsNotFound(demo.CancelReservation(ctx, created.Id)))

	again, err := demo.CreateReservation(ctx, model.NewReservation{UserId: demoUser.Id, RoomId: 1, SeatRow: 1, SeatColumn: 1, ReservationDate: "2026-10-17"})
	require.NoError(t, err)
	require.NoError(t, admin.CancelReservation(ctx, again.Id))
}

func TestBookingSession_EndToEnd(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	client, session := loggedInClient(t, ts.URL, "demo", "demo123")
	user, err := session.RequireUser()
	require.NoError(t, err)

	rival, rivalSession := loggedInClient(t, ts.URL, "admin", "admin123")
	rivalUser, _ := rivalSession.CurrentUser()
	date := model.TruncateDate(time.Now()).AddDate(0, 0, 1)
	_, err = rival.CreateReservation(ctx, model.NewReservation{UserId: rivalUser.Id, RoomId: 1, SeatRow: 1, SeatColumn: 1, ReservationDate: model.FormatDate(date)})
	require.NoError(t, err)
	_, err = rival.CreateReservation(ctx, model.NewReservation{UserId: rivalUser.Id, RoomId: 1, SeatRow: 2, SeatColumn: 2, ReservationDate: model.FormatDate(date)})
	require.NoError(t, err)

	s := booking.NewSession(1)
	require.NoError(t, s.Load(ctx, client))
	req, err := s.SelectDate(date)
	require.NoError(t, err)
	reservations, err := booking.FetchAvailability(ctx, client, req)
	require.True(t, s.ApplyAvailability(req, reservations, err))
	assert.Equal(t, 23, s.AvailableSeats())

	require.True(t, s.Toggle(model.Seat{Row: 1, Column: 2}))
	require.True(t, s.Toggle(model.Seat{Row: 3, Column: 3}))
	submit, err := s.BeginSubmit(user.Id)
	require.NoError(t, err)
	s.ApplySubmit(booking.Submit(ctx, client, submit, nil))

	require.Equal(t, booking.PhaseSucceeded, s.Phase(), "err: %v", s.Err())
	confirmation, _ := s.Confirmation()
	assert.Equal(t, []string{"1-2", "3-3"}, confirmation.Seats)
	assert.InDelta(t, 20.0, confirmation.TotalPrice, 1e-9)

	after, err := client.GetReservations(ctx, 1, date)
	require.NoError(t, err)
	assert.Len(t, after, 4)
}

func TestBookingSession_ConflictRollsBack(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	client, session := loggedInClient(t, ts.URL, "demo", "demo123")
	user, _ := session.CurrentUser()
	date := model.TruncateDate(time.Now()).AddDate(0, 0, 2)

	s := booking.NewSession(1)
	require.NoError(t, s.Load(ctx, client))
	req, err := s.SelectDate(date)
	require.NoError(t, err)
	reservations, err := booking.FetchAvailability(ctx, client, req)
	s.ApplyAvailability(req, reservations, err)
	s.Toggle(model.Seat{Row: 4, Column: 1})
	s.Toggle(model.Seat{Row: 4, Column: 2})
	s.Toggle(model.Seat{Row: 4, Column: 3})

	rival, rivalSession := loggedInClient(t, ts.URL, "admin", "admin123")
	rivalUser, _ := rivalSession.CurrentUser()
	_, err = rival.CreateReservation(ctx, model.NewReservation{UserId: rivalUser.Id, RoomId: 1, SeatRow: 4, SeatColumn: 2, ReservationDate: model.FormatDate(date)})
	require.NoError(t, err)

	submit, err := s.BeginSubmit(user.Id)
	require.NoError(t, err)
	s.ApplySubmit(booking.Submit(ctx, client, submit, nil))

	assert.Equal(t, booking.PhaseFailed, s.Phase())
	assert.True(t, booking.IsKind(s.Err(), booking.KindConflict))
	assert.Empty(t, s.Err().Unreverted)

	left, err := client.GetReservations(ctx, 1, date)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, rivalUser.Id, left[0].UserId)
}
