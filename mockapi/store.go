package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"cinema-booking-cli/model"
)

var (
	errUserExists    = errors.New("username or email already registered")
	errBadLogin      = errors.New("invalid username or password")
	errRoomNotFound  = errors.New("room not found")
	errSeatOutside   = errors.New("seat is outside the room")
	errSeatTaken     = errors.New("seat already reserved for that date")
	errNotFound      = errors.New("reservation not found")
	errNotOwner      = errors.New("reservation belongs to another user")
	errMissingFields = errors.New("missing required fields")
)

type account struct {
	user model.User
	hash []byte
}

type seatKey struct {
	room int
	date string
	seat model.Seat
}

// data is the in-memory database behind the server. Seat uniqueness is
// checked and claimed under one lock, so the first writer of a seat wins.
type data struct {
	mu           sync.RWMutex
	bcryptCost   int
	rooms        []model.Room
	accounts     []account
	reservations map[int]model.Reservation
	taken        map[seatKey]int
	nextUser     int
	nextRes      int
}

func newData(bcryptCost int) *data {
	return &data{
		bcryptCost:   bcryptCost,
		reservations: make(map[int]model.Reservation),
		taken:        make(map[seatKey]int),
		nextUser:     1,
		nextRes:      1,
	}
}

func (d *data) addRoom(room model.Room) model.Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	room.Id = len(d.rooms) + 1
	d.rooms = append(d.rooms, room)
	return room
}

func (d *data) listRooms() []model.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}

func (d *data) room(id int) (model.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roomLocked(id)
}

func (d *data) roomLocked(id int) (model.Room, error) {
	if id < 1 || id > len(d.rooms) {
		return model.Room{}, errRoomNotFound
	}
	return d.rooms[id-1], nil
}

func (d *data) register(username, email, password, role string) (model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return model.User{}, errMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, a := range d.accounts {
		if strings.EqualFold(a.user.Username, username) || a.user.Email == email {
			return model.User{}, errUserExists
		}
	}
	user := model.User{Id: d.nextUser, Username: username, Email: email, Role: role}
	d.nextUser++
	d.accounts = append(d.accounts, account{user: user, hash: hash})
	return user, nil
}

func (d *data) authenticate(username, password string) (model.User, error) {
	d.mu.RLock()
	var found *account
	for i := range d.accounts {
		if strings.EqualFold(d.accounts[i].user.Username, strings.TrimSpace(username)) {
			found = &d.accounts[i]
			break
		}
	}
	d.mu.RUnlock()
	if found == nil {
		return model.User{}, errBadLogin
	}
	if bcrypt.CompareHashAndPassword(found.hash, []byte(password)) != nil {
		return model.User{}, errBadLogin
	}
	return found.user, nil
}

func (d *data) listReservations(roomID int, date string) []model.Reservation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Reservation, 0)
	for _, r := range d.reservations {
		if roomID > 0 && r.RoomId != roomID {
			continue
		}
		if date != "" && r.ReservationDate != date {
			continue
		}
		out = append(out, r)
	}
	sortReservations(out)
	return out
}

func (d *data) reserve(in model.NewReservation) (model.Reservation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, err := d.roomLocked(in.RoomId)
	if err != nil {
		return model.Reservation{}, err
	}
	seat := model.Seat{Row: in.SeatRow, Column: in.SeatColumn}
	if !room.Contains(seat) {
		return model.Reservation{}, errSeatOutside
	}
	key := seatKey{room: in.RoomId, date: in.ReservationDate, seat: seat}
	if _, taken := d.taken[key]; taken {
		return model.Reservation{}, errSeatTaken
	}
	r := model.Reservation{
		Id:              d.nextRes,
		UserId:          in.UserId,
		RoomId:          in.RoomId,
		SeatRow:         in.SeatRow,
		SeatColumn:      in.SeatColumn,
		ReservationDate: in.ReservationDate,
	}
	d.nextRes++
	d.reservations[r.Id] = r
	d.taken[key] = r.Id
	return r, nil
}

func (d *data) cancel(id int, caller model.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.reservations[id]
	if !ok {
		return errNotFound
	}
	if r.UserId != caller.Id && !caller.IsAdmin() {
		return errNotOwner
	}
	delete(d.reservations, id)
	delete(d.taken, seatKey{room: r.RoomId, date: r.ReservationDate, seat: r.Seat()})
	return nil
}

func sortReservations(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Id < rs[j].Id })
}
