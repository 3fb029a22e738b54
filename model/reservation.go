package model

import (
	"fmt"
	"strings"
	"time"
)

type Reservation struct {
	Id              int    `json:"id"`
	UserId          int    `json:"user_id"`
	RoomId          int    `json:"room_id"`
	SeatRow         int    `json:"seat_row"`
	SeatColumn      int    `json:"seat_column"`
	ReservationDate string `json:"reservation_date"`
}

func (r Reservation) Seat() Seat {
	return Seat{Row: r.SeatRow, Column: r.SeatColumn}
}

type NewReservation struct {
	UserId          int    `json:"user_id"`
	RoomId          int    `json:"room_id"`
	SeatRow         int    `json:"seat_row"`
	SeatColumn      int    `json:"seat_column"`
	ReservationDate string `json:"reservation_date"`
}

// FormatDate renders the canonical wire form of a reservation date.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseDate accepts either a bare date or an RFC3339 timestamp and returns
// the calendar date at local midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.ParseInLocation(time.DateOnly, value, time.Local); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return TruncateDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
}

// TruncateDate drops the time of day, keeping the calendar date in local time.
func TruncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
