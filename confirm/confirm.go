// Package confirm turns a finished booking into what the confirmation screen
// prints: a summary and a QR code carrying the same data.
package confirm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/payment"
)

const notSpecified = "Not specified"

type Summary struct {
	Movie      string
	Room       string
	Date       string
	ShowTime   string
	Seats      []string
	Total      float64
	Reference  string
	MaskedCard string
}

// qrPayload keeps the field names ticket scanners already read.
type qrPayload struct {
	Movie     string   `json:"pelicula"`
	Room      string   `json:"sala"`
	Date      string   `json:"fecha"`
	ShowTime  string   `json:"horario"`
	Seats     []string `json:"asientos"`
	Total     string   `json:"total"`
	Reference string   `json:"referencia,omitempty"`
}

// New builds the summary. A zero receipt leaves the payment lines empty.
func New(c booking.Confirmation, receipt payment.Receipt) Summary {
	s := Summary{
		Movie:      orDefault(c.Room.MovieName),
		Room:       orDefault(c.Room.Name),
		Date:       FormatDate(c.Date),
		ShowTime:   FormatShowTime(c.Room.Hour),
		Seats:      append([]string(nil), c.Seats...),
		Total:      c.TotalPrice,
		MaskedCard: receipt.MaskedCard,
	}
	if receipt.Reference != uuid.Nil {
		s.Reference = receipt.Reference.String()
	}
	return s
}

// FormatDate renders a date as "2 January 2006".
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return notSpecified
	}
	return d.Format("2 January 2006")
}

// FormatShowTime turns "19:30" or "19:30:00" into "7:30 PM". Anything it
// cannot read is returned unchanged.
func FormatShowTime(hour string) string {
	hour = strings.TrimSpace(hour)
	if hour == "" {
		return notSpecified
	}
	parts := strings.Split(hour, ":")
	if len(parts) < 2 {
		return hour
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return hour
	}
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, parts[1], period)
}

// TotalText is the total as shown everywhere, e.g. "$20.00".
func (s Summary) TotalText() string {
	return fmt.Sprintf("$%.2f", s.Total)
}

// QRText is the indented JSON encoded in the QR code.
func (s Summary) QRText() (string, error) {
	payload := qrPayload{
		Movie:     s.Movie,
		Room:      s.Room,
		Date:      s.Date,
		ShowTime:  s.ShowTime,
		Seats:     s.Seats,
		Total:     s.TotalText(),
		Reference: s.Reference,
	}
	if payload.Seats == nil {
		payload.Seats = []string{}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}
	return string(data), nil
}

// RenderQR draws the QR code with half-block characters for a terminal.
func (s Summary) RenderQR() (string, error) {
	text, err := s.QRText()
	if err != nil {
		return "", err
	}
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("build qr code: %w", err)
	}
	return code.ToSmallString(false), nil
}

// Lines is the summary as label/value rows.
func (s Summary) Lines() [][2]string {
	rows := [][2]string{
		{"Movie", s.Movie},
		{"Room", s.Room},
		{"Date", s.Date},
		{"Show time", s.ShowTime},
		{"Seats", strings.Join(s.Seats, ", ")},
		{"Total", s.TotalText()},
	}
	if s.MaskedCard != "" {
		rows = append(rows, [2]string{"Card", s.MaskedCard})
	}
	if s.Reference != "" {
		rows = append(rows, [2]string{"Reference", s.Reference})
	}
	return rows
}

func orDefault(value string) string {
	if strings.TrimSpace(value) == "" {
		return notSpecified
	}
	return value
}
