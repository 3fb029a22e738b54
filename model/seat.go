package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Seat is a 1-based (row, column) coordinate inside a room grid.
type Seat struct {
	Row    int
	Column int
}

// Label renders the seat as "row-column", e.g. "1-2".
func (s Seat) Label() string {
	return fmt.Sprintf("%d-%d", s.Row, s.Column)
}

func (s Seat) String() string {
	return s.Label()
}

// ParseSeat parses a "row-column" label.
func ParseSeat(label string) (Seat, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return Seat{}, fmt.Errorf("invalid seat %q: expected row-column", label)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Seat{}, fmt.Errorf("invalid seat row %q: %w", parts[0], err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Seat{}, fmt.Errorf("invalid seat column %q: %w", parts[1], err)
	}
	if row < 1 || col < 1 {
		return Seat{}, fmt.Errorf("invalid seat %q: row and column start at 1", label)
	}
	return Seat{Row: row, Column: col}, nil
}

// SeatLabels maps seats to their labels, preserving order.
func SeatLabels(seats []Seat) []string {
	labels := make([]string, 0, len(seats))
	for _, seat := range seats {
		labels = append(labels, seat.Label())
	}
	return labels
}
