// Package payment simulates card payment for a booking. Nothing leaves the
// process: Authorize validates the form and issues a local receipt.
package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Form is what the payment screen collects.
type Form struct {
	Name       string
	CardNumber string
	Expiry     string // MM/YY
	CVV        string
}

// ValidationError names the first form field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var ErrInvalidAmount = errors.New("payment amount must not be negative")

type Receipt struct {
	Reference    uuid.UUID
	MaskedCard   string
	Amount       float64
	AuthorizedAt time.Time
}

// Validate checks the form against the current month.
func (f Form) Validate() error {
	return f.ValidateAt(time.Now())
}

// ValidateAt checks, in order: every field present, a 16 digit card number,
// an MM/YY expiry not before now's month, and a 3 digit CVV.
func (f Form) ValidateAt(now time.Time) error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.CardNumber) == "" ||
		strings.TrimSpace(f.Expiry) == "" || strings.TrimSpace(f.CVV) == "" {
		return &ValidationError{Field: firstMissing(f), Message: "Please fill in every field of the payment form."}
	}
	if card := normalizeCard(f.CardNumber); len(card) != 16 || !allDigits(card) {
		return &ValidationError{Field: "card_number", Message: "Please enter a valid card number (16 digits)."}
	}
	if !validExpiry(strings.TrimSpace(f.Expiry), now) {
		return &ValidationError{Field: "expiry", Message: "Please enter a valid expiry date (MM/YY)."}
	}
	if cvv := strings.TrimSpace(f.CVV); len(cvv) != 3 || !allDigits(cvv) {
		return &ValidationError{Field: "cvv", Message: "Please enter a valid CVV (3 digits)."}
	}
	return nil
}

// Authorize validates form and returns a receipt for amount. A free booking
// still gets a receipt, for $0.00.
func Authorize(form Form, amount float64) (Receipt, error) {
	return authorizeAt(form, amount, time.Now())
}

func authorizeAt(form Form, amount float64, now time.Time) (Receipt, error) {
	if err := form.ValidateAt(now); err != nil {
		return Receipt{}, err
	}
	if amount < 0 {
		return Receipt{}, ErrInvalidAmount
	}
	return Receipt{
		Reference:    uuid.New(),
		MaskedCard:   MaskCard(form.CardNumber),
		Amount:       amount,
		AuthorizedAt: now,
	}, nil
}

// MaskCard keeps the last four digits of a card number.
func MaskCard(number string) string {
	card := normalizeCard(number)
	if len(card) < 4 {
		return strings.Repeat("*", len(card))
	}
	return fmt.Sprintf("**** **** **** %s", card[len(card)-4:])
}

func firstMissing(f Form) string {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return "name"
	case strings.TrimSpace(f.CardNumber) == "":
		return "card_number"
	case strings.TrimSpace(f.Expiry) == "":
		return "expiry"
	default:
		return "cvv"
	}
}

func normalizeCard(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(number))
}

func allDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func validExpiry(value string, now time.Time) bool {
	month, year, ok := strings.Cut(value, "/")
	if !ok || len(month) != 2 || len(year) != 2 || !allDigits(month) || !allDigits(year) {
		return false
	}
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if m < 1 || m > 12 {
		return false
	}
	y += 2000
	return y > now.Year() || (y == now.Year() && m >= int(now.Month()))
}
