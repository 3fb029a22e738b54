package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
)

// Kind separates failures by what the user can do about them.
type Kind int

const (
	// KindValidation failures are local and immediately correctable; no request was sent.
	KindValidation Kind = iota
	// KindConflict means the API refused a seat, usually because someone else booked it first.
	KindConflict
	// KindTransport covers network failures and 5xx responses.
	KindTransport
	// KindAuth means the token is missing or expired; front ends send the user to log in.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

const (
	msgNoDate           = "Please select a valid date."
	msgDateOutOfRange   = "Select a date within the next 8 days."
	msgNoSeats          = "Please select at least one seat."
	msgAvailabilityBusy = "Seat availability is still loading."
	msgAvailabilityDown = "Seat availability could not be loaded. Retry before booking."
	msgNotReady         = "The room is not ready yet."
	msgLogin            = "Please log in to continue."
	msgConflict         = "Some seats are already reserved. Please select different seats."
	msgTransport        = "Server error. Please try again later."
)

type Error struct {
	Kind    Kind
	Message string
	Seat    *model.Seat
	// Unreverted lists seats booked during a failed submission whose
	// cancellation also failed.
	Unreverted []model.Seat
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a booking error of the given kind.
func IsKind(err error, kind Kind) bool {
	var bookingErr *Error
	return errors.As(err, &bookingErr) && bookingErr != nil && bookingErr.Kind == kind
}

func validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// classifySubmit maps a reservation write failure onto the error taxonomy.
// Any 4xx other than auth is a conflict.
func classifySubmit(err error, seat model.Seat) *Error {
	var bookingErr *Error
	if errors.As(err, &bookingErr) {
		return bookingErr
	}
	out := &Error{Kind: KindTransport, Message: msgTransport, Seat: &seat, Err: err}
	var apiErr *service.APIError
	switch {
	case service.IsUnauthorized(err):
		out.Kind = KindAuth
		out.Message = msgLogin
	case errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError:
		out.Kind = KindConflict
		out.Message = msgConflict
		if apiErr.Message != "" {
			out.Message = fmt.Sprintf("Seat %s: %s. Please select different seats.", seat.Label(), apiErr.Message)
		}
	}
	return out
}

// classifyFetch maps a read failure onto the error taxonomy.
func classifyFetch(err error, what string) *Error {
	var bookingErr *Error
	if errors.As(err, &bookingErr) {
		return bookingErr
	}
	out := &Error{Kind: KindTransport, Message: fmt.Sprintf("Could not load %s. Please try again later.", what), Err: err}
	switch {
	case service.IsUnauthorized(err):
		out.Kind = KindAuth
		out.Message = msgLogin
	case service.IsNotFound(err):
		out.Message = fmt.Sprintf("The %s was not found.", what)
	case errors.Is(err, context.Canceled):
		out.Message = fmt.Sprintf("Loading %s was cancelled.", what)
	}
	return out
}

var errMissingID = errors.New("reservation id missing from api response")
