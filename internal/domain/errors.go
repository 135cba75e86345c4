package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrInvalidRow        = fmt.Errorf("%w: invalid row", ErrValidation)
	ErrInvalidSeatLetter = fmt.Errorf("%w: invalid seat letter", ErrValidation)
	ErrEmptyOrder        = fmt.Errorf("%w: order must contain at least one ticket", ErrValidation)
	ErrUnknownTimeZone   = fmt.Errorf("%w: unknown time zone", ErrValidation)
	ErrInvalidSchedule   = fmt.Errorf("%w: arrival must be after departure", ErrValidation)
	ErrInvalidAirplane   = fmt.Errorf("%w: invalid airplane geometry", ErrValidation)

	ErrSeatTaken = fmt.Errorf("%w: seat already taken", ErrConflict)

	ErrFlightNotFound   = fmt.Errorf("flight %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrRouteNotFound    = fmt.Errorf("route %w", ErrNotFound)
	ErrAirplaneNotFound = fmt.Errorf("airplane %w", ErrNotFound)
)

// SeatViolation describes one failed seat check.
type SeatViolation struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Allowed string `json:"allowed"`

	err error
}

func (v SeatViolation) Error() string {
	return fmt.Sprintf("%s must be %s, got %v", v.Field, v.Allowed, v.Value)
}

func (v SeatViolation) Unwrap() error { return v.err }

// SeatError collects every violation found for a (row, seat) pair.
type SeatError struct {
	Violations []SeatViolation
}

func (e *SeatError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *SeatError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v.err)
	}
	return errs
}

type SeatTakenError struct {
	FlightID int64
	Row      int
	Seat     string
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %d%s on flight %d is already taken", e.Row, e.Seat, e.FlightID)
}

func (e *SeatTakenError) Unwrap() error { return ErrSeatTaken }

// TicketError tags the position of the failing ticket inside an order request.
type TicketError struct {
	Index int
	Err   error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("tickets[%d]: %v", e.Index, e.Err)
}

func (e *TicketError) Unwrap() error { return e.Err }
