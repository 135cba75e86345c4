package domain

import (
	"fmt"
	"strings"
)

// SeatAlphabet labels seats across a row. There is no "I".
const SeatAlphabet = "ABCDEFGHJK"

const MaxSeatsInRow = len(SeatAlphabet)

type AirplaneLayout struct {
	Rows       int `json:"rows"`
	SeatsInRow int `json:"seats_in_row"`
}

func (l AirplaneLayout) Capacity() int {
	return l.Rows * l.SeatsInRow
}

// AllowedSeats returns the first SeatsInRow letters of alphabet.
func (l AirplaneLayout) AllowedSeats(alphabet string) []string {
	n := l.SeatsInRow
	if n < 0 {
		n = 0
	}
	if n > len(alphabet) {
		n = len(alphabet)
	}
	seats := make([]string, n)
	for i := 0; i < n; i++ {
		seats[i] = alphabet[i : i+1]
	}
	return seats
}

func (l AirplaneLayout) Validate() error {
	if l.Rows < 1 {
		return fmt.Errorf("%w: rows must be positive, got %d", ErrInvalidAirplane, l.Rows)
	}
	if l.SeatsInRow < 1 || l.SeatsInRow > MaxSeatsInRow {
		return fmt.Errorf("%w: seats_in_row must be in [1, %d], got %d", ErrInvalidAirplane, MaxSeatsInRow, l.SeatsInRow)
	}
	return nil
}

// ValidateSeat checks row and seat against the layout. Both checks always run;
// the returned *SeatError lists every violation.
func ValidateSeat(alphabet string, row int, seat string, layout AirplaneLayout) error {
	var violations []SeatViolation

	allowed := layout.AllowedSeats(alphabet)
	found := false
	for _, s := range allowed {
		if s == seat {
			found = true
			break
		}
	}
	if !found {
		violations = append(violations, SeatViolation{
			Field:   "seat",
			Value:   seat,
			Allowed: "one of [" + strings.Join(allowed, ", ") + "]",
			err:     ErrInvalidSeatLetter,
		})
	}

	if row < 1 || row > layout.Rows {
		violations = append(violations, SeatViolation{
			Field:   "row",
			Value:   row,
			Allowed: fmt.Sprintf("in range [1, %d]", layout.Rows),
			err:     ErrInvalidRow,
		})
	}

	if len(violations) > 0 {
		return &SeatError{Violations: violations}
	}
	return nil
}

type Airplane struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Rows             int    `json:"rows"`
	SeatsInRow       int    `json:"seats_in_row"`
	AirlineCompanyID int64  `json:"airline_company_id"`
	AirlineCompany   string `json:"airline_company"`
}

func (a Airplane) Layout() AirplaneLayout {
	return AirplaneLayout{Rows: a.Rows, SeatsInRow: a.SeatsInRow}
}

func (a Airplane) Capacity() int {
	return a.Layout().Capacity()
}
