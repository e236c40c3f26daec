// Package seating holds the seat rules shared by every write path that
// creates or changes a ticket: grid bounds checking against a hall and
// the derived availability of a performance.
package seating

import (
	"fmt"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// OutOfRangeError reports a row or seat outside the hall's grid.  Field
// is "row" or "seat"; the valid range is [1, Max].
type OutOfRangeError struct {
	Field string
	Value int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s number must be in available range: (1, %d), got %d", e.Field, e.Max, e.Value)
}

// TakenError reports a seat that already has a ticket for the performance.
type TakenError struct {
	PerformanceID uint64
	Row           int
	Seat          int
}

func (e *TakenError) Error() string {
	return fmt.Sprintf("seat row %d seat %d is already taken for performance %d", e.Row, e.Seat, e.PerformanceID)
}

// Validate checks (row, seat) against the hall's grid.  Rows are checked
// before seats so a ticket outside both bounds reports the row.
func Validate(row, seat int, hall model.Hall) error {
	if row < 1 || row > hall.Rows {
		return &OutOfRangeError{Field: "row", Value: row, Max: hall.Rows}
	}
	if seat < 1 || seat > hall.SeatsInRow {
		return &OutOfRangeError{Field: "seat", Value: seat, Max: hall.SeatsInRow}
	}
	return nil
}

// Available returns the number of unsold seats for a performance in hall
// given the count of tickets already sold.  It is not clamped: a negative
// value means tickets outside the hall's current grid exist, for example
// after a performance moved to a smaller hall.
func Available(hall model.Hall, sold int) int {
	return hall.Capacity() - sold
}

// Key identifies one seat of one performance.
type Key struct {
	PerformanceID uint64
	Row           int
	Seat          int
}

// Claims tracks seats requested within a single batch.
type Claims map[Key]struct{}

// Claim records k and returns a *TakenError if k was already claimed.
func (c Claims) Claim(k Key) error {
	if _, dup := c[k]; dup {
		return &TakenError{PerformanceID: k.PerformanceID, Row: k.Row, Seat: k.Seat}
	}
	c[k] = struct{}{}
	return nil
}
