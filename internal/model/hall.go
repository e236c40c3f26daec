package model

import "encoding/json"

// Hall represents a theatre hall with a fixed seating grid of Rows rows
// and SeatsInRow seats per row.  Both dimensions are positive.  The
// struct corresponds to a row in the `theatre_halls` table.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the hall.
//  Rows       – number of seating rows (theatre_halls.rows_count).
//  SeatsInRow – number of seats in each row.
type Hall struct {
	ID         uint64 `json:"id"`           // theatre_halls.id
	Name       string `json:"name"`         // theatre_halls.name
	Rows       int    `json:"rows"`         // theatre_halls.rows_count
	SeatsInRow int    `json:"seats_in_row"` // theatre_halls.seats_in_row
}

// Capacity is the total number of seats in the hall.  It is derived on
// every call and never stored.
func (h Hall) Capacity() int {
	return h.Rows * h.SeatsInRow
}

// MarshalJSON adds the derived capacity to the hall's JSON form.
func (h Hall) MarshalJSON() ([]byte, error) {
	type plain Hall
	return json.Marshal(struct {
		plain
		Capacity int `json:"capacity"`
	}{plain(h), h.Capacity()})
}
