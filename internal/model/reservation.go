package model

import "time"

// Reservation groups the tickets a user bought in one request.  CreatedAt
// is set once when the reservation is created and never changes.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who made the reservation.
//  CreatedAt – creation timestamp (UTC).
//  Tickets   – tickets owned by the reservation.
type Reservation struct {
	ID        uint64    `json:"id"`         // reservations.id
	UserID    uint64    `json:"-"`          // reservations.user_id
	CreatedAt time.Time `json:"created_at"` // reservations.created_at
	Tickets   []Ticket  `json:"tickets"`
}

// Ticket is a single claimed seat for one performance.  Row and Seat are
// 1-indexed and the (PerformanceID, Row, Seat) triple is unique.
type Ticket struct {
	ID            uint64 `json:"id"`                    // tickets.id
	Row           int    `json:"row"`                   // tickets.row_no
	Seat          int    `json:"seat"`                  // tickets.seat_no
	PerformanceID uint64 `json:"performance"`           // tickets.performance_id
	ReservationID uint64 `json:"reservation,omitempty"` // tickets.reservation_id
}

// ReservationListItem is a reservation in the owner's listing, with each
// ticket's performance expanded.
type ReservationListItem struct {
	ID        uint64           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Tickets   []TicketListItem `json:"tickets"`
}

// TicketListItem is a ticket with its performance listing nested.
type TicketListItem struct {
	ID          uint64              `json:"id"`
	Row         int                 `json:"row"`
	Seat        int                 `json:"seat"`
	Performance PerformanceListItem `json:"performance"`
}
