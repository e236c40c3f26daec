// Package queue defines the reservation event payload and the brokers it
// travels over.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ReservationCreatedType is the event type carried in every payload.
const ReservationCreatedType = "reservation.created"

// ReservationCreatedEvent is published after a reservation commits.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationCreatedEvent struct {
	EventID       string        `json:"event_id"`
	Type          string        `json:"type"`
	ReservationID uint64        `json:"reservation_id"`
	UserID        uint64        `json:"user_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Tickets       []EventTicket `json:"tickets"`
}

// EventTicket is one seat of the reservation.
type EventTicket struct {
	TicketID      uint64 `json:"ticket_id"`
	PerformanceID uint64 `json:"performance_id"`
	Row           int    `json:"row"`
	Seat          int    `json:"seat"`
}

// NewReservationCreated builds the event for a committed reservation.
func NewReservationCreated(res model.Reservation) ReservationCreatedEvent {
	ev := ReservationCreatedEvent{
		EventID:       uuid.NewString(),
		Type:          ReservationCreatedType,
		ReservationID: res.ID,
		UserID:        res.UserID,
		CreatedAt:     res.CreatedAt.UTC(),
		Tickets:       make([]EventTicket, 0, len(res.Tickets)),
	}
	for _, t := range res.Tickets {
		ev.Tickets = append(ev.Tickets, EventTicket{
			TicketID:      t.ID,
			PerformanceID: t.PerformanceID,
			Row:           t.Row,
			Seat:          t.Seat,
		})
	}
	return ev
}
