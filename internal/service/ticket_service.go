package service

import (
	"context"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/seating"
)

// TicketWriter extends TicketStore with the admin-only operations.
type TicketWriter interface {
	TicketStore
	Update(ctx context.Context, t model.Ticket) error
}

// TicketService applies the seat rules to standalone ticket writes.
type TicketService struct {
	tx      Transactor
	halls   HallLookup
	tickets TicketWriter
}

func NewTicketService(tx Transactor, halls HallLookup, tickets TicketWriter) *TicketService {
	return &TicketService{tx: tx, halls: halls, tickets: tickets}
}

// Create validates t against its performance's hall and stores it.
func (s *TicketService) Create(ctx context.Context, t *model.Ticket) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.check(ctx, *t); err != nil {
			return err
		}
		return s.tickets.Create(ctx, t)
	})
}

// Update validates the new seat of t and stores it.
func (s *TicketService) Update(ctx context.Context, t model.Ticket) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.check(ctx, t); err != nil {
			return err
		}
		return s.tickets.Update(ctx, t)
	})
}

func (s *TicketService) check(ctx context.Context, t model.Ticket) error {
	hall, err := s.halls.HallFor(ctx, t.PerformanceID)
	if err != nil {
		return err
	}
	if err := seating.Validate(t.Row, t.Seat, hall); err != nil {
		return err
	}
	taken, err := s.tickets.SeatTaken(ctx, t.PerformanceID, t.Row, t.Seat, t.ID)
	if err != nil {
		return err
	}
	if taken {
		return &seating.TakenError{PerformanceID: t.PerformanceID, Row: t.Row, Seat: t.Seat}
	}
	return nil
}
