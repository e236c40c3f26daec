// Package service holds the write paths that must enforce seat rules:
// reservation creation and standalone ticket edits.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/iliyamo/theatre-booking/internal/clock"
	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/queue"
	"github.com/iliyamo/theatre-booking/internal/seating"
)

// ErrEmptyReservation is returned when a reservation names no tickets.
var ErrEmptyReservation = errors.New("reservation must contain at least one ticket")

// TicketError attributes a failure to the ticket at Index of the request.
type TicketError struct {
	Index int
	Err   error
}

func (e *TicketError) Error() string { return fmt.Sprintf("ticket %d: %v", e.Index, e.Err) }
func (e *TicketError) Unwrap() error { return e.Err }

// TicketRequest is one requested seat.
type TicketRequest struct {
	Row           int    `json:"row"`
	Seat          int    `json:"seat"`
	PerformanceID uint64 `json:"performance"`
}

// Transactor runs fn in a store transaction joined through ctx.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// HallLookup resolves the hall of a performance.
type HallLookup interface {
	HallFor(ctx context.Context, performanceID uint64) (model.Hall, error)
}

// TicketStore is the ticket persistence used by both services.
type TicketStore interface {
	SeatTaken(ctx context.Context, performanceID uint64, row, seat int, excludeID uint64) (bool, error)
	Create(ctx context.Context, t *model.Ticket) error
}

// ReservationStore persists reservations and lists them per user.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	CountByUser(ctx context.Context, userID uint64) (int, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.ReservationListItem, error)
}

// ReservationService creates reservations atomically: either every
// requested ticket is stored or none is.
type ReservationService struct {
	tx           Transactor
	halls        HallLookup
	tickets      TicketStore
	reservations ReservationStore
	clock        clock.Clock
	publisher    queue.Publisher
}

func NewReservationService(tx Transactor, halls HallLookup, tickets TicketStore, reservations ReservationStore,
	clk clock.Clock, pub queue.Publisher) *ReservationService {
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return &ReservationService{tx: tx, halls: halls, tickets: tickets, reservations: reservations, clock: clk, publisher: pub}
}

// Create stores a reservation for userID holding one ticket per request.
// Tickets in the result follow the order of reqs.
//
// Checks run inside the transaction in this order: every performance must
// exist, every seat must lie inside its hall, and no seat may repeat within
// the batch or already be sold.  A concurrent reservation that wins a seat
// between the check and the insert surfaces as *seating.TakenError from
// the unique index.
func (s *ReservationService) Create(ctx context.Context, userID uint64, reqs []TicketRequest) (model.Reservation, error) {
	if len(reqs) == 0 {
		return model.Reservation{}, ErrEmptyReservation
	}

	var res model.Reservation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		halls := make(map[uint64]model.Hall)
		for _, r := range reqs {
			if _, ok := halls[r.PerformanceID]; ok {
				continue
			}
			h, err := s.halls.HallFor(ctx, r.PerformanceID)
			if err != nil {
				return err
			}
			halls[r.PerformanceID] = h
		}

		for i, r := range reqs {
			if err := seating.Validate(r.Row, r.Seat, halls[r.PerformanceID]); err != nil {
				return &TicketError{Index: i, Err: err}
			}
		}

		claims := seating.Claims{}
		for i, r := range reqs {
			if err := claims.Claim(seating.Key{PerformanceID: r.PerformanceID, Row: r.Row, Seat: r.Seat}); err != nil {
				return &TicketError{Index: i, Err: err}
			}
			taken, err := s.tickets.SeatTaken(ctx, r.PerformanceID, r.Row, r.Seat, 0)
			if err != nil {
				return err
			}
			if taken {
				return &TicketError{Index: i, Err: &seating.TakenError{PerformanceID: r.PerformanceID, Row: r.Row, Seat: r.Seat}}
			}
		}

		res = model.Reservation{UserID: userID, CreatedAt: s.clock.Now()}
		if err := s.reservations.Create(ctx, &res); err != nil {
			return err
		}

		// Insert in seat order so two overlapping batches lock index
		// entries in the same sequence.
		order := make([]int, len(reqs))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return seatLess(reqs[order[a]], reqs[order[b]]) })

		res.Tickets = make([]model.Ticket, len(reqs))
		for _, i := range order {
			r := reqs[i]
			t := model.Ticket{Row: r.Row, Seat: r.Seat, PerformanceID: r.PerformanceID, ReservationID: res.ID}
			if err := s.tickets.Create(ctx, &t); err != nil {
				var taken *seating.TakenError
				if errors.As(err, &taken) {
					return &TicketError{Index: i, Err: err}
				}
				return err
			}
			res.Tickets[i] = t
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}

	s.publish(ctx, res)
	return res, nil
}

func seatLess(a, b TicketRequest) bool {
	if a.PerformanceID != b.PerformanceID {
		return a.PerformanceID < b.PerformanceID
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Seat < b.Seat
}

// publish emits the event after commit.  Failures are logged only; the
// reservation is already durable.
func (s *ReservationService) publish(ctx context.Context, res model.Reservation) {
	ev := queue.NewReservationCreated(res)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Uint64("reservation_id", res.ID).
			Str("event_id", ev.EventID).
			Msg("publish reservation event failed")
	}
}

// List returns one page of userID's reservations and the total count.
func (s *ReservationService) List(ctx context.Context, userID uint64, limit, offset int) ([]model.ReservationListItem, int, error) {
	total, err := s.reservations.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if offset >= total {
		return []model.ReservationListItem{}, total, nil
	}
	items, err := s.reservations.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
