package handler

import (
	"context"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/repository"
	"github.com/iliyamo/theatre-booking/internal/service"
)

// The interfaces below are the persistence each handler needs.  The
// repository types satisfy them; tests use in-memory fakes.

type HallStore interface {
	List(ctx context.Context) ([]model.Hall, error)
	GetByID(ctx context.Context, id uint64) (model.Hall, error)
	Create(ctx context.Context, h *model.Hall) error
	Update(ctx context.Context, h model.Hall) error
	Delete(ctx context.Context, id uint64) error
}

type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint64) (model.Genre, error)
	Create(ctx context.Context, g *model.Genre) error
	Update(ctx context.Context, g model.Genre) error
	Delete(ctx context.Context, id uint64) error
}

type ActorStore interface {
	List(ctx context.Context) ([]model.Actor, error)
	GetByID(ctx context.Context, id uint64) (model.Actor, error)
	Create(ctx context.Context, a *model.Actor) error
	Update(ctx context.Context, a model.Actor) error
	Delete(ctx context.Context, id uint64) error
}

type PlayStore interface {
	List(ctx context.Context, f repository.PlayFilter) ([]model.PlayListItem, error)
	Get(ctx context.Context, id uint64) (model.PlayDetail, error)
	GetByID(ctx context.Context, id uint64) (model.Play, error)
	Create(ctx context.Context, p *model.Play) error
	Update(ctx context.Context, p model.Play) error
	SetImage(ctx context.Context, id uint64, path string) error
	Delete(ctx context.Context, id uint64) error
}

type PerformanceStore interface {
	List(ctx context.Context, f repository.PerformanceFilter) ([]model.PerformanceListItem, error)
	Get(ctx context.Context, id uint64) (model.PerformanceDetail, error)
	GetByID(ctx context.Context, id uint64) (model.Performance, error)
	Create(ctx context.Context, p *model.Performance) error
	Update(ctx context.Context, p model.Performance) error
	Delete(ctx context.Context, id uint64) error
}

type TicketStore interface {
	List(ctx context.Context) ([]model.Ticket, error)
	GetByID(ctx context.Context, id uint64) (model.Ticket, error)
	Delete(ctx context.Context, id uint64) error
}

// TicketWriter creates and updates tickets under the seat rules.
type TicketWriter interface {
	Create(ctx context.Context, t *model.Ticket) error
	Update(ctx context.Context, t model.Ticket) error
}

// Reservations creates and lists the caller's reservations.
type Reservations interface {
	Create(ctx context.Context, userID uint64, reqs []service.TicketRequest) (model.Reservation, error)
	List(ctx context.Context, userID uint64, limit, offset int) ([]model.ReservationListItem, int, error)
}

// compile-time checks that the MySQL repositories and services fit.
var (
	_ HallStore        = (*repository.HallRepo)(nil)
	_ GenreStore       = (*repository.GenreRepo)(nil)
	_ ActorStore       = (*repository.ActorRepo)(nil)
	_ PlayStore        = (*repository.PlayRepo)(nil)
	_ PerformanceStore = (*repository.PerformanceRepo)(nil)
	_ TicketStore      = (*repository.TicketRepo)(nil)
	_ TicketWriter     = (*service.TicketService)(nil)
	_ Reservations     = (*service.ReservationService)(nil)
)
