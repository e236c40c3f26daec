package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/seating"
)

// TicketRepo stores tickets.  The UNIQUE(performance_id, row_no, seat_no)
// index is what finally decides which of two concurrent writers gets a
// seat; a duplicate-key error is reported as *seating.TakenError.
type TicketRepo struct{ db *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

var ticketRefs = map[string]string{
	"fk_tickets_performance": "performance",
	"fk_tickets_reservation": "reservation",
}

const ticketColumns = `id, row_no, seat_no, performance_id, reservation_id`

func scanTicket(s interface{ Scan(...any) error }, t *model.Ticket) error {
	return s.Scan(&t.ID, &t.Row, &t.Seat, &t.PerformanceID, &t.ReservationID)
}

func (r *TicketRepo) List(ctx context.Context) ([]model.Ticket, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (model.Ticket, error) {
	var t model.Ticket
	err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id), &t)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, &NotFoundError{Resource: "ticket", ID: id}
	}
	return t, err
}

// SeatTaken reports whether another ticket already holds the seat.
// excludeID skips the ticket being updated; pass 0 on create.
func (r *TicketRepo) SeatTaken(ctx context.Context, performanceID uint64, row, seat int, excludeID uint64) (bool, error) {
	var taken bool
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS(
		SELECT 1 FROM tickets WHERE performance_id = ? AND row_no = ? AND seat_no = ? AND id <> ?)`,
		performanceID, row, seat, excludeID).Scan(&taken)
	return taken, err
}

// Create inserts t and sets its ID.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO tickets (row_no, seat_no, performance_id, reservation_id) VALUES (?, ?, ?, ?)`,
		t.Row, t.Seat, t.PerformanceID, t.ReservationID)
	if err != nil {
		return ticketWriteError(err, *t)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update moves an existing ticket to another seat, performance or
// reservation.
func (r *TicketRepo) Update(ctx context.Context, t model.Ticket) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tickets SET row_no = ?, seat_no = ?, performance_id = ?, reservation_id = ? WHERE id = ?`,
		t.Row, t.Seat, t.PerformanceID, t.ReservationID, t.ID)
	if err != nil {
		return ticketWriteError(err, t)
	}
	return expectAffected(res, "ticket", t.ID)
}

func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "ticket", id)
}

func ticketWriteError(err error, t model.Ticket) error {
	if isDuplicateKey(err) {
		return &seating.TakenError{PerformanceID: t.PerformanceID, Row: t.Row, Seat: t.Seat}
	}
	return classify(err, referenceField(err, ticketRefs, "ticket"))
}
