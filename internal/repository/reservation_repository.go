package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// ReservationRepo stores reservations.  Tickets are written through
// TicketRepo; both join the caller's transaction through the context.
// Timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts res and sets its ID.  CreatedAt must already be set by
// the caller.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	result, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO reservations (user_id, created_at) VALUES (?, ?)`, res.UserID, res.CreatedAt.UTC())
	if err != nil {
		return classify(err, "user")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// CountByUser returns how many reservations userID owns.
func (r *ReservationRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// ListByUser returns one page of userID's reservations, newest first,
// with every ticket's performance expanded.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.ReservationListItem, error) {
	q := conn(ctx, r.db)
	rows, err := q.QueryContext(ctx, `SELECT id, created_at FROM reservations
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := []model.ReservationListItem{}
	index := map[uint64]int{}
	var ids []uint64
	for rows.Next() {
		var it model.ReservationListItem
		if err := rows.Scan(&it.ID, &it.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		it.CreatedAt = it.CreatedAt.UTC()
		it.Tickets = []model.TicketListItem{}
		index[it.ID] = len(out)
		ids = append(ids, it.ID)
		out = append(out, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	rows, err = q.QueryContext(ctx, `SELECT t.reservation_id, t.id, t.row_no, t.seat_no,
			pf.id, pf.show_time, pl.title, h.name, h.rows_count, h.seats_in_row,
			(SELECT COUNT(*) FROM tickets s WHERE s.performance_id = pf.id)
		FROM tickets t
		JOIN performances pf ON pf.id = t.performance_id
		JOIN plays pl ON pl.id = pf.play_id
		JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		WHERE t.reservation_id IN (`+placeholders(len(ids))+`)
		ORDER BY t.reservation_id, t.id`, uint64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			resID uint64
			tk    model.TicketListItem
		)
		perf, err := scanPerformanceListItem(rows, &resID, &tk.ID, &tk.Row, &tk.Seat)
		if err != nil {
			return nil, err
		}
		tk.Performance = perf
		i := index[resID]
		out[i].Tickets = append(out[i].Tickets, tk)
	}
	return out, rows.Err()
}
