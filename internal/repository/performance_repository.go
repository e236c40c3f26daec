package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/theatre-booking/internal/model"
	"github.com/iliyamo/theatre-booking/internal/seating"
)

// PerformanceFilter narrows List.  Day, when set, selects performances
// whose show time falls on that UTC calendar day.  PlayID zero means any
// play.
type PerformanceFilter struct {
	Day    *time.Time
	PlayID uint64
}

// PerformanceRepo stores performances and derives their availability from
// the tickets sold against them.
type PerformanceRepo struct{ db *sql.DB }

func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

var performanceRefs = map[string]string{
	"fk_performances_play": "play",
	"fk_performances_hall": "theatre_hall",
}

// List returns performances matching f ordered by show time.  The sold
// count comes from the same query, so availability reflects the moment of
// the read.
func (r *PerformanceRepo) List(ctx context.Context, f PerformanceFilter) ([]model.PerformanceListItem, error) {
	where := []string{}
	args := []any{}
	if f.Day != nil {
		start := time.Date(f.Day.Year(), f.Day.Month(), f.Day.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "pf.show_time >= ? AND pf.show_time < ?")
		args = append(args, start, start.AddDate(0, 0, 1))
	}
	if f.PlayID != 0 {
		where = append(where, "pf.play_id = ?")
		args = append(args, f.PlayID)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT pf.id, pf.show_time, pl.title, h.name, h.rows_count, h.seats_in_row, COUNT(t.id)
		FROM performances pf
		JOIN plays pl ON pl.id = pf.play_id
		JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		LEFT JOIN tickets t ON t.performance_id = pf.id
		WHERE `+cond+`
		GROUP BY pf.id, pf.show_time, pl.title, h.name, h.rows_count, h.seats_in_row
		ORDER BY pf.show_time, pf.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PerformanceListItem{}
	for rows.Next() {
		it, err := scanPerformanceListItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// scanPerformanceListItem reads id, show_time, play title, hall name, hall
// rows, hall seats_in_row and sold count, in that order.
func scanPerformanceListItem(s interface{ Scan(...any) error }, extra ...any) (model.PerformanceListItem, error) {
	var (
		it   model.PerformanceListItem
		hall model.Hall
		sold int
	)
	dest := append(extra, &it.ID, &it.ShowTime, &it.PlayTitle, &hall.Name, &hall.Rows, &hall.SeatsInRow, &sold)
	if err := s.Scan(dest...); err != nil {
		return model.PerformanceListItem{}, err
	}
	it.ShowTime = it.ShowTime.UTC()
	it.HallName = hall.Name
	it.HallCapacity = hall.Capacity()
	it.TicketsAvailable = seating.Available(hall, sold)
	return it, nil
}

// Get returns a performance with its play, hall and taken places.
func (r *PerformanceRepo) Get(ctx context.Context, id uint64) (model.PerformanceDetail, error) {
	q := conn(ctx, r.db)
	var (
		d      model.PerformanceDetail
		playID uint64
	)
	err := q.QueryRowContext(ctx, `SELECT pf.id, pf.show_time, pf.play_id, h.id, h.name, h.rows_count, h.seats_in_row
		FROM performances pf JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		WHERE pf.id = ?`, id).
		Scan(&d.ID, &d.ShowTime, &playID, &d.Hall.ID, &d.Hall.Name, &d.Hall.Rows, &d.Hall.SeatsInRow)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PerformanceDetail{}, &NotFoundError{Resource: "performance", ID: id}
	}
	if err != nil {
		return model.PerformanceDetail{}, err
	}
	d.ShowTime = d.ShowTime.UTC()

	plays := PlayRepo{db: r.db}
	if d.Play, err = plays.listItem(ctx, q, playID); err != nil {
		return model.PerformanceDetail{}, err
	}
	if d.TakenPlaces, err = takenPlaces(ctx, q, id); err != nil {
		return model.PerformanceDetail{}, err
	}
	d.TicketsAvailable = seating.Available(d.Hall, len(d.TakenPlaces))
	return d, nil
}

// GetByID returns the stored form of a performance.
func (r *PerformanceRepo) GetByID(ctx context.Context, id uint64) (model.Performance, error) {
	var p model.Performance
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, play_id, theatre_hall_id, show_time FROM performances WHERE id = ?`, id).
		Scan(&p.ID, &p.PlayID, &p.HallID, &p.ShowTime)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Performance{}, &NotFoundError{Resource: "performance", ID: id}
	}
	p.ShowTime = p.ShowTime.UTC()
	return p, err
}

// HallFor returns the hall a performance takes place in.  Inside a
// transaction it reads through that transaction.
func (r *PerformanceRepo) HallFor(ctx context.Context, performanceID uint64) (model.Hall, error) {
	var h model.Hall
	err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT h.id, h.name, h.rows_count, h.seats_in_row
		FROM performances pf JOIN theatre_halls h ON h.id = pf.theatre_hall_id
		WHERE pf.id = ?`, performanceID).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hall{}, &NotFoundError{Resource: "performance", ID: performanceID}
	}
	return h, err
}

// Create inserts p and sets its ID.  Unknown play or hall ids yield a
// *ReferenceError naming the field.
func (r *PerformanceRepo) Create(ctx context.Context, p *model.Performance) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO performances (play_id, theatre_hall_id, show_time) VALUES (?, ?, ?)`,
		p.PlayID, p.HallID, p.ShowTime.UTC())
	if err != nil {
		return classify(err, referenceField(err, performanceRefs, "performance"))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PerformanceRepo) Update(ctx context.Context, p model.Performance) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE performances SET play_id = ?, theatre_hall_id = ?, show_time = ? WHERE id = ?`,
		p.PlayID, p.HallID, p.ShowTime.UTC(), p.ID)
	if err != nil {
		return classify(err, referenceField(err, performanceRefs, "performance"))
	}
	return expectAffected(res, "performance", p.ID)
}

// Delete removes a performance and, through the cascade, its tickets.
func (r *PerformanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM performances WHERE id = ?`, id)
	if err != nil {
		return classify(err, "")
	}
	return expectAffected(res, "performance", id)
}

func takenPlaces(ctx context.Context, q queryer, performanceID uint64) ([]model.Place, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT row_no, seat_no FROM tickets WHERE performance_id = ? ORDER BY row_no, seat_no`, performanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Place{}
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.Row, &p.Seat); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
