package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// HallRepo provides CRUD access to the theatre_halls table.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = `id, name, rows_count, seats_in_row`

func scanHall(s interface{ Scan(...any) error }, h *model.Hall) error {
	return s.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsInRow)
}

// List returns every hall ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `SELECT `+hallColumns+` FROM theatre_halls ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Hall{}
	for rows.Next() {
		var h model.Hall
		if err := scanHall(rows, &h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// GetByID retrieves a hall.  A missing row yields a *NotFoundError.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (model.Hall, error) {
	var h model.Hall
	err := scanHall(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+hallColumns+` FROM theatre_halls WHERE id = ?`, id), &h)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hall{}, &NotFoundError{Resource: "theatre hall", ID: id}
	}
	return h, err
}

// Create inserts h and sets its generated ID.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO theatre_halls (name, rows_count, seats_in_row) VALUES (?, ?, ?)`,
		h.Name, h.Rows, h.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// Update overwrites the name and geometry of an existing hall.
func (r *HallRepo) Update(ctx context.Context, h model.Hall) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE theatre_halls SET name = ?, rows_count = ?, seats_in_row = ? WHERE id = ?`,
		h.Name, h.Rows, h.SeatsInRow, h.ID)
	if err != nil {
		return err
	}
	return expectAffected(res, "theatre hall", h.ID)
}

// Delete removes a hall.  Performances in the hall and their tickets are
// removed by the foreign key cascade.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM theatre_halls WHERE id = ?`, id)
	if err != nil {
		return classify(err, "")
	}
	return expectAffected(res, "theatre hall", id)
}

// expectAffected turns a zero-row UPDATE or DELETE into a *NotFoundError.
func expectAffected(res sql.Result, resource string, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
