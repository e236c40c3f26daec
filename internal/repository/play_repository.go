package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-booking/internal/model"
)

// PlayFilter narrows List.  Ids within GenreIDs (or ActorIDs) are OR-ed;
// the title and the two id sets are AND-ed.
type PlayFilter struct {
	Title    string
	GenreIDs []uint64
	ActorIDs []uint64
}

// PlayRepo stores plays together with their play_actors and play_genres
// join rows.
type PlayRepo struct{ db *sql.DB }

func NewPlayRepo(db *sql.DB) *PlayRepo { return &PlayRepo{db: db} }

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// List returns plays matching f ordered by id.  Each play appears once
// regardless of how many of the requested genres or actors it has.
func (r *PlayRepo) List(ctx context.Context, f PlayFilter) ([]model.PlayListItem, error) {
	where := []string{}
	args := []any{}
	if f.Title != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, likePattern(f.Title))
	}
	if ids := uniqueIDs(f.GenreIDs); len(ids) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM play_genres pg WHERE pg.play_id = p.id AND pg.genre_id IN ("+placeholders(len(ids))+"))")
		args = append(args, uint64Args(ids)...)
	}
	if ids := uniqueIDs(f.ActorIDs); len(ids) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM play_actors pa WHERE pa.play_id = p.id AND pa.actor_id IN ("+placeholders(len(ids))+"))")
		args = append(args, uint64Args(ids)...)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	q := conn(ctx, r.db)
	rows, err := q.QueryContext(ctx, `SELECT p.id, p.title, p.description, p.image FROM plays p WHERE `+cond+` ORDER BY p.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PlayListItem{}
	for rows.Next() {
		var (
			it    model.PlayListItem
			image sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.Title, &it.Description, &image); err != nil {
			return nil, err
		}
		it.Image = nullStringPtr(image)
		it.Actors, it.Genres = []string{}, []string{}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := fillPlayNames(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fillPlayNames loads actor full names and genre names for items with one
// query per join table.
func fillPlayNames(ctx context.Context, q queryer, items []model.PlayListItem) error {
	if len(items) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(items))
	ids := make([]uint64, len(items))
	for i, it := range items {
		index[it.ID] = i
		ids[i] = it.ID
	}
	in := placeholders(len(ids))

	rows, err := q.QueryContext(ctx, `SELECT pa.play_id, a.first_name, a.last_name
		FROM play_actors pa JOIN actors a ON a.id = pa.actor_id
		WHERE pa.play_id IN (`+in+`) ORDER BY pa.play_id, a.id`, uint64Args(ids)...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			playID uint64
			a      model.Actor
		)
		if err := rows.Scan(&playID, &a.FirstName, &a.LastName); err != nil {
			rows.Close()
			return err
		}
		i := index[playID]
		items[i].Actors = append(items[i].Actors, a.FullName())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.QueryContext(ctx, `SELECT pg.play_id, g.name
		FROM play_genres pg JOIN genres g ON g.id = pg.genre_id
		WHERE pg.play_id IN (`+in+`) ORDER BY pg.play_id, g.id`, uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			playID uint64
			name   string
		)
		if err := rows.Scan(&playID, &name); err != nil {
			return err
		}
		i := index[playID]
		items[i].Genres = append(items[i].Genres, name)
	}
	return rows.Err()
}

// listItem loads one play in listing form.
func (r *PlayRepo) listItem(ctx context.Context, q queryer, id uint64) (model.PlayListItem, error) {
	var (
		it    model.PlayListItem
		image sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT id, title, description, image FROM plays WHERE id = ?`, id).
		Scan(&it.ID, &it.Title, &it.Description, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayListItem{}, &NotFoundError{Resource: "play", ID: id}
	}
	if err != nil {
		return model.PlayListItem{}, err
	}
	it.Image = nullStringPtr(image)
	it.Actors, it.Genres = []string{}, []string{}
	items := []model.PlayListItem{it}
	if err := fillPlayNames(ctx, q, items); err != nil {
		return model.PlayListItem{}, err
	}
	return items[0], nil
}

// Get returns a play with its actors and genres expanded.
func (r *PlayRepo) Get(ctx context.Context, id uint64) (model.PlayDetail, error) {
	q := conn(ctx, r.db)
	var (
		d     model.PlayDetail
		image sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT id, title, description, image FROM plays WHERE id = ?`, id).
		Scan(&d.ID, &d.Title, &d.Description, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayDetail{}, &NotFoundError{Resource: "play", ID: id}
	}
	if err != nil {
		return model.PlayDetail{}, err
	}
	d.Image = nullStringPtr(image)

	rows, err := q.QueryContext(ctx, `SELECT a.id, a.first_name, a.last_name
		FROM play_actors pa JOIN actors a ON a.id = pa.actor_id
		WHERE pa.play_id = ? ORDER BY a.id`, id)
	if err != nil {
		return model.PlayDetail{}, err
	}
	d.Actors = []model.Actor{}
	for rows.Next() {
		var a model.Actor
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName); err != nil {
			rows.Close()
			return model.PlayDetail{}, err
		}
		d.Actors = append(d.Actors, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.PlayDetail{}, err
	}

	rows, err = q.QueryContext(ctx, `SELECT g.id, g.name
		FROM play_genres pg JOIN genres g ON g.id = pg.genre_id
		WHERE pg.play_id = ? ORDER BY g.id`, id)
	if err != nil {
		return model.PlayDetail{}, err
	}
	defer rows.Close()
	d.Genres = []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return model.PlayDetail{}, err
		}
		d.Genres = append(d.Genres, g)
	}
	return d, rows.Err()
}

// GetByID returns the writable form of a play, with actor and genre ids.
func (r *PlayRepo) GetByID(ctx context.Context, id uint64) (model.Play, error) {
	q := conn(ctx, r.db)
	var (
		p     model.Play
		image sql.NullString
	)
	err := q.QueryRowContext(ctx, `SELECT id, title, description, image FROM plays WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Description, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Play{}, &NotFoundError{Resource: "play", ID: id}
	}
	if err != nil {
		return model.Play{}, err
	}
	p.Image = nullStringPtr(image)
	if p.Actors, err = selectIDs(ctx, q, `SELECT actor_id FROM play_actors WHERE play_id = ? ORDER BY actor_id`, id); err != nil {
		return model.Play{}, err
	}
	if p.Genres, err = selectIDs(ctx, q, `SELECT genre_id FROM play_genres WHERE play_id = ? ORDER BY genre_id`, id); err != nil {
		return model.Play{}, err
	}
	return p, nil
}

func selectIDs(ctx context.Context, q queryer, query string, args ...any) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Create inserts p with its join rows in one transaction and sets p.ID.
// Unknown actor or genre ids yield a *ReferenceError.
func (r *PlayRepo) Create(ctx context.Context, p *model.Play) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		res, err := q.ExecContext(ctx, `INSERT INTO plays (title, description, image) VALUES (?, ?, ?)`,
			p.Title, p.Description, p.Image)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		return r.insertLinks(ctx, q, p)
	})
}

// Update overwrites the title, description and both id sets of p.  The
// image is left alone; SetImage manages it.
func (r *PlayRepo) Update(ctx context.Context, p model.Play) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		res, err := q.ExecContext(ctx, `UPDATE plays SET title = ?, description = ? WHERE id = ?`,
			p.Title, p.Description, p.ID)
		if err != nil {
			return err
		}
		if err := expectAffected(res, "play", p.ID); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM play_actors WHERE play_id = ?`, p.ID); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM play_genres WHERE play_id = ?`, p.ID); err != nil {
			return err
		}
		return r.insertLinks(ctx, q, &p)
	})
}

func (r *PlayRepo) insertLinks(ctx context.Context, q queryer, p *model.Play) error {
	p.Actors = uniqueIDs(p.Actors)
	p.Genres = uniqueIDs(p.Genres)
	if err := insertJoinRows(ctx, q, "play_actors", "actor_id", p.ID, p.Actors); err != nil {
		return classify(err, "actors")
	}
	if err := insertJoinRows(ctx, q, "play_genres", "genre_id", p.ID, p.Genres); err != nil {
		return classify(err, "genres")
	}
	return nil
}

// insertJoinRows writes (playID, id) pairs into table with one statement.
func insertJoinRows(ctx context.Context, q queryer, table, column string, playID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	values := make([]string, len(ids))
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		values[i] = "(?, ?)"
		args = append(args, playID, id)
	}
	_, err := q.ExecContext(ctx, `INSERT INTO `+table+` (play_id, `+column+`) VALUES `+strings.Join(values, ", "), args...)
	return err
}

// SetImage stores the relative path of the play's uploaded image.
func (r *PlayRepo) SetImage(ctx context.Context, id uint64, path string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE plays SET image = ? WHERE id = ?`, path, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "play", id)
}

// Delete removes a play.  Join rows, performances and their tickets go
// with it through the cascades.
func (r *PlayRepo) Delete(ctx context.Context, id uint64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM plays WHERE id = ?`, id)
	if err != nil {
		return classify(err, "")
	}
	return expectAffected(res, "play", id)
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
