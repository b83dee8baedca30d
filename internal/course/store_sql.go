package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore keeps the aggregate's structure in JSON columns (units_json,
// lessons_json), the same shape the API serves. Attempts live in their own
// table; nothing here is rewritten on a learner submission.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, c Course) error {
	uj, err := json.Marshal(c.Units)
	if err != nil {
		return err
	}
	lj, err := json.Marshal(c.Lessons)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	created := c.CreatedAt.Unix()
	if c.CreatedAt.IsZero() {
		created = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO courses (id,title,units_json,lessons_json,created_by,created_at,updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, units_json=EXCLUDED.units_json,
		   lessons_json=EXCLUDED.lessons_json, updated_at=EXCLUDED.updated_at`,
		c.ID, c.Title, string(uj), string(lj), c.CreatedBy, created, now)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,units_json,lessons_json,created_by,created_at,updated_at FROM courses WHERE id=$1`, id)
	var c Course
	var uj, lj string
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Title, &uj, &lj, &c.CreatedBy, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, notFound("course", id)
		}
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(uj), &c.Units); err != nil {
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(lj), &c.Lessons); err != nil {
		return Course{}, err
	}
	c.CreatedAt = time.Unix(created, 0)
	c.UpdatedAt = time.Unix(updated, 0)
	return c, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,units_json,lessons_json FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var c Course
		var uj, lj string
		if err := rows.Scan(&c.ID, &c.Title, &uj, &lj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(uj), &c.Units); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(lj), &c.Lessons); err != nil {
			return nil, err
		}
		out = append(out, summarize(c))
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("course", id)
	}
	return nil
}
