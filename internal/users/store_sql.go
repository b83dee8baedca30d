package users

import (
	"context"
	"database/sql"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, id string) (User, error) {
	return s.one(ctx, `SELECT id,username,name,email,phone,role,pass_hash FROM users WHERE id=$1`, id)
}

func (s *SQLStore) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.one(ctx, `SELECT id,username,name,email,phone,role,pass_hash FROM users WHERE username=$1`, username)
}

func (s *SQLStore) one(ctx context.Context, q, arg string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PassHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLStore) Upsert(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id,username,name,email,phone,role,pass_hash)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET username=EXCLUDED.username, name=EXCLUDED.name,
		   email=EXCLUDED.email, phone=EXCLUDED.phone, role=EXCLUDED.role,
		   pass_hash=CASE WHEN EXCLUDED.pass_hash<>'' THEN EXCLUDED.pass_hash ELSE users.pass_hash END`,
		u.ID, u.Username, u.Name, u.Email, u.Phone, u.Role, u.PassHash)
	return err
}

func (s *SQLStore) List(ctx context.Context, role string) ([]User, error) {
	var rows *sql.Rows
	var err error
	if role == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id,username,name,email,phone,role,pass_hash FROM users ORDER BY username`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id,username,name,email,phone,role,pass_hash FROM users WHERE role=$1 ORDER BY username`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PassHash); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) SetPassword(ctx context.Context, id, passHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET pass_hash=$1 WHERE id=$2`, passHash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
