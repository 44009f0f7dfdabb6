package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sgu-cli/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect captures what differs between the supported SQL engines.
type Dialect struct {
	Name   string
	Driver string
	// Init runs once per Open, after the connection is established.
	Init []string
	// Numbered placeholders ($1, $2) instead of '?'.
	Numbered bool
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		Init: []string{
			"PRAGMA journal_mode=WAL;",
			"PRAGMA synchronous=NORMAL;",
			"PRAGMA busy_timeout=5000;",
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				full_name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone_number TEXT NOT NULL
			);`,
		},
	}
	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "pgx",
		Numbered: true,
		Init: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				full_name TEXT NOT NULL,
				email TEXT NOT NULL,
				phone_number TEXT NOT NULL
			)`,
		},
	}
)

// SQLStore is a Repository over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ Repository = (*SQLStore)(nil)

// OpenSQL connects, pings and creates the users table when missing.
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("open %s: empty dsn", d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if d.Driver == SQLite.Driver {
		// Pragmas are per connection; one connection keeps them in effect and avoids
		// "database is locked" between pooled writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	for _, stmt := range d.Init {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %s: %w", d.Name, err)
		}
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// DB exposes the underlying handle for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error { return s.db.Close() }

// q rewrites '?' placeholders for dialects that number them.
func (s *SQLStore) q(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, full_name, email, phone_number FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.User{}
	for rows.Next() {
		var (
			id int64
			f  model.Fields
		)
		if err := rows.Scan(&id, &f.FullName, &f.Email, &f.PhoneNumber); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, f.User(toModelID(id)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (model.User, error) {
	var f model.Fields
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT full_name, email, phone_number FROM users WHERE id = ?`), id,
	).Scan(&f.FullName, &f.Email, &f.PhoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return f.User(toModelID(id)), nil
}

func (s *SQLStore) Create(ctx context.Context, f model.Fields) (model.User, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO users (full_name, email, phone_number) VALUES (?, ?, ?) RETURNING id`),
		f.FullName, f.Email, f.PhoneNumber,
	).Scan(&id)
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return f.User(toModelID(id)), nil
}

func (s *SQLStore) Update(ctx context.Context, id int64, f model.Fields) (model.User, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`UPDATE users SET full_name = ?, email = ?, phone_number = ? WHERE id = ?`),
		f.FullName, f.Email, f.PhoneNumber, id,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	if err := requireRow(res); err != nil {
		return model.User{}, err
	}
	return f.User(toModelID(id)), nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
