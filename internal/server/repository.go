// Package server is a development backend for the users collection: the same REST
// surface the client talks to, backed by memory, SQLite or Postgres.
package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sgu-cli/internal/model"
)

var ErrNotFound = errors.New("user not found")

// Repository stores users keyed by a server-assigned numeric id.
type Repository interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, f model.Fields) (model.User, error)
	Update(ctx context.Context, id int64, f model.Fields) (model.User, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Open picks a backend from dsn:
//
//	""  or "memory"                       in-process map
//	sqlite://path, path.db, path.sqlite   SQLite file
//	postgres://..., postgresql://...      Postgres through pgx
func Open(ctx context.Context, dsn string) (Repository, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case dsn == "" || lower == "memory" || lower == "mem":
		return NewMemory(), nil
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return OpenSQL(ctx, Postgres, dsn)
	case strings.HasPrefix(lower, "sqlite://"):
		return OpenSQL(ctx, SQLite, dsn[len("sqlite://"):])
	case strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3"):
		return OpenSQL(ctx, SQLite, dsn)
	default:
		return nil, fmt.Errorf("server: unsupported database %q (want memory, sqlite://path or postgres://...)", dsn)
	}
}

func toModelID(id int64) model.ID {
	return model.ID(strconv.FormatInt(id, 10))
}
