// Package sink defines the warehouse sink contract for the reconciled movie
// snapshot, plus a factory registry for concrete backends (postgres, sqlite,
// mssql).
//
// The destination schema is fixed:
//
//	movies(id PK, title, genre, director, overview, release_date,
//	       popularity, vote_average, vote_count)
//	genre_stats(genre PK, movie_count)
//	director_stats(director PK, movie_count)
//
// All writes are keyed upserts: on conflict every non-key column is
// overwritten with the new value (last-write-wins). Each backend implements
// those semantics its own idiomatic way (Postgres ON CONFLICT, SQLite
// ON CONFLICT, SQL Server update-then-insert).
package sink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"moviesetl/internal/movie"
)

// Config is the minimal configuration needed to create a warehouse.
type Config struct {
	Kind string
	DSN  string
}

// Warehouse is the backend-agnostic sink interface. It is intentionally
// minimal: exactly the operations the pipeline needs.
type Warehouse interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// Reset drops and recreates the destination tables, guaranteeing no
	// stale rows survive from prior runs. Implies EnsureTables.
	Reset(ctx context.Context) error

	// EnsureTables creates the tables if missing, without dropping data.
	EnsureTables(ctx context.Context) error

	// UpsertMovies writes one batch keyed by movie id and reports rows
	// affected. Batches must be independent: a failed batch leaves other
	// batches untouched.
	UpsertMovies(ctx context.Context, batch []movie.Canonical) (int64, error)

	// UpsertGenreStats / UpsertDirectorStats write total occurrence counts
	// keyed by name.
	UpsertGenreStats(ctx context.Context, counts []movie.NameCount) error
	UpsertDirectorStats(ctx context.Context, counts []movie.NameCount) error
}

// EncodeList renders a multi-valued field for a scalar warehouse column.
// "|" is the join delimiter because it is the one separator the list
// normalizer treats as unambiguous, so a re-import parses back to the same
// list.
func EncodeList(vals []string) any {
	if len(vals) == 0 {
		return nil
	}
	return strings.Join(vals, "|")
}

// ---- factory registry (one backend per kind) ----

type factory func(ctx context.Context, cfg Config) (Warehouse, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register installs a warehouse backend under a kind. Call from an init()
// in the backend package; registering a kind twice panics to fail fast on
// ambiguous wiring.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("sink: Register called with empty kind")
	}
	if f == nil {
		panic("sink: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("sink: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Warehouse using the registered backend factory.
func New(ctx context.Context, cfg Config) (Warehouse, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("sink: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("sink: unsupported warehouse kind=%q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// MovieColumns is the movies table column order shared by every backend's
// SQL builders and by tests.
var MovieColumns = []string{
	"id", "title", "genre", "director", "overview",
	"release_date", "popularity", "vote_average", "vote_count",
}

// MovieArgs flattens one canonical movie into bind values in MovieColumns
// order. Absent optionals bind as NULL.
func MovieArgs(m *movie.Canonical) []any {
	return []any{
		m.MovieID,
		nullIfEmpty(m.Title),
		EncodeList(m.Genres),
		EncodeList(m.Directors),
		ptrArg(m.Overview),
		nullIfEmpty(m.ReleaseDate),
		ptrArg(m.Popularity),
		ptrArg(m.VoteAverage),
		ptrArg(m.VoteCount),
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func ptrArg[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
