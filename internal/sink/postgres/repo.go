// Package postgres implements sink.Warehouse for PostgreSQL on pgx/pgxpool.
//
// Upserts use INSERT ... ON CONFLICT (key) DO UPDATE with EXCLUDED values,
// which gives the required last-write-wins semantics in a single statement
// per batch.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"moviesetl/internal/movie"
	"moviesetl/internal/sink"
)

type Warehouse struct {
	pool *pgxpool.Pool
}

func init() {
	sink.Register("postgres", New)
}

// New creates a Postgres-backed warehouse and validates connectivity.
func New(ctx context.Context, cfg sink.Config) (sink.Warehouse, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Warehouse{pool: pool}, nil
}

func (w *Warehouse) Close() { w.pool.Close() }

var createStmts = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT PRIMARY KEY,
		title TEXT,
		genre TEXT,
		director TEXT,
		overview TEXT,
		release_date TEXT,
		popularity DOUBLE PRECISION,
		vote_average DOUBLE PRECISION,
		vote_count BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS genre_stats (
		genre TEXT PRIMARY KEY,
		movie_count BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS director_stats (
		director TEXT PRIMARY KEY,
		movie_count BIGINT NOT NULL
	)`,
}

var dropStmts = []string{
	`DROP TABLE IF EXISTS movies`,
	`DROP TABLE IF EXISTS genre_stats`,
	`DROP TABLE IF EXISTS director_stats`,
}

// Reset drops and recreates the destination tables. The pipeline writes a
// complete snapshot per run, so this is the recommended mode.
func (w *Warehouse) Reset(ctx context.Context) error {
	for _, q := range dropStmts {
		if _, err := w.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("postgres reset: %w", err)
		}
	}
	return w.EnsureTables(ctx)
}

func (w *Warehouse) EnsureTables(ctx context.Context) error {
	for _, q := range createStmts {
		if _, err := w.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("postgres ensure tables: %w", err)
		}
	}
	return nil
}

func (w *Warehouse) UpsertMovies(ctx context.Context, batch []movie.Canonical) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(batch))
	for i := range batch {
		rows[i] = sink.MovieArgs(&batch[i])
	}

	q, args := buildUpsertSQL("movies", sink.MovieColumns, "id", rows)
	cmd, err := w.pool.Exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres upsert movies: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (w *Warehouse) UpsertGenreStats(ctx context.Context, counts []movie.NameCount) error {
	return w.upsertStats(ctx, "genre_stats", "genre", counts)
}

func (w *Warehouse) UpsertDirectorStats(ctx context.Context, counts []movie.NameCount) error {
	return w.upsertStats(ctx, "director_stats", "director", counts)
}

func (w *Warehouse) upsertStats(ctx context.Context, table, keyColumn string, counts []movie.NameCount) error {
	if len(counts) == 0 {
		return nil
	}
	rows := make([][]any, len(counts))
	for i, c := range counts {
		rows[i] = []any{c.Name, c.Count}
	}

	q, args := buildUpsertSQL(table, []string{keyColumn, "movie_count"}, keyColumn, rows)
	if _, err := w.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("postgres upsert %s: %w", table, err)
	}
	return nil
}

// buildUpsertSQL constructs one multi-VALUES INSERT ... ON CONFLICT DO
// UPDATE statement and its args.
//
// It is pure and deterministic so placeholder numbering and the SET list can
// be unit tested without a database. Every row must have len(columns)
// values.
func buildUpsertSQL(table string, columns []string, keyColumn string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
			args = append(args, row[j])
		}
		b.WriteString(")")
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(pgIdent(keyColumn))
	b.WriteString(") DO UPDATE SET ")
	first := true
	for _, c := range columns {
		if c == keyColumn {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(pgIdent(c))
		b.WriteString(" = EXCLUDED.")
		b.WriteString(pgIdent(c))
	}

	return b.String(), args
}

// pgIdent double-quotes an identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
