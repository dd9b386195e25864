// Package sqlite implements sink.Warehouse for SQLite via modernc.org/sqlite
// (pure Go, database/sql).
//
// SQLite supports the same ON CONFLICT ... DO UPDATE shape as Postgres; the
// differences are ?-placeholders and looser column typing (everything here
// stores fine with TEXT/INTEGER/REAL affinity).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"moviesetl/internal/movie"
	"moviesetl/internal/sink"
)

type Warehouse struct {
	db *sql.DB
}

func init() {
	sink.Register("sqlite", New)
}

func New(ctx context.Context, cfg sink.Config) (sink.Warehouse, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Warehouse{db: db}, nil
}

func (w *Warehouse) Close() { _ = w.db.Close() }

var createStmts = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id INTEGER PRIMARY KEY,
		title TEXT,
		genre TEXT,
		director TEXT,
		overview TEXT,
		release_date TEXT,
		popularity REAL,
		vote_average REAL,
		vote_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS genre_stats (
		genre TEXT PRIMARY KEY,
		movie_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS director_stats (
		director TEXT PRIMARY KEY,
		movie_count INTEGER NOT NULL
	)`,
}

var dropStmts = []string{
	`DROP TABLE IF EXISTS movies`,
	`DROP TABLE IF EXISTS genre_stats`,
	`DROP TABLE IF EXISTS director_stats`,
}

func (w *Warehouse) Reset(ctx context.Context) error {
	for _, q := range dropStmts {
		if _, err := w.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite reset: %w", err)
		}
	}
	return w.EnsureTables(ctx)
}

func (w *Warehouse) EnsureTables(ctx context.Context) error {
	for _, q := range createStmts {
		if _, err := w.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("sqlite ensure tables: %w", err)
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
	res, err := w.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite upsert movies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
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
	if _, err := w.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlite upsert %s: %w", table, err)
	}
	return nil
}

// buildUpsertSQL mirrors the Postgres builder with ? placeholders. Pure, so
// the statement shape is testable without opening a database.
func buildUpsertSQL(table string, columns []string, keyColumn string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, row[j])
		}
		b.WriteString(")")
	}

	b.WriteString(" ON CONFLICT(")
	b.WriteString(sqlIdent(keyColumn))
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
		b.WriteString(sqlIdent(c))
		b.WriteString(" = excluded.")
		b.WriteString(sqlIdent(c))
	}

	return b.String(), args
}

func sqlIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
