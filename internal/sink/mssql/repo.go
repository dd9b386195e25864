// Package mssql implements sink.Warehouse for SQL Server via
// github.com/microsoft/go-mssqldb and database/sql.
//
// SQL Server has no ON CONFLICT clause and MERGE has well known concurrency
// caveats, so upserts run as UPDATE-then-INSERT inside one transaction: try
// the keyed UPDATE first, and INSERT only when it touched no row. One writer
// per destination table at a time, which is how the pipeline drives it.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"moviesetl/internal/movie"
	"moviesetl/internal/sink"
)

type Warehouse struct {
	db *sql.DB
}

func init() {
	sink.Register("mssql", New)
}

func New(ctx context.Context, cfg sink.Config) (sink.Warehouse, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
	`IF OBJECT_ID('movies', 'U') IS NULL
	CREATE TABLE movies (
		id BIGINT NOT NULL PRIMARY KEY,
		title NVARCHAR(512) NULL,
		genre NVARCHAR(1024) NULL,
		director NVARCHAR(1024) NULL,
		overview NVARCHAR(MAX) NULL,
		release_date NVARCHAR(64) NULL,
		popularity FLOAT NULL,
		vote_average FLOAT NULL,
		vote_count BIGINT NULL
	)`,
	`IF OBJECT_ID('genre_stats', 'U') IS NULL
	CREATE TABLE genre_stats (
		genre NVARCHAR(256) NOT NULL PRIMARY KEY,
		movie_count BIGINT NOT NULL
	)`,
	`IF OBJECT_ID('director_stats', 'U') IS NULL
	CREATE TABLE director_stats (
		director NVARCHAR(256) NOT NULL PRIMARY KEY,
		movie_count BIGINT NOT NULL
	)`,
}

var dropStmts = []string{
	`IF OBJECT_ID('movies', 'U') IS NOT NULL DROP TABLE movies`,
	`IF OBJECT_ID('genre_stats', 'U') IS NOT NULL DROP TABLE genre_stats`,
	`IF OBJECT_ID('director_stats', 'U') IS NOT NULL DROP TABLE director_stats`,
}

func (w *Warehouse) Reset(ctx context.Context) error {
	for _, q := range dropStmts {
		if _, err := w.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("mssql reset: %w", err)
		}
	}
	return w.EnsureTables(ctx)
}

func (w *Warehouse) EnsureTables(ctx context.Context) error {
	for _, q := range createStmts {
		if _, err := w.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("mssql ensure tables: %w", err)
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
	n, err := w.upsertRows(ctx, "movies", sink.MovieColumns, "id", rows)
	if err != nil {
		return 0, fmt.Errorf("mssql upsert movies: %w", err)
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
	if _, err := w.upsertRows(ctx, table, []string{keyColumn, "movie_count"}, keyColumn, rows); err != nil {
		return fmt.Errorf("mssql upsert %s: %w", table, err)
	}
	return nil
}

// upsertRows runs the UPDATE-then-INSERT dance per row inside a single
// transaction, with both statements prepared once per call. The key is
// always the first column of each row (MovieArgs and the stats rows both
// put it there).
func (w *Warehouse) upsertRows(ctx context.Context, table string, columns []string, keyColumn string, rows [][]any) (int64, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	update, err := tx.PrepareContext(ctx, buildUpdateSQL(table, columns, keyColumn))
	if err != nil {
		return 0, fmt.Errorf("prepare update: %w", err)
	}
	defer update.Close()

	insert, err := tx.PrepareContext(ctx, buildInsertSQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	keyIdx := indexOf(columns, keyColumn)
	if keyIdx < 0 {
		return 0, fmt.Errorf("key column %q not in column list", keyColumn)
	}

	var affected int64
	for _, row := range rows {
		res, err := update.ExecContext(ctx, updateArgs(row, keyIdx)...)
		if err != nil {
			return 0, fmt.Errorf("update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n > 0 {
			affected += n
			continue
		}
		if _, err := insert.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("insert: %w", err)
		}
		affected++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return affected, nil
}

// buildUpdateSQL produces
//
//	UPDATE t SET c1 = @p1, c2 = @p2 WHERE key = @pN
//
// with the non-key columns first and the key value last, matching
// updateArgs.
func buildUpdateSQL(table string, columns []string, keyColumn string) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(mssqlIdent(table))
	b.WriteString(" SET ")

	p := 1
	for _, c := range columns {
		if c == keyColumn {
			continue
		}
		if p > 1 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
		fmt.Fprintf(&b, " = @p%d", p)
		p++
	}

	b.WriteString(" WHERE ")
	b.WriteString(mssqlIdent(keyColumn))
	fmt.Fprintf(&b, " = @p%d", p)
	return b.String()
}

func buildInsertSQL(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "@p%d", i+1)
	}
	b.WriteString(")")
	return b.String()
}

// updateArgs reorders a row for buildUpdateSQL: non-key values in column
// order, then the key value.
func updateArgs(row []any, keyIdx int) []any {
	out := make([]any, 0, len(row))
	for i, v := range row {
		if i == keyIdx {
			continue
		}
		out = append(out, v)
	}
	return append(out, row[keyIdx])
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

func mssqlIdent(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
