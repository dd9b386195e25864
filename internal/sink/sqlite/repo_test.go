package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"moviesetl/internal/movie"
	"moviesetl/internal/sink"
)

// A file DSN, not :memory:. database/sql pools connections and every new
// connection to :memory: opens a fresh empty database.
func testDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "warehouse.db")
}

func TestBuildUpsertSQL(t *testing.T) {
	rows := [][]any{
		{int64(1), "A"},
		{int64(2), nil},
	}
	q, args := buildUpsertSQL("genre_stats", []string{"genre", "movie_count"}, "genre", rows)

	wantPrefix := `INSERT INTO genre_stats ("genre", "movie_count") VALUES (?, ?), (?, ?)`
	if !strings.HasPrefix(q, wantPrefix) {
		t.Fatalf("sql = %s", q)
	}
	if !strings.Contains(q, `ON CONFLICT("genre") DO UPDATE SET "movie_count" = excluded."movie_count"`) {
		t.Fatalf("sql = %s", q)
	}
	if strings.Contains(q, `"genre" = excluded."genre"`) {
		t.Fatalf("key column must not be in the SET list: %s", q)
	}
	if len(args) != 4 || args[0] != int64(1) || args[3] != nil {
		t.Fatalf("args = %v", args)
	}
}

// Round trip: upsert twice with the same key and verify the second write
// overwrites the first.
func TestUpsertMovies_RoundTrip(t *testing.T) {
	ctx := context.Background()
	wh, err := New(ctx, sink.Config{Kind: "sqlite", DSN: testDSN(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wh.Close()

	if err := wh.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	votes := int64(100)
	m := movie.Canonical{MovieID: 1, Title: "Old Title", Genres: []string{"Drama"}, VoteCount: &votes}
	if _, err := wh.UpsertMovies(ctx, []movie.Canonical{m}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	m.Title = "New Title"
	if _, err := wh.UpsertMovies(ctx, []movie.Canonical{m}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	db := wh.(*Warehouse).db
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
	var title string
	if err := db.QueryRowContext(ctx, `SELECT title FROM movies WHERE id = 1`).Scan(&title); err != nil {
		t.Fatalf("select: %v", err)
	}
	if title != "New Title" {
		t.Fatalf("title = %q, want overwrite", title)
	}
}

func TestUpsertStats_RoundTrip(t *testing.T) {
	ctx := context.Background()
	wh, err := New(ctx, sink.Config{Kind: "sqlite", DSN: testDSN(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wh.Close()

	if err := wh.EnsureTables(ctx); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}

	counts := []movie.NameCount{{Name: "Drama", Count: 2}, {Name: "Action", Count: 1}}
	if err := wh.UpsertGenreStats(ctx, counts); err != nil {
		t.Fatalf("UpsertGenreStats: %v", err)
	}
	if err := wh.UpsertGenreStats(ctx, []movie.NameCount{{Name: "Drama", Count: 5}}); err != nil {
		t.Fatalf("UpsertGenreStats update: %v", err)
	}

	db := wh.(*Warehouse).db
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT movie_count FROM genre_stats WHERE genre = 'Drama'`).Scan(&n); err != nil {
		t.Fatalf("select: %v", err)
	}
	if n != 5 {
		t.Fatalf("movie_count = %d, want 5", n)
	}
}
