package postgres

import (
	"strings"
	"testing"
)

func TestBuildUpsertSQL_PlaceholderNumbering(t *testing.T) {
	rows := [][]any{
		{int64(1), "A"},
		{int64(2), "B"},
	}
	q, args := buildUpsertSQL("genre_stats", []string{"genre", "movie_count"}, "genre", rows)

	wantPrefix := `INSERT INTO genre_stats ("genre", "movie_count") VALUES ($1, $2), ($3, $4)`
	if !strings.HasPrefix(q, wantPrefix) {
		t.Fatalf("sql = %s", q)
	}
	if !strings.Contains(q, `ON CONFLICT ("genre") DO UPDATE SET "movie_count" = EXCLUDED."movie_count"`) {
		t.Fatalf("sql = %s", q)
	}
	if len(args) != 4 || args[0] != int64(1) || args[3] != "B" {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildUpsertSQL_KeyColumnExcludedFromSet(t *testing.T) {
	q, _ := buildUpsertSQL("movies", []string{"id", "title", "vote_count"}, "id", [][]any{{1, "A", nil}})

	if strings.Contains(q, `"id" = EXCLUDED."id"`) {
		t.Fatalf("key column must not be in the SET list: %s", q)
	}
	if !strings.Contains(q, `"title" = EXCLUDED."title", "vote_count" = EXCLUDED."vote_count"`) {
		t.Fatalf("sql = %s", q)
	}
}
