package mssql

import (
	"reflect"
	"testing"

	"moviesetl/internal/sink"
)

func TestBuildUpdateSQL(t *testing.T) {
	q := buildUpdateSQL("genre_stats", []string{"genre", "movie_count"}, "genre")
	want := "UPDATE [genre_stats] SET [movie_count] = @p1 WHERE [genre] = @p2"
	if q != want {
		t.Fatalf("sql = %s", q)
	}
}

func TestBuildUpdateSQL_MovieColumns(t *testing.T) {
	q := buildUpdateSQL("movies", sink.MovieColumns, "id")
	want := "UPDATE [movies] SET [title] = @p1, [genre] = @p2, [director] = @p3, " +
		"[overview] = @p4, [release_date] = @p5, [popularity] = @p6, " +
		"[vote_average] = @p7, [vote_count] = @p8 WHERE [id] = @p9"
	if q != want {
		t.Fatalf("sql = %s", q)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	q := buildInsertSQL("genre_stats", []string{"genre", "movie_count"})
	want := "INSERT INTO [genre_stats] ([genre], [movie_count]) VALUES (@p1, @p2)"
	if q != want {
		t.Fatalf("sql = %s", q)
	}
}

func TestUpdateArgs_KeyMovesLast(t *testing.T) {
	row := []any{int64(7), "Title", nil}
	got := updateArgs(row, 0)
	want := []any{"Title", nil, int64(7)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
}
