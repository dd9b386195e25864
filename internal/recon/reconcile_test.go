package recon

import (
	"errors"
	"reflect"
	"testing"

	"moviesetl/internal/source"
)

func table(columns []string, rows ...source.Record) *source.Table {
	return &source.Table{Columns: columns, Rows: rows}
}

func TestReconcile_EndToEnd(t *testing.T) {
	meta := table(
		[]string{"id", "genres", "director"},
		source.Record{"id": "1", "genres": "Action,Drama", "director": "X"},
	)
	ratings := table(
		[]string{"id", "vote_count", "vote_average", "release_date"},
		source.Record{"id": "1", "vote_count": "500", "vote_average": "7.5", "release_date": "1999-05-01"},
	)

	res, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Movies) != 1 {
		t.Fatalf("movies = %d", len(res.Movies))
	}

	m := res.Movies[0]
	if m.MovieID != 1 {
		t.Errorf("movie_id = %d", m.MovieID)
	}
	if m.ReleaseYear == nil || *m.ReleaseYear != 1999 {
		t.Errorf("release_year = %v", m.ReleaseYear)
	}
	if m.Decade == nil || *m.Decade != 1990 {
		t.Errorf("decade = %v", m.Decade)
	}
	if !reflect.DeepEqual(m.Genres, []string{"Action", "Drama"}) {
		t.Errorf("genres = %v", m.Genres)
	}
	if !reflect.DeepEqual(m.Directors, []string{"X"}) {
		t.Errorf("directors = %v", m.Directors)
	}
	if m.VoteCount == nil || *m.VoteCount != 500 {
		t.Errorf("vote_count = %v", m.VoteCount)
	}
	if m.VoteAverage == nil || *m.VoteAverage != 7.5 {
		t.Errorf("vote_average = %v", m.VoteAverage)
	}
	if res.MergedByTitle {
		t.Error("merge should have used the identifier")
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	meta := table(
		[]string{"movie_id", "title", "year", "genres"},
		source.Record{"movie_id": "10", "title": "A", "year": "1994", "genres": "Drama"},
		source.Record{"movie_id": "11", "title": "B", "year": nil, "genres": nil},
	)
	ratings := table(
		[]string{"id", "votes"},
		source.Record{"id": "10", "votes": "300"},
	)

	a, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("reconciling the same inputs twice must yield identical output")
	}
}

func TestReconcile_SyntheticIDAndTitleDefaults(t *testing.T) {
	meta := table(
		[]string{"genres"},
		source.Record{"genres": "Action"},
		source.Record{"genres": "Drama"},
	)

	res, err := Reconcile(meta, &source.Table{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Movies[0].MovieID != 1 || res.Movies[1].MovieID != 2 {
		t.Errorf("synthetic ids = %d, %d", res.Movies[0].MovieID, res.Movies[1].MovieID)
	}
	// No title column: title falls back to the stringified id.
	if res.Movies[0].Title != "1" || res.Movies[1].Title != "2" {
		t.Errorf("titles = %q, %q", res.Movies[0].Title, res.Movies[1].Title)
	}
	// Every movie has a non-null id and no year means no decade.
	for _, m := range res.Movies {
		if m.ReleaseYear != nil || m.Decade != nil {
			t.Errorf("year/decade should be absent: %v %v", m.ReleaseYear, m.Decade)
		}
	}
}

func TestReconcile_UnparsableIDCellDegrades(t *testing.T) {
	meta := table(
		[]string{"id", "title"},
		source.Record{"id": "7", "title": "A"},
		source.Record{"id": "tt0111161", "title": "B"},
	)
	res, err := Reconcile(meta, &source.Table{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Movies[0].MovieID != 7 {
		t.Errorf("movie 0 id = %d", res.Movies[0].MovieID)
	}
	// Cell-level failure degrades to the 1-based row index, never aborts.
	if res.Movies[1].MovieID != 2 {
		t.Errorf("movie 1 id = %d", res.Movies[1].MovieID)
	}
}

func TestReconcile_TitleFallbackJoin(t *testing.T) {
	meta := table(
		[]string{"id", "title"},
		source.Record{"id": "1", "title": "Heat"},
		source.Record{"id": "2", "title": "Alien"},
		source.Record{"id": "3", "title": "Nothing"},
	)
	// Ratings has no identifier column at all.
	ratings := table(
		[]string{"name", "rating"},
		source.Record{"name": "Heat", "rating": "8.3"},
		source.Record{"name": "Alien", "rating": "8.5"},
		source.Record{"name": "Heat", "rating": "1.0"}, // duplicate title, first wins
	)

	res, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.MergedByTitle {
		t.Fatal("expected title fallback")
	}
	if res.TitleJoined != 2 {
		t.Errorf("title joined = %d", res.TitleJoined)
	}
	if res.Movies[0].VoteAverage == nil || *res.Movies[0].VoteAverage != 8.3 {
		t.Errorf("Heat vote_average = %v (first duplicate must win)", res.Movies[0].VoteAverage)
	}
	if res.Movies[2].VoteAverage != nil {
		t.Errorf("unmatched row should have no rating: %v", res.Movies[2].VoteAverage)
	}
}

func TestReconcile_FillMissingNotOverwrite(t *testing.T) {
	meta := table(
		[]string{"id", "title", "release_date"},
		source.Record{"id": "1", "title": "Kept", "release_date": "1980-01-01"},
		source.Record{"id": "2", "title": nil, "release_date": nil},
	)
	ratings := table(
		[]string{"id", "title", "release_date"},
		source.Record{"id": "1", "title": "Clobber", "release_date": "1999-01-01"},
		source.Record{"id": "2", "title": "Filled", "release_date": "2005-03-04"},
	)

	res, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Movies[0].Title != "Kept" || *res.Movies[0].ReleaseYear != 1980 {
		t.Errorf("present values must not be overwritten: %q %v", res.Movies[0].Title, res.Movies[0].ReleaseYear)
	}
	if res.Movies[1].Title != "Filled" || res.Movies[1].ReleaseYear == nil || *res.Movies[1].ReleaseYear != 2005 {
		t.Errorf("missing values must be filled: %q %v", res.Movies[1].Title, res.Movies[1].ReleaseYear)
	}
}

func TestReconcile_EmptyMetaIsStructural(t *testing.T) {
	_, err := Reconcile(&source.Table{Columns: []string{"id"}}, &source.Table{}, Options{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	_, err = Reconcile(nil, nil, Options{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestReconcile_BadCellsDegrade(t *testing.T) {
	meta := table(
		[]string{"id", "title", "release_date", "genres"},
		source.Record{"id": "1", "title": "A", "release_date": "not a date", "genres": "none"},
	)
	ratings := table(
		[]string{"id", "vote_count", "popularity"},
		source.Record{"id": "1", "vote_count": "many", "popularity": "NaNish"},
	)

	res, err := Reconcile(meta, ratings, Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := res.Movies[0]
	if m.ReleaseYear != nil || m.Decade != nil {
		t.Errorf("bad date should be absent: %v", m.ReleaseYear)
	}
	if len(m.Genres) != 0 {
		t.Errorf("genres = %v", m.Genres)
	}
	if m.VoteCount != nil || m.Popularity != nil {
		t.Errorf("bad numerics should be absent: %v %v", m.VoteCount, m.Popularity)
	}
	if res.WithYear != 0 || res.WithGenres != 0 {
		t.Errorf("counters = %+v", res)
	}
}

func TestDedupeRows(t *testing.T) {
	tbl := table(
		[]string{"id", "title"},
		source.Record{"id": "1", "title": "A"},
		source.Record{"id": "1", "title": "A"},
		source.Record{"id": "1", "title": nil},
		source.Record{"id": "1", "title": ""},
		source.Record{"id": "2", "title": "B"},
	)
	out, dropped := DedupeRows(tbl)
	if dropped != 1 {
		t.Fatalf("dropped = %d", dropped)
	}
	// The nil-title and empty-title rows are distinct: missing hashes
	// differently from empty-string.
	if len(out.Rows) != 4 {
		t.Fatalf("rows = %d", len(out.Rows))
	}
	if out.Rows[0]["title"] != "A" || out.Rows[3]["title"] != "B" {
		t.Errorf("order not preserved: %v", out.Rows)
	}
}
