// Package csvdir is the file sink: it writes the reconciled snapshot and the
// derived views as six CSV files in one output directory.
//
// Outputs and their fixed headers:
//
//	movies_clean.csv             the full canonical table
//	movies_genres_exploded.csv   one row per (movie, genre)
//	movies_directors_exploded.csv one row per (movie, director)
//	yearly_counts.csv            movies per release year
//	genre_year_counts.csv        movies per (year, genre)
//	decade_top_voted.csv         highest-vote movie per decade
//
// The exploded tables follow the same policy as the warehouse facts: a movie
// with an empty genre or director list contributes zero rows. Absent
// optionals render as empty cells, and list columns use the "|" separator so
// a re-import normalizes back to the same list.
package csvdir

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"moviesetl/internal/movie"
)

// Dataset bundles everything the file sink writes.
type Dataset struct {
	Movies          []movie.Canonical
	GenreFacts      []movie.GenreFact
	DirectorFacts   []movie.DirectorFact
	YearCounts      []movie.YearCount
	GenreYearCounts []movie.GenreYearCount
	DecadeTopVoted  []movie.DecadeTopVoted
}

// WriteAll writes the six outputs under dir, creating it if needed. Each file
// is written whole; a failure on any file aborts the run with that file
// named in the error.
func WriteAll(dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csvdir: create output dir: %w", err)
	}

	files := []struct {
		name   string
		header []string
		rows   func() [][]string
	}{
		{"movies_clean.csv", moviesHeader, func() [][]string { return movieRows(ds.Movies) }},
		{"movies_genres_exploded.csv", genreFactHeader, func() [][]string { return genreFactRows(ds.GenreFacts) }},
		{"movies_directors_exploded.csv", directorFactHeader, func() [][]string { return directorFactRows(ds.DirectorFacts) }},
		{"yearly_counts.csv", yearCountHeader, func() [][]string { return yearCountRows(ds.YearCounts) }},
		{"genre_year_counts.csv", genreYearHeader, func() [][]string { return genreYearRows(ds.GenreYearCounts) }},
		{"decade_top_voted.csv", decadeTopHeader, func() [][]string { return decadeTopRows(ds.DecadeTopVoted) }},
	}

	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.header, f.rows()); err != nil {
			return fmt.Errorf("csvdir: %s: %w", f.name, err)
		}
	}
	return nil
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

var moviesHeader = []string{
	"movie_id", "title", "release_date", "release_year", "decade",
	"genres", "directors", "overview", "popularity", "vote_average", "vote_count",
}

func movieRows(movies []movie.Canonical) [][]string {
	rows := make([][]string, 0, len(movies))
	for i := range movies {
		m := &movies[i]
		rows = append(rows, []string{
			strconv.FormatInt(m.MovieID, 10),
			m.Title,
			m.ReleaseDate,
			intCell(m.ReleaseYear),
			intCell(m.Decade),
			listCell(m.Genres),
			listCell(m.Directors),
			strCell(m.Overview),
			floatCell(m.Popularity),
			floatCell(m.VoteAverage),
			int64Cell(m.VoteCount),
		})
	}
	return rows
}

var genreFactHeader = []string{
	"movie_id", "title", "release_year", "popularity", "vote_average", "vote_count", "genre",
}

func genreFactRows(facts []movie.GenreFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, []string{
			strconv.FormatInt(f.MovieID, 10),
			f.Title,
			intCell(f.ReleaseYear),
			floatCell(f.Popularity),
			floatCell(f.VoteAverage),
			int64Cell(f.VoteCount),
			f.Genre,
		})
	}
	return rows
}

var directorFactHeader = []string{
	"movie_id", "title", "release_year", "popularity", "vote_average", "vote_count", "director",
}

func directorFactRows(facts []movie.DirectorFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, []string{
			strconv.FormatInt(f.MovieID, 10),
			f.Title,
			intCell(f.ReleaseYear),
			floatCell(f.Popularity),
			floatCell(f.VoteAverage),
			int64Cell(f.VoteCount),
			f.Director,
		})
	}
	return rows
}

var yearCountHeader = []string{"release_year", "movie_count"}

func yearCountRows(counts []movie.YearCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			strconv.Itoa(c.ReleaseYear),
			strconv.FormatInt(c.Count, 10),
		})
	}
	return rows
}

var genreYearHeader = []string{"release_year", "genre", "movie_count"}

func genreYearRows(counts []movie.GenreYearCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{
			strconv.Itoa(c.ReleaseYear),
			c.Genre,
			strconv.FormatInt(c.Count, 10),
		})
	}
	return rows
}

var decadeTopHeader = []string{
	"decade", "movie_id", "title", "release_year", "popularity", "vote_average", "vote_count",
}

func decadeTopRows(tops []movie.DecadeTopVoted) [][]string {
	rows := make([][]string, 0, len(tops))
	for _, t := range tops {
		rows = append(rows, []string{
			strconv.Itoa(t.Decade),
			strconv.FormatInt(t.MovieID, 10),
			t.Title,
			intCell(t.ReleaseYear),
			floatCell(t.Popularity),
			floatCell(t.VoteAverage),
			int64Cell(t.VoteCount),
		})
	}
	return rows
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func int64Cell(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func floatCell(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func strCell(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func listCell(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += "|"
		}
		out += v
	}
	return out
}
