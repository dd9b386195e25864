// Package aggregate computes the derived views over the canonical record
// set: exploded genre/director facts, per-year counts, per-(year,genre)
// counts, per-decade top performer, and the warehouse occurrence totals.
//
// Explode policy: a movie with an empty genre (or director) list contributes
// zero facts. The same policy applies to the file exports; see DESIGN.md for
// the rationale.
package aggregate

import (
	"sort"

	"moviesetl/internal/movie"
)

// GenreFacts explodes Genres: one fact per (movie, genre), preserving both
// movie order and each movie's genre order.
func GenreFacts(movies []movie.Canonical) []movie.GenreFact {
	var out []movie.GenreFact
	for i := range movies {
		m := &movies[i]
		for _, g := range m.Genres {
			out = append(out, movie.GenreFact{
				MovieID:     m.MovieID,
				Title:       m.Title,
				ReleaseYear: m.ReleaseYear,
				Popularity:  m.Popularity,
				VoteCount:   m.VoteCount,
				VoteAverage: m.VoteAverage,
				Genre:       g,
			})
		}
	}
	return out
}

// DirectorFacts explodes Directors the same way GenreFacts explodes Genres.
func DirectorFacts(movies []movie.Canonical) []movie.DirectorFact {
	var out []movie.DirectorFact
	for i := range movies {
		m := &movies[i]
		for _, d := range m.Directors {
			out = append(out, movie.DirectorFact{
				MovieID:     m.MovieID,
				Title:       m.Title,
				ReleaseYear: m.ReleaseYear,
				Popularity:  m.Popularity,
				VoteCount:   m.VoteCount,
				VoteAverage: m.VoteAverage,
				Director:    d,
			})
		}
	}
	return out
}

// YearCounts groups movies by release year, excluding rows with an absent
// year, ordered by year ascending.
func YearCounts(movies []movie.Canonical) []movie.YearCount {
	counts := map[int]int64{}
	for i := range movies {
		if y := movies[i].ReleaseYear; y != nil {
			counts[*y]++
		}
	}

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]movie.YearCount, 0, len(years))
	for _, y := range years {
		out = append(out, movie.YearCount{ReleaseYear: y, Count: counts[y]})
	}
	return out
}

// GenreYearCounts groups genre facts by (year, genre), excluding facts with
// an absent year. Output is ordered by year ascending, then genre ascending.
func GenreYearCounts(facts []movie.GenreFact) []movie.GenreYearCount {
	type key struct {
		year  int
		genre string
	}
	counts := map[key]int64{}
	for i := range facts {
		f := &facts[i]
		if f.ReleaseYear == nil || f.Genre == "" {
			continue
		}
		counts[key{*f.ReleaseYear, f.Genre}]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].genre < keys[j].genre
	})

	out := make([]movie.GenreYearCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, movie.GenreYearCount{ReleaseYear: k.year, Genre: k.genre, Count: counts[k]})
	}
	return out
}

// DecadeTopVoted selects, per decade, the movie with the highest vote count.
// Movies with an absent decade are excluded; an absent vote count sorts
// lowest. Ties keep the first-encountered movie (stable order: the original
// row order is the tiebreak). Output is ordered by decade ascending.
func DecadeTopVoted(movies []movie.Canonical) []movie.DecadeTopVoted {
	best := map[int]*movie.Canonical{}
	for i := range movies {
		m := &movies[i]
		if m.Decade == nil {
			continue
		}
		cur, ok := best[*m.Decade]
		if !ok || votes(m) > votes(cur) {
			best[*m.Decade] = m
		}
	}

	decades := make([]int, 0, len(best))
	for d := range best {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	out := make([]movie.DecadeTopVoted, 0, len(decades))
	for _, d := range decades {
		w := best[d]
		out = append(out, movie.DecadeTopVoted{
			Decade:      d,
			MovieID:     w.MovieID,
			Title:       w.Title,
			VoteCount:   w.VoteCount,
			VoteAverage: w.VoteAverage,
			Popularity:  w.Popularity,
			ReleaseYear: w.ReleaseYear,
		})
	}
	return out
}

// votes maps an absent vote count below every present value.
func votes(m *movie.Canonical) int64 {
	if m.VoteCount == nil {
		return -1 << 62
	}
	return *m.VoteCount
}

// GenreTotals counts, per genre, the number of movies carrying it, across
// all movies regardless of year. Output ordered by genre ascending.
func GenreTotals(facts []movie.GenreFact) []movie.NameCount {
	counts := map[string]int64{}
	for i := range facts {
		counts[facts[i].Genre]++
	}
	return sortedNameCounts(counts)
}

// DirectorTotals mirrors GenreTotals for directors.
func DirectorTotals(facts []movie.DirectorFact) []movie.NameCount {
	counts := map[string]int64{}
	for i := range facts {
		counts[facts[i].Director]++
	}
	return sortedNameCounts(counts)
}

func sortedNameCounts(counts map[string]int64) []movie.NameCount {
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]movie.NameCount, 0, len(names))
	for _, n := range names {
		out = append(out, movie.NameCount{Name: n, Count: counts[n]})
	}
	return out
}
