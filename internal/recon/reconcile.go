// Package recon is the record reconciliation engine: it resolves column
// roles on two raw input tables, normalizes their fields into canonical
// form, and merges them into one canonical record set.
package recon

import (
	"errors"
	"fmt"
	"strconv"

	"moviesetl/internal/clean"
	"moviesetl/internal/movie"
	"moviesetl/internal/schema"
	"moviesetl/internal/source"
)

// ErrEmptyInput marks a structurally empty metadata table. Callers can
// distinguish it from a successful run that merely produced no output.
var ErrEmptyInput = errors.New("recon: empty input table")

// Options controls optional reconciliation behavior.
type Options struct {
	// DedupeInput drops byte-identical raw rows from both tables before
	// merging.
	DedupeInput bool
}

// Result is the canonical record set plus the counters the run summary
// reports.
type Result struct {
	Movies []movie.Canonical

	// MergedByTitle is true when the ratings table resolved no identifier
	// column and the lossy title join was used.
	MergedByTitle bool

	// TitleJoined counts base rows that actually picked up ratings data via
	// the title fallback.
	TitleJoined int

	// InputDeduped counts raw rows dropped by Options.DedupeInput.
	InputDeduped int

	WithYear      int
	WithGenres    int
	WithDirectors int
}

// Reconcile merges the metadata table with the ratings table into one
// canonical record set, preserving metadata row order.
//
// Merge policy: when the ratings table resolves an identifier column, rows
// join on identifier (left outer); title and release year present in ratings
// but missing in the base are filled in, never overwriting a present value.
// When no identifier resolves, rows join on exact title text instead. The
// title join is lossy: distinct movies sharing a title merge incorrectly,
// and duplicate titles on the ratings side collapse to the first occurrence.
// This is a known limitation of the fallback, not a bug to paper over;
// Result.MergedByTitle and Result.TitleJoined expose when it happened.
//
// Cell-level failures (bad dates, non-numeric ratings, unparsable ids) never
// abort the run; they degrade to absent or defaulted values. A nil or
// zero-row metadata table is structural and returns ErrEmptyInput.
func Reconcile(meta, ratings *source.Table, opt Options) (*Result, error) {
	if meta == nil || len(meta.Rows) == 0 {
		return nil, fmt.Errorf("%w: metadata", ErrEmptyInput)
	}
	if ratings == nil {
		ratings = &source.Table{}
	}

	res := &Result{}

	if opt.DedupeInput {
		var dm, dr int
		meta, dm = DedupeRows(meta)
		ratings, dr = DedupeRows(ratings)
		res.InputDeduped = dm + dr
	}

	metaRoles := schema.Resolve(meta.Columns)
	ratingRoles := schema.Resolve(ratings.Columns)

	join := newJoiner(ratings, ratingRoles)
	res.MergedByTitle = join.byTitle

	idCol, hasID := metaRoles.Column(schema.RoleID)
	titleCol, hasTitle := metaRoles.Column(schema.RoleTitle)
	dateCol, hasDate := metaRoles.Column(schema.RoleDate)
	genreCol, hasGenre := metaRoles.Column(schema.RoleGenre)
	directorCol, hasDirector := metaRoles.Column(schema.RoleDirector)
	_, hasOverview := columnNamed(meta.Columns, "overview")

	res.Movies = make([]movie.Canonical, 0, len(meta.Rows))

	for i, row := range meta.Rows {
		m := movie.Canonical{}

		// Identifier: resolved column, else 1-based sequence index. A
		// resolved-but-unparsable cell degrades to the index too.
		m.MovieID = int64(i + 1)
		if hasID {
			if id, ok := clean.Int(row[idCol]); ok {
				m.MovieID = id
			}
		}

		if hasTitle {
			m.Title, _ = clean.String(row[titleCol])
		} else {
			m.Title = strconv.FormatInt(m.MovieID, 10)
		}

		if hasDate {
			m.ReleaseDate, _ = clean.String(row[dateCol])
			if y, ok := clean.Year(row[dateCol]); ok {
				m.ReleaseYear = &y
			}
		}

		if hasGenre {
			m.Genres = clean.List(row[genreCol])
		}
		if hasDirector {
			m.Directors = clean.List(row[directorCol])
		}
		if hasOverview {
			if s, ok := clean.String(row["overview"]); ok {
				m.Overview = &s
			}
		}

		// Merge in the ratings row, if any. Fill-missing semantics for
		// title/year; numeric fields only ever come from the ratings side.
		if r, ok := join.match(&m); ok {
			if join.byTitle {
				res.TitleJoined++
			}
			fillFromRatings(&m, r, join.roles)
		}

		if m.ReleaseYear != nil {
			d := decadeOf(*m.ReleaseYear)
			m.Decade = &d
		}

		res.Movies = append(res.Movies, m)
	}

	for i := range res.Movies {
		m := &res.Movies[i]
		if m.ReleaseYear != nil {
			res.WithYear++
		}
		if len(m.Genres) > 0 {
			res.WithGenres++
		}
		if len(m.Directors) > 0 {
			res.WithDirectors++
		}
	}

	return res, nil
}

// joiner indexes the ratings table by its best available key.
type joiner struct {
	roles   schema.Mapping
	byTitle bool
	byID    map[int64]source.Record
	title   map[string]source.Record
}

func newJoiner(ratings *source.Table, roles schema.Mapping) *joiner {
	j := &joiner{roles: roles}

	if idCol, ok := roles.Column(schema.RoleID); ok {
		j.byID = make(map[int64]source.Record, len(ratings.Rows))
		for _, r := range ratings.Rows {
			id, ok := clean.Int(r[idCol])
			if !ok {
				continue
			}
			// First occurrence wins on duplicate keys.
			if _, exists := j.byID[id]; !exists {
				j.byID[id] = r
			}
		}
		return j
	}

	j.byTitle = true
	titleCol, ok := roles.Column(schema.RoleTitle)
	if !ok {
		// Ratings table has neither identifier nor title: nothing can join.
		j.title = map[string]source.Record{}
		return j
	}
	j.title = make(map[string]source.Record, len(ratings.Rows))
	for _, r := range ratings.Rows {
		t, ok := clean.String(r[titleCol])
		if !ok || t == "" {
			continue
		}
		if _, exists := j.title[t]; !exists {
			j.title[t] = r
		}
	}
	return j
}

func (j *joiner) match(m *movie.Canonical) (source.Record, bool) {
	if j.byTitle {
		r, ok := j.title[m.Title]
		return r, ok
	}
	r, ok := j.byID[m.MovieID]
	return r, ok
}

func fillFromRatings(m *movie.Canonical, r source.Record, roles schema.Mapping) {
	if titleCol, ok := roles.Column(schema.RoleTitle); ok && m.Title == "" {
		m.Title, _ = clean.String(r[titleCol])
	}
	if dateCol, ok := roles.Column(schema.RoleDate); ok {
		if m.ReleaseYear == nil {
			if y, yok := clean.Year(r[dateCol]); yok {
				m.ReleaseYear = &y
			}
		}
		if m.ReleaseDate == "" {
			m.ReleaseDate, _ = clean.String(r[dateCol])
		}
	}
	if popCol, ok := roles.Column(schema.RolePopularity); ok {
		if f, fok := clean.Float(r[popCol]); fok {
			m.Popularity = &f
		}
	}
	if vcCol, ok := roles.Column(schema.RoleVoteCount); ok {
		if n, nok := clean.Int(r[vcCol]); nok {
			m.VoteCount = &n
		}
	}
	if vaCol, ok := roles.Column(schema.RoleVoteAverage); ok {
		if f, fok := clean.Float(r[vaCol]); fok {
			m.VoteAverage = &f
		}
	}
}

// decadeOf floors toward negative infinity; for the realistic non-negative
// range this coincides with truncation.
func decadeOf(year int) int {
	d := year / 10 * 10
	if year < 0 && year%10 != 0 {
		d -= 10
	}
	return d
}

func columnNamed(columns []string, name string) (string, bool) {
	for _, c := range columns {
		if c == name {
			return c, true
		}
	}
	return "", false
}
