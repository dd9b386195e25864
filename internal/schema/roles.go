// Package schema resolves which column of an arbitrary input table plays each
// semantic role (identifier, title, date, ...). Input schemas vary between
// dataset exports, so resolution is a prioritized-candidate heuristic rather
// than a fixed contract.
package schema

import "strings"

// Role names a semantic slot in the canonical model.
type Role string

const (
	RoleID          Role = "id"
	RoleTitle       Role = "title"
	RoleDate        Role = "date"
	RolePopularity  Role = "popularity"
	RoleVoteCount   Role = "vote_count"
	RoleVoteAverage Role = "vote_average"
	RoleGenre       Role = "genre"
	RoleDirector    Role = "director"
)

// Candidates lists, per role, the column-name candidates in priority order.
// Earlier entries are preferred; order is part of the contract.
var Candidates = map[Role][]string{
	RoleID:          {"id", "movie_id", "imdb_id", "tmdb_id"},
	RoleTitle:       {"title", "original_title", "name"},
	RoleDate:        {"release_date", "date", "year"},
	RolePopularity:  {"popularity", "score_popularity", "pop"},
	RoleVoteCount:   {"vote_count", "votes", "num_votes"},
	RoleVoteAverage: {"vote_average", "rating", "vote_avg", "avg_vote"},
	RoleGenre:       {"genres", "genre", "generos", "topics"},
	RoleDirector:    {"director", "directors"},
}

// Mapping is the result of resolving all roles against one table's columns.
// Absent roles have no entry; values are original (unnormalized) column names
// usable for row lookup.
type Mapping map[Role]string

// Column returns the resolved original column name for role, with ok=false
// when the role did not resolve.
func (m Mapping) Column(role Role) (string, bool) {
	c, ok := m[role]
	return c, ok
}

// Pick resolves one candidate list against the given columns.
//
// Candidates are tried in priority order; for each candidate, a column
// matches when its normalized name (lower-cased, trimmed) equals the
// candidate or contains it as a substring. Within a single candidate, the
// first matching column in declared column order wins, which keeps resolution
// deterministic and independent of map iteration.
//
// Substring matching is intentionally permissive: it picks up prefixed and
// suffixed variants like "tmdb_id_x" at the cost of occasional false
// positives on unrelated columns. That tradeoff is accepted.
func Pick(columns []string, candidates []string) (string, bool) {
	for _, cand := range candidates {
		for _, col := range columns {
			n := normalize(col)
			if n == cand || strings.Contains(n, cand) {
				return col, true
			}
		}
	}
	return "", false
}

// Resolve maps every role onto the given columns. Roles with no matching
// column are simply absent from the result; the reconciler decides how each
// absent role degrades.
func Resolve(columns []string) Mapping {
	m := make(Mapping, len(Candidates))
	for role, cands := range Candidates {
		if col, ok := Pick(columns, cands); ok {
			m[role] = col
		}
	}
	return m
}

func normalize(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}
