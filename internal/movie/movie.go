// Package movie defines the canonical entities produced by reconciliation and
// consumed by aggregation and the sinks. The types are plain data; all
// behavior lives in the recon and aggregate packages.
package movie

// Canonical is the unified movie entity after reconciliation.
//
// Optional fields are pointers: nil means the value never resolved or never
// parsed. Absence propagates through every downstream derivation (Decade is
// nil exactly when ReleaseYear is nil) instead of using sentinel values.
type Canonical struct {
	// MovieID is never zero-valued-by-accident: it comes from the resolved
	// identifier column, or is synthesized as the 1-based row index when no
	// identifier resolves (or a cell fails to parse).
	MovieID int64

	// Title falls back to the stringified MovieID when no title column
	// resolves.
	Title string

	// ReleaseDate is the raw resolved date cell, kept for the warehouse
	// release_date column. Empty when no date column resolved.
	ReleaseDate string

	ReleaseYear *int

	// Decade = floor(ReleaseYear/10)*10; nil iff ReleaseYear is nil.
	Decade *int

	// Genres and Directors preserve source encounter order and never contain
	// empty strings. They may be empty, never nil-vs-empty significant.
	Genres    []string
	Directors []string

	// Overview is a raw pass-through when the metadata table carries a column
	// literally named "overview"; it has no resolver role.
	Overview *string

	Popularity  *float64
	VoteCount   *int64
	VoteAverage *float64
}

// GenreFact is one (movie, genre) pair from exploding Canonical.Genres.
type GenreFact struct {
	MovieID     int64
	Title       string
	ReleaseYear *int
	Popularity  *float64
	VoteCount   *int64
	VoteAverage *float64
	Genre       string
}

// DirectorFact is one (movie, director) pair from exploding
// Canonical.Directors.
type DirectorFact struct {
	MovieID     int64
	Title       string
	ReleaseYear *int
	Popularity  *float64
	VoteCount   *int64
	VoteAverage *float64
	Director    string
}

// YearCount is the number of movies released in a year.
type YearCount struct {
	ReleaseYear int
	Count       int64
}

// GenreYearCount is the number of movies of a genre released in a year.
type GenreYearCount struct {
	ReleaseYear int
	Genre       string
	Count       int64
}

// DecadeTopVoted is the highest-vote movie of a decade. It embeds the full
// winning record plus the decade key.
type DecadeTopVoted struct {
	Decade      int
	MovieID     int64
	Title       string
	VoteCount   *int64
	VoteAverage *float64
	Popularity  *float64
	ReleaseYear *int
}

// NameCount is a total occurrence count for a genre or director across all
// movies. It backs the warehouse genre_stats and director_stats tables.
type NameCount struct {
	Name  string
	Count int64
}
