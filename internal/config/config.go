// Package config defines the canonical, JSON-serializable configuration model
// for the movies ETL. It is intentionally small, explicit, and dependency-
// free so pipeline files can be loaded from disk and passed through the
// program without glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "movies",
//	  "meta":    { "kind": "csv", "path": "movies_id_genre_director_.csv" },
//	  "ratings": { "kind": "csv", "path": "top_rated_movies.csv" },
//	  "sink": {
//	    "kind": "warehouse",
//	    "warehouse": { "kind": "postgres", "dsn": "postgresql://...", "reset": true }
//	  },
//	  "runtime": { "batch_size": 500, "loader_workers": 2 }
//	}
package config

import "encoding/json"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logging and metrics tags. Defaults to "movies_etl"
	// when empty.
	Job string `json:"job"`

	// Meta is the metadata table (identifiers, genres, directors). It becomes
	// the left side of the merge and defines output row order.
	Meta Source `json:"meta"`

	// Ratings is the "top rated" table (popularity, votes).
	Ratings Source `json:"ratings"`

	Sink    Sink          `json:"sink"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Source identifies one input table.
type Source struct {
	// Kind selects the source implementation: "csv" or "html".
	Kind string `json:"kind"`

	// Path is a local file path (csv) or file/URL already fetched to disk
	// (html).
	Path string `json:"path"`

	// Options is a free-form map interpreted by the source implementation.
	// CSV keys: comma (string), encoding ("utf-8", "latin1", "windows-1252"),
	// lazy_quotes (bool). HTML keys: selector (string).
	Options Options `json:"options"`
}

// Sink selects where the reconciled output goes.
type Sink struct {
	// Kind is "files" or "warehouse".
	Kind string `json:"kind"`

	Files     SinkFiles     `json:"files"`
	Warehouse SinkWarehouse `json:"warehouse"`
}

// SinkFiles configures the flat-file sink.
type SinkFiles struct {
	// OutDir receives the six delimited outputs; created if missing.
	OutDir string `json:"out_dir"`
}

// SinkWarehouse configures the relational warehouse sink.
type SinkWarehouse struct {
	// Kind selects the backend: "postgres", "sqlite", or "mssql".
	Kind string `json:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn"`

	// Reset drops and recreates the destination tables before loading. The
	// pipeline produces a complete snapshot per run, so this is the
	// recommended default; with Reset false, stale rows from prior runs
	// survive unless overwritten by id.
	Reset bool `json:"reset"`
}

// RuntimeConfig controls batching and loader concurrency. The reconciliation
// core itself is single-threaded; these knobs only shape sink uploads.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	LoaderWorkers int `json:"loader_workers"`

	// DedupeInput drops byte-identical raw rows before reconciliation.
	DedupeInput bool `json:"dedupe_input"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without a third-party configuration library. It performs only minimal type
// coercion and returns the provided default when a key is absent or of an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so float64 is accepted and cast.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. Used for
// single-character settings such as the CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map, removing nil checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
