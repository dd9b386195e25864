// Package source defines the tabular data source contract consumed by the
// reconciler, plus a factory registry for concrete source kinds (csv, html).
//
// A source yields a fully materialized Table: the reconciliation core is
// defined over in-memory record sets, so sources read eagerly and report
// structural failures (unreadable input, no header, zero columns) as errors
// before the core ever runs.
package source

import (
	"context"
	"fmt"
	"sync"

	"moviesetl/internal/config"
)

// Record is one row: column name -> opaque scalar. A nil value is an absent
// cell and is distinguishable from an empty string (sources must never store
// "" for a missing cell).
type Record map[string]any

// Table is an ordered set of records. Columns preserves the source's column
// order; Rows preserves row order. Tables are read-only after construction.
type Table struct {
	Columns []string
	Rows    []Record
}

// Factory builds a Table from source-kind specific options.
type Factory func(ctx context.Context, path string, opt config.Options) (*Table, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a source factory under a kind (e.g. "csv", "html").
// Call from an init() in the implementing package. Registering the same kind
// twice panics to fail fast on ambiguous wiring.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("source: Register called with empty kind")
	}
	if f == nil {
		panic("source: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("source: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Load reads one input table using the registered factory for spec.Kind.
func Load(ctx context.Context, spec config.Source) (*Table, error) {
	if spec.Kind == "" {
		return nil, fmt.Errorf("source: missing kind")
	}

	mu.RLock()
	f := factories[spec.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("source: unsupported kind=%q", spec.Kind)
	}
	return f(ctx, spec.Path, spec.Options)
}
