// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sink.warehouse.dsn").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

var knownSourceKinds = map[string]bool{"csv": true, "html": true}
var knownWarehouseKinds = map[string]bool{"postgres": true, "sqlite": true, "mssql": true}

// ValidatePipeline performs static validation of a Pipeline.
//
// It does not mutate the pipeline; it returns a slice of Issue values and
// callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use the default job name",
		})
	}

	issues = append(issues, validateSource("meta", p.Meta)...)
	issues = append(issues, validateSource("ratings", p.Ratings)...)
	issues = append(issues, validateSink(p.Sink)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  "source kind must not be empty",
		})
	} else if !knownSourceKinds[s.Kind] {
		// Unknown kinds are warnings for forward compatibility; the source
		// registry gives the authoritative answer at run time.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}

	if strings.TrimSpace(s.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".path",
			Message:  "source path must not be empty",
		})
	}

	return issues
}

func validateSink(s Sink) []Issue {
	var issues []Issue

	switch s.Kind {
	case "files":
		if strings.TrimSpace(s.Files.OutDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.files.out_dir",
				Message:  "out_dir must not be empty for the files sink",
			})
		}

	case "warehouse":
		if strings.TrimSpace(s.Warehouse.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.warehouse.kind",
				Message:  "warehouse kind must not be empty",
			})
		} else if !knownWarehouseKinds[s.Warehouse.Kind] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.warehouse.kind",
				Message:  fmt.Sprintf("unsupported warehouse kind %q", s.Warehouse.Kind),
			})
		}
		if strings.TrimSpace(s.Warehouse.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "sink.warehouse.dsn",
				Message:  "dsn must not be empty for the warehouse sink",
			})
		}
		if !s.Warehouse.Reset {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "sink.warehouse.reset",
				Message:  "reset is disabled; rows from prior runs survive unless overwritten by id",
			})
		}

	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  "sink kind must not be empty",
		})

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "sink.kind",
			Message:  fmt.Sprintf("unsupported sink kind %q (expected files or warehouse)", s.Kind),
		})
	}

	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	if r.LoaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.loader_workers",
			Message:  "loader_workers must not be negative",
		})
	}

	return issues
}
