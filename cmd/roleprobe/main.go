// Command roleprobe inspects an input table and reports which column the
// resolver assigns to each semantic role, plus a few sample rows normalized
// through the cleaning rules. Use it to sanity-check a new dataset export
// before wiring it into a pipeline config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"moviesetl/internal/clean"
	"moviesetl/internal/config"
	"moviesetl/internal/schema"
	"moviesetl/internal/source"

	_ "moviesetl/internal/source/csvfile"
	_ "moviesetl/internal/source/htmltable"
)

func main() {
	var (
		path     = flag.String("path", "", "input file path")
		kind     = flag.String("kind", "csv", "source kind (csv, html)")
		selector = flag.String("selector", "", "goquery selector for html sources")
		sample   = flag.Int("rows", 5, "number of sample rows to normalize")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: roleprobe -path <file> [-kind csv|html] [-rows n]")
		os.Exit(2)
	}

	opt := config.Options{}
	if *selector != "" {
		opt["selector"] = *selector
	}

	table, err := source.Load(context.Background(), config.Source{Kind: *kind, Path: *path, Options: opt})
	if err != nil {
		log.Fatalf("load: %v", err)
	}

	fmt.Printf("columns (%d): %s\n", len(table.Columns), strings.Join(table.Columns, ", "))
	fmt.Printf("rows: %d\n\n", len(table.Rows))

	roles := schema.Resolve(table.Columns)
	order := []schema.Role{
		schema.RoleID, schema.RoleTitle, schema.RoleDate, schema.RolePopularity,
		schema.RoleVoteCount, schema.RoleVoteAverage, schema.RoleGenre, schema.RoleDirector,
	}
	fmt.Println("resolved roles:")
	for _, role := range order {
		if col, ok := roles.Column(role); ok {
			fmt.Printf("  %-12s -> %s\n", role, col)
		} else {
			fmt.Printf("  %-12s -> (absent)\n", role)
		}
	}

	n := *sample
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	if n == 0 {
		return
	}

	fmt.Println("\nsample normalizations:")
	for i := 0; i < n; i++ {
		row := table.Rows[i]
		var parts []string

		if col, ok := roles.Column(schema.RoleTitle); ok {
			if s, ok := clean.String(row[col]); ok {
				parts = append(parts, fmt.Sprintf("title=%q", s))
			}
		}
		if col, ok := roles.Column(schema.RoleDate); ok {
			if y, ok := clean.Year(row[col]); ok {
				parts = append(parts, fmt.Sprintf("year=%d", y))
			} else {
				parts = append(parts, fmt.Sprintf("year=? (raw=%v)", row[col]))
			}
		}
		if col, ok := roles.Column(schema.RoleGenre); ok {
			parts = append(parts, fmt.Sprintf("genres=%v", clean.List(row[col])))
		}
		if col, ok := roles.Column(schema.RoleDirector); ok {
			parts = append(parts, fmt.Sprintf("directors=%v", clean.List(row[col])))
		}
		if col, ok := roles.Column(schema.RoleVoteCount); ok {
			if f, ok := clean.Float(row[col]); ok {
				parts = append(parts, fmt.Sprintf("vote_count=%d", int64(f)))
			}
		}

		fmt.Printf("  row %d: %s\n", i+1, strings.Join(parts, " "))
	}
}
