// Package csvfile reads a delimited file into a source.Table.
//
// Header names are trimmed, lower-cased, and space-normalized so the role
// resolver sees a predictable shape; the normalized name is what downstream
// lookups use. Empty cells become nil so absence stays distinguishable from
// an empty string.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"moviesetl/internal/config"
	"moviesetl/internal/source"
)

func init() {
	source.Register("csv", Load)
}

// Load reads the whole file. Options:
//
//	comma       delimiter, default ","
//	encoding    "utf-8" (default), "latin1", "windows-1252"
//	lazy_quotes tolerate bare quotes, default false
func Load(ctx context.Context, path string, opt config.Options) (*source.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv source: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if enc, err := decoderFor(opt.String("encoding", "utf-8")); err != nil {
		return nil, err
	} else if enc != nil {
		r = transform.NewReader(f, enc.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv source %s: empty input", path)
	}
	if err != nil {
		return nil, fmt.Errorf("csv source %s: read header: %w", path, err)
	}

	columns := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		columns[i] = strings.ReplaceAll(strings.ToLower(h), " ", "_")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("csv source %s: no columns", path)
	}

	t := &source.Table{Columns: columns}
	line := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		line++
		if err != nil {
			// A malformed line is a cell-level problem, not a structural one:
			// skip it rather than failing the run.
			continue
		}

		row := make(source.Record, len(columns))
		for i, col := range columns {
			if i >= len(rec) {
				row[col] = nil
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v == "" {
				row[col] = nil
			} else {
				row[col] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
}

func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("csv source: unsupported encoding %q", name)
	}
}
