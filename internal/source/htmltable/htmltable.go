// Package htmltable extracts a movies dataset published as an HTML table
// into a source.Table.
//
// The first row of <th> cells (or, failing that, the first row) becomes the
// header; subsequent rows map <td> text to those headers. Header names get
// the same normalization as the CSV source so role resolution behaves
// identically regardless of which source produced the table.
package htmltable

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"moviesetl/internal/config"
	"moviesetl/internal/source"
)

func init() {
	source.Register("html", Load)
}

// Load parses the HTML document at path. Options:
//
//	selector  CSS selector for the table element, default "table"
//
// The first element matched by selector is used. A document with no matching
// table, or a table with no header cells, is a structural failure.
func Load(ctx context.Context, path string, opt config.Options) (*source.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("html source: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("html source %s: parse: %w", path, err)
	}

	sel := opt.String("selector", "table")
	table := doc.Find(sel).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("html source %s: no table matches selector %q", path, sel)
	}

	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("html source %s: table has no rows", path)
	}

	var columns []string
	headerIdx := -1
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("th")
		if cells.Length() == 0 {
			return true
		}
		cells.Each(func(_ int, th *goquery.Selection) {
			columns = append(columns, normalizeHeader(th.Text()))
		})
		headerIdx = i
		return false
	})
	if headerIdx < 0 {
		// No <th> anywhere: treat the first row's <td> cells as the header.
		rows.First().Find("td").Each(func(_ int, td *goquery.Selection) {
			columns = append(columns, normalizeHeader(td.Text()))
		})
		headerIdx = 0
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("html source %s: table has no header cells", path)
	}

	t := &source.Table{Columns: columns}

	rows.Each(func(i int, tr *goquery.Selection) {
		if i <= headerIdx {
			return
		}
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}
		row := make(source.Record, len(columns))
		for j, col := range columns {
			if j >= tds.Length() {
				row[col] = nil
				continue
			}
			v := strings.TrimSpace(tds.Eq(j).Text())
			if v == "" {
				row[col] = nil
			} else {
				row[col] = v
			}
		}
		t.Rows = append(t.Rows, row)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return t, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}
