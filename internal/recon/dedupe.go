package recon

import (
	"strings"

	"github.com/zeebo/xxh3"

	"moviesetl/internal/clean"
	"moviesetl/internal/source"
)

// DedupeRows removes byte-identical raw rows from a table, keeping the first
// occurrence and preserving row order. It returns the (possibly same) table
// and the number of rows dropped.
//
// Rows are keyed by an xxh3 hash over the canonicalized cells in column
// order. Missing cells hash differently from empty strings, so a row with a
// nil cell never collapses into a row with "" in the same position.
func DedupeRows(t *source.Table) (*source.Table, int) {
	if t == nil || len(t.Rows) < 2 {
		return t, 0
	}

	seen := make(map[xxh3.Uint128]struct{}, len(t.Rows))
	out := &source.Table{Columns: t.Columns, Rows: make([]source.Record, 0, len(t.Rows))}
	dropped := 0

	for _, row := range t.Rows {
		h := xxh3.HashString128(rowKey(t.Columns, row))
		if _, dup := seen[h]; dup {
			dropped++
			continue
		}
		seen[h] = struct{}{}
		out.Rows = append(out.Rows, row)
	}

	if dropped == 0 {
		return t, 0
	}
	return out, dropped
}

// rowKey builds the canonical string a row hashes over: cells in column
// order, 0x1f-separated, with 0x00 standing in for a missing cell.
func rowKey(columns []string, row source.Record) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		v, ok := clean.String(row[col])
		if !ok {
			b.WriteByte(0x00)
			continue
		}
		b.WriteString(v)
	}
	return b.String()
}
