// Package clean contains the scalar normalizers used during reconciliation.
//
// Every function here is total: any input (nil, empty, garbage) yields a
// value or an explicit "absent" result, never a panic or an error. Cell-level
// parse failures degrade to absent by design; callers decide what absent
// means for their field.
package clean

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order by Year for anything that is not a bare
// 4-digit year. The list covers the date encodings seen across the source
// datasets; extend cautiously, earlier layouts win.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Year extracts a calendar year from a raw cell.
//
// A stringified input of exactly 4 digits parses as the year directly; this
// must run before any date-layout attempt so a bare "1999" is never
// misread as a day or month. Anything else goes through the date layouts and
// the year component is taken. Unparsable input reports ok=false.
func Year(raw any) (year int, ok bool) {
	s, ok := stringify(raw)
	if !ok {
		return 0, false
	}
	s = trim(s)
	if s == "" {
		return 0, false
	}

	if len(s) == 4 && allDigits(s) {
		y, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return y, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// List normalizes a multi-valued cell into an ordered list of non-empty
// strings.
//
// The fallback order is load-bearing and must not be reordered, because real
// fields mix encodings:
//
//  1. nil / "" / "none" (any case)  -> empty list
//  2. "[...]" bracketed list literal -> split on ",", strip quotes+space
//  3. contains "|"                   -> split on "|"
//  4. contains ","                   -> split on ","
//  5. otherwise                      -> single-element list
func List(raw any) []string {
	s, ok := stringify(raw)
	if !ok {
		return nil
	}
	s = trim(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.Trim(s, "[]")
		var out []string
		for _, p := range strings.Split(inner, ",") {
			p = strings.Trim(trim(p), `'"`)
			p = trim(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	sep := ""
	switch {
	case strings.Contains(s, "|"):
		sep = "|"
	case strings.Contains(s, ","):
		sep = ","
	default:
		return []string{s}
	}

	var out []string
	for _, p := range strings.Split(s, sep) {
		p = trim(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Float coerces a raw cell into a float64. Numeric Go types pass through;
// strings are parsed. Non-numeric-looking input reports ok=false rather than
// an error (the errors="coerce" posture of the original pipeline, made
// explicit at the type level).
func Float(raw any) (float64, bool) {
	switch t := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := trim(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int coerces a raw cell into an int64 with Float's semantics; fractional
// values truncate toward zero.
func Int(raw any) (int64, bool) {
	f, ok := Float(raw)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// String renders a scalar cell as a trimmed string. nil (and unsupported
// types) report ok=false; every supported scalar renders the way the source
// wrote it.
func String(raw any) (string, bool) {
	s, ok := stringify(raw)
	if !ok {
		return "", false
	}
	return trim(s), true
}

// stringify renders a scalar cell as a string. nil reports ok=false; every
// other supported scalar renders the way the source wrote it.
func stringify(raw any) (string, bool) {
	switch t := raw.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case float64:
		// CSV cells are strings, but JSON-shaped sources decode numbers as
		// float64. Render integral values without the trailing ".0" so a
		// numeric 1999 still hits the 4-digit year path.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// hasEdgeSpace is an O(1) check that lets the hot path skip TrimSpace when
// there is nothing to trim.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[0] == '\t' || s[0] == '\n' || s[0] == '\r' ||
		s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\n' || s[len(s)-1] == '\r'
}

func trim(s string) string {
	if hasEdgeSpace(s) {
		return strings.TrimSpace(s)
	}
	return s
}
