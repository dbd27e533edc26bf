package fieldmap

import (
	"strconv"
	"strings"

	"github.com/haoyun/navtable/internal/bitable"
)

// Normalizer resolves canonical fields out of raw record field maps.
// Normalization is pure and total: it never fails, unresolvable fields
// come back as the empty string and the caller decides what that means.
type Normalizer struct {
	mapping Mapping
}

// New builds a normalizer over the given column mapping.
func New(m Mapping) *Normalizer {
	if m.Read == nil {
		m = Default()
	}
	return &Normalizer{mapping: m}
}

// Text resolves a canonical field: each alias is tried in order and the
// first one whose value flattens to a non-empty string wins.
func (n *Normalizer) Text(fields bitable.Fields, canonical string) string {
	for _, alias := range n.mapping.Read[canonical] {
		v, ok := fields[alias]
		if !ok {
			continue
		}
		if s := Flatten(v); s != "" {
			return s
		}
	}
	return ""
}

// Int resolves a canonical field as an integer. ok is false when the
// field is absent, empty, or not numeric.
func (n *Normalizer) Int(fields bitable.Fields, canonical string) (int, bool) {
	s := n.Text(fields, canonical)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// WriteColumn returns the column name records are written under for a
// canonical field.
func (n *Normalizer) WriteColumn(canonical string) string {
	if col, ok := n.mapping.Write[canonical]; ok {
		return col
	}
	return canonical
}

// Flatten reduces a raw cell to a display string:
//   - strings pass through (trimmed)
//   - numbers and booleans are stringified
//   - arrays flatten each element and join the non-empty results with a
//     single space (multi-select columns)
//   - objects probe link, then text, then value; first non-empty wins
//     (hyperlink columns)
//   - anything else yields ""
func Flatten(v bitable.Value) string {
	if s, ok := v.Str(); ok {
		return strings.TrimSpace(s)
	}
	if f, ok := v.Num(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if b, ok := v.Bool(); ok {
		return strconv.FormatBool(b)
	}
	if elems, ok := v.Elems(); ok {
		parts := make([]string, 0, len(elems))
		for _, e := range elems {
			if s := Flatten(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	for _, key := range []string{"link", "text", "value"} {
		if m, ok := v.Member(key); ok {
			if s := Flatten(m); s != "" {
				return s
			}
		}
	}
	return ""
}
