package docstore

import "strings"

// Document is one dataset row: a nested mapping of field names to values,
// plus a store-assigned identifier that is stable for the lifetime of the
// store. The identifier is what few-shot sampling uses to exclude the
// evaluation document, so duplicate-content rows stay distinguishable.
type Document struct {
	ID     int
	Fields map[string]any
}

// Field resolves a dotted path ("article.document") against the nested
// field mapping.
func (d Document) Field(path string) (any, bool) {
	cur := any(d.Fields)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Strings returns the field at path as a string slice. JSON decoding yields
// []any, so both representations are accepted. Missing or non-sequence
// fields return nil.
func (d Document) Strings(path string) []string {
	v, ok := d.Field(path)
	if !ok {
		return nil
	}
	switch seq := v.(type) {
	case []string:
		return seq
	case []any:
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	case string:
		return []string{seq}
	default:
		return nil
	}
}

// String returns the field at path as a string, or "" when absent.
func (d Document) String(path string) string {
	v, ok := d.Field(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
