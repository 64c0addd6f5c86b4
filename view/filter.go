package view

import (
	"strings"
)

// Filter keeps the records where at least one of fields contains query, ignoring case.
// A blank query keeps everything in the original order. The input is never modified.
func Filter[R any](records []R, query string, fields []string, acc Accessor[R]) []R {
	if strings.TrimSpace(query) == "" {
		return append([]R(nil), records...)
	}
	needle := strings.ToLower(query)

	out := make([]R, 0, len(records))
	for _, rec := range records {
		if matches(rec, needle, fields, acc) {
			out = append(out, rec)
		}
	}
	return out
}

func matches[R any](rec R, needle string, fields []string, acc Accessor[R]) bool {
	for _, field := range fields {
		v, ok := acc(rec, field)
		if !ok || v == nil {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(v)), needle) {
			return true
		}
	}
	return false
}
