package pocketbase

import "strings"

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote returns s as a double-quoted PocketBase filter string literal.
func Quote(s string) string {
	return `"` + filterEscaper.Replace(s) + `"`
}

// And joins non-empty filter expressions with &&.
func And(exprs ...string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, " && ")
}
