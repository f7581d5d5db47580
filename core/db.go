package core

import "strings"

// Tables is a platform table prefix. It expands `{name}` placeholders in platform queries
// into prefixed table names, e.g. `{course}` -> `mdl_course`.
type Tables string

func (prefix Tables) Expand(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	for {
		start := strings.IndexByte(query, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(query[start:], '}')
		if end < 0 {
			break
		}
		b.WriteString(query[:start])
		b.WriteString(string(prefix))
		b.WriteString(query[start+1 : start+end])
		query = query[start+end+1:]
	}
	b.WriteString(query)
	return b.String()
}
