package switcher

import (
	"strings"

	"binocular/internal/types"

	"github.com/sahilm/fuzzy"
)

// searchable exposes records to the fuzzy matcher as "title process-name"
type searchable []types.WindowRecord

func (s searchable) String(i int) string {
	if name := s[i].ProcessName; name != nil {
		return s[i].Title + " " + *name
	}
	return s[i].Title
}

func (s searchable) Len() int {
	return len(s)
}

// FilterRecords returns the records fuzzily matching query, best match
// first. A blank query returns records unchanged.
func FilterRecords(records []types.WindowRecord, query string) []types.WindowRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return records
	}

	matches := fuzzy.FindFrom(query, searchable(records))
	result := make([]types.WindowRecord, 0, len(matches))
	for _, m := range matches {
		result = append(result, records[m.Index])
	}
	return result
}

// Search filters a copy of the current snapshot by query
func (r *Registry) Search(query string) []types.WindowRecord {
	return FilterRecords(r.Snapshot().Windows, query)
}
