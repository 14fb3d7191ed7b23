package platforms

import (
	"strings"
	"unicode"
)

// ExtractHashtags pulls #tags out of free text. Tags are lowercased and
// deduplicated; order of first appearance is kept (the field is a set, but
// deterministic output keeps re-ingestion byte-stable).
func ExtractHashtags(text string) []string {
	var tags []string
	seen := make(map[string]bool)

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") || len(f) < 2 {
			continue
		}
		tag := strings.ToLower(strings.TrimLeft(f, "#"))
		tag = strings.TrimFunc(tag, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
		})
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
