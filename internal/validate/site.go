package validate

import (
	"regexp"
	"strings"

	"invclean/internal/domain"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Site normalizes a site name: lowercased, whitespace runs collapsed to one hyphen.
// Sites are never rejected; an empty cell simply has no value.
func Site(raw string) domain.FieldResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Reject(domain.ReasonMissing, raw)
	}
	return domain.Accept(whitespaceRun.ReplaceAllString(strings.ToLower(s), "-"), raw)
}
