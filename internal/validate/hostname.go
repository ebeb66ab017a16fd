package validate

import (
	"strings"

	"invclean/internal/domain"
)

// Hostname rejection reasons
const (
	ReasonTooLong      = "too_long"
	ReasonInvalidChars = "invalid_chars"
	ReasonHyphenEdge   = "hyphen_at_edge"
)

// MaxLabelLength is the RFC 1123 limit for a single DNS label
const MaxLabelLength = 63

// Hostname validates a single RFC 1123 label and returns it lowercased
func Hostname(raw string) domain.FieldResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Reject(domain.ReasonMissing, raw)
	}
	if len(s) > MaxLabelLength {
		return domain.Reject(ReasonTooLong, raw)
	}
	for i := 0; i < len(s); i++ {
		if !isLabelChar(s[i]) {
			return domain.Reject(ReasonInvalidChars, raw)
		}
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return domain.Reject(ReasonHyphenEdge, raw)
	}
	return domain.Accept(strings.ToLower(s), raw)
}

func isLabelChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-'
}
