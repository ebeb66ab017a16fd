package validate

import (
	"regexp"
	"strings"

	"invclean/internal/domain"
)

// ReasonInvalidFormat is the generic rejection for pattern-checked fields
const ReasonInvalidFormat = "invalid_format"

// macPattern accepts six colon- or six hyphen-separated octets, or three
// dot-separated 16-bit groups (Cisco style). Back-references are not available
// in RE2, so each separator gets its own alternative.
var macPattern = regexp.MustCompile(`^(?i:` +
	`[0-9a-f]{2}(?::[0-9a-f]{2}){5}` +
	`|[0-9a-f]{2}(?:-[0-9a-f]{2}){5}` +
	`|[0-9a-f]{4}(?:\.[0-9a-f]{4}){2}` +
	`)$`)

var macSeparators = strings.NewReplacer(":", "", "-", "", ".", "")

// MAC validates a MAC address and returns it as uppercase colon-separated octets
func MAC(raw string) domain.FieldResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Reject(domain.ReasonMissing, raw)
	}
	if !macPattern.MatchString(s) {
		return domain.Reject(ReasonInvalidFormat, raw)
	}

	hex := strings.ToUpper(macSeparators.Replace(s))
	groups := make([]string, 0, 6)
	for i := 0; i < len(hex); i += 2 {
		groups = append(groups, hex[i:i+2])
	}
	return domain.Accept(strings.Join(groups, ":"), raw)
}
