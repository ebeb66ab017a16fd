package validate

import (
	"strings"

	"invclean/internal/domain"
)

// FQDN normalizes a fully qualified name: trimmed, lowercased, without the root dot.
// Syntax is not checked; only emptiness rejects.
func FQDN(raw string) domain.FieldResult {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return domain.Reject(domain.ReasonMissing, raw)
	}
	return domain.Accept(s, raw)
}

// FQDNConsistent reports whether fqdn names the given host: either equal to it
// or starting with "hostname.". Both arguments are expected in normalized form.
func FQDNConsistent(hostname, fqdn string) bool {
	if hostname == "" || fqdn == "" {
		return false
	}
	return fqdn == hostname || strings.HasPrefix(fqdn, hostname+".")
}
