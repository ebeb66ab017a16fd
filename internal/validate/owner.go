package validate

import (
	"regexp"
	"strings"

	"invclean/internal/domain"
)

// OwnerState is the terminal state of owner parsing
type OwnerState string

const (
	OwnerParsed    OwnerState = "parsed"    // Email and team both extracted
	OwnerPartial   OwnerState = "partial"   // Only one of the two extracted
	OwnerAmbiguous OwnerState = "ambiguous" // Neither extracted
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	teamPattern  = regexp.MustCompile(`\(\s*([^()]*?)\s*\)`)
)

// OwnerResult carries the two values extracted from an owner cell
type OwnerResult struct {
	State OwnerState
	Email domain.FieldResult
	Team  domain.FieldResult
}

// Parsed reports whether both values were extracted
func (o OwnerResult) Parsed() bool {
	return o.State == OwnerParsed
}

// Owner splits a free-text owner cell such as "jane.doe@example.com (Network Ops)"
// into an email and a team. Partial extraction is not accepted: downstream consumers
// need both values, so a lone email or lone team is reported as ambiguous.
func Owner(raw string) OwnerResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return OwnerResult{
			State: OwnerAmbiguous,
			Email: domain.Reject(domain.ReasonMissing, raw),
			Team:  domain.Reject(domain.ReasonMissing, raw),
		}
	}

	email := strings.ToLower(emailPattern.FindString(s))
	team := ""
	if m := teamPattern.FindStringSubmatch(s); m != nil {
		team = m[1]
	}

	switch {
	case email != "" && team != "":
		return OwnerResult{
			State: OwnerParsed,
			Email: domain.Accept(email, raw),
			Team:  domain.Accept(team, raw),
		}
	case email != "" || team != "":
		return OwnerResult{
			State: OwnerPartial,
			Email: domain.Reject(string(OwnerPartial), raw),
			Team:  domain.Reject(string(OwnerPartial), raw),
		}
	default:
		return OwnerResult{
			State: OwnerAmbiguous,
			Email: domain.Reject(string(OwnerAmbiguous), raw),
			Team:  domain.Reject(string(OwnerAmbiguous), raw),
		}
	}
}
