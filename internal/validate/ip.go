package validate

import (
	"net/netip"
	"strconv"
	"strings"

	"invclean/internal/domain"
)

// IP rejection reasons
const (
	ReasonWrongPartCount  = "wrong_part_count"
	ReasonNonNumeric      = "non_numeric"
	ReasonNegativeOctet   = "negative_octet"
	ReasonLeadingZero     = "leading_zero"
	ReasonOctetOutOfRange = "octet_out_of_range"
	ReasonInvalidIPv6     = "invalid_ipv6"
	ReasonZoneStripped    = "zone_stripped"
)

// IP validates an IPv4 or IPv6 address and returns its canonical text form.
// IPv4 must be four decimal octets in 0-255 without leading zeros, since
// "010" is read as octal by some tools and as decimal by others.
// IPv6 accepts any standard colon-hex form; a %zone suffix is dropped.
func IP(raw string) domain.FieldResult {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.Reject(domain.ReasonMissing, raw)
	}
	if strings.Contains(s, ":") {
		return ipv6(s, raw)
	}
	return ipv4(s, raw)
}

func ipv4(s, raw string) domain.FieldResult {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return domain.Reject(ReasonWrongPartCount, raw)
	}

	for _, p := range parts {
		if strings.HasPrefix(p, "-") && len(p) > 1 && isDigits(p[1:]) {
			return domain.Reject(ReasonNegativeOctet, raw)
		}
		if !isDigits(p) {
			return domain.Reject(ReasonNonNumeric, raw)
		}
		if len(p) > 1 && p[0] == '0' {
			return domain.Reject(ReasonLeadingZero, raw)
		}
		v, err := strconv.Atoi(p)
		if err != nil || v > 255 {
			return domain.Reject(ReasonOctetOutOfRange, raw)
		}
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return domain.Reject(ReasonNonNumeric, raw)
	}
	return domain.Accept(addr.String(), raw)
}

func ipv6(s, raw string) domain.FieldResult {
	zoned := false
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
		zoned = true
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return domain.Reject(ReasonInvalidIPv6, raw)
	}
	// ::ffff:a.b.c.d is an IPv4 host
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	result := domain.Accept(addr.String(), raw)
	if zoned {
		result.Reason = ReasonZoneStripped
	}
	return result
}

// isDigits reports whether s is a non-empty run of ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
