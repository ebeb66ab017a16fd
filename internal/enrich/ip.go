// Package enrich derives secondary attributes from validated fields: IP facts
// (version, subnet guess, reverse pointer name) and a keyword-based device type.
package enrich

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Default subnet prefix lengths assumed for private addresses
const (
	DefaultIPv4Prefix = 24
	DefaultIPv6Prefix = 64
)

// IPFacts holds attributes derived from a valid address
type IPFacts struct {
	Version    int
	SubnetCIDR string // empty for public addresses
	ReversePTR string
}

// IPEnricher derives IPFacts using the configured subnet prefix lengths
type IPEnricher struct {
	IPv4Prefix int
	IPv6Prefix int
}

// NewIPEnricher creates an enricher; non-positive prefixes fall back to defaults
func NewIPEnricher(v4Prefix, v6Prefix int) IPEnricher {
	if v4Prefix <= 0 || v4Prefix > 32 {
		v4Prefix = DefaultIPv4Prefix
	}
	if v6Prefix <= 0 || v6Prefix > 128 {
		v6Prefix = DefaultIPv6Prefix
	}
	return IPEnricher{IPv4Prefix: v4Prefix, IPv6Prefix: v6Prefix}
}

// Enrich derives facts from a normalized address. It returns false when the
// address does not parse, in which case every derived field is absent.
func (e IPEnricher) Enrich(normalized string) (IPFacts, bool) {
	addr, err := netip.ParseAddr(normalized)
	if err != nil {
		return IPFacts{}, false
	}
	addr = addr.Unmap()

	facts := IPFacts{
		Version:    4,
		ReversePTR: ReversePointer(addr),
	}
	bits := e.IPv4Prefix
	if addr.Is6() {
		facts.Version = 6
		bits = e.IPv6Prefix
	}

	// Only RFC 1918 and fc00::/7 get a subnet guess; public space is too
	// varied for a fixed prefix to mean anything.
	if addr.IsPrivate() {
		if prefix, err := addr.Prefix(bits); err == nil {
			facts.SubnetCIDR = prefix.String()
		}
	}
	return facts, true
}

// ReversePointer returns the reverse-lookup domain name for an address,
// without the trailing root dot
func ReversePointer(addr netip.Addr) string {
	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa", b[3], b[2], b[1], b[0])
	}

	b := addr.As16()
	var sb strings.Builder
	for i := len(b) - 1; i >= 0; i-- {
		sb.WriteString(strconv.FormatUint(uint64(b[i]&0x0f), 16))
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(uint64(b[i]>>4), 16))
		sb.WriteByte('.')
	}
	sb.WriteString("ip6.arpa")
	return sb.String()
}
