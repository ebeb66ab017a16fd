package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"invclean/internal/domain"
)

func TestIPv4Valid(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.1.2.3", "10.1.2.3"},
		{"192.168.5.9", "192.168.5.9"},
		{"8.8.8.8", "8.8.8.8"},
		{"0.0.0.0", "0.0.0.0"},
		{"255.255.255.255", "255.255.255.255"},
		{"  172.16.0.1 ", "172.16.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := IP(tt.input)
			assert.True(t, got.Valid)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, domain.ReasonOK, got.Reason)
			assert.Equal(t, tt.input, got.Original)
		})
	}
}

func TestIPv4AllOctetsAccepted(t *testing.T) {
	// Every octet value in every position, without leading zeros, is valid.
	for pos := 0; pos < 4; pos++ {
		for v := 0; v <= 255; v++ {
			octets := [4]int{1, 1, 1, 1}
			octets[pos] = v
			addr := fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], octets[3])
			got := IP(addr)
			if !got.Valid || got.Value != addr {
				t.Fatalf("IP(%q) = %+v, want valid", addr, got)
			}
		}
	}
}

func TestIPv4Invalid(t *testing.T) {
	tests := []struct {
		input  string
		reason string
	}{
		{"192.168.1.-1", ReasonNegativeOctet},
		{"192.168.1", ReasonWrongPartCount},
		{"1.2.3.4.5", ReasonWrongPartCount},
		{"256.1.1.1", ReasonOctetOutOfRange},
		{"1.2.3.99999999999999999999", ReasonOctetOutOfRange},
		{"10.0.0.abc", ReasonNonNumeric},
		{"10..0.1", ReasonNonNumeric},
		{"10.0.0.+1", ReasonNonNumeric},
		{"010.0.0.1", ReasonLeadingZero},
		{"10.0.0.00", ReasonLeadingZero},
		{"not-an-ip", ReasonWrongPartCount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := IP(tt.input)
			assert.False(t, got.Valid)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Empty(t, got.Value)
			assert.Equal(t, tt.input, got.Original)
		})
	}
}

func TestIPMissing(t *testing.T) {
	got := IP("   ")
	assert.False(t, got.Valid)
	assert.True(t, got.IsMissing())
}

func TestIPv6(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		valid  bool
		want   string
		reason string
	}{
		{"compressed", "2001:db8::1", true, "2001:db8::1", domain.ReasonOK},
		{"expanded", "2001:0DB8:0000:0000:0000:0000:0000:0001", true, "2001:db8::1", domain.ReasonOK},
		{"loopback", "::1", true, "::1", domain.ReasonOK},
		{"unique local", "fd12:3456:789a:1::10", true, "fd12:3456:789a:1::10", domain.ReasonOK},
		{"zoned", "fe80::1%eth0", true, "fe80::1", ReasonZoneStripped},
		{"ipv4 mapped", "::ffff:10.1.2.3", true, "10.1.2.3", domain.ReasonOK},
		{"ipv4 mapped hex", "::FFFF:0a01:0203", true, "10.1.2.3", domain.ReasonOK},
		{"double compression", "2001::db8::1", false, "", ReasonInvalidIPv6},
		{"bad hex", "2001:db8::zz", false, "", ReasonInvalidIPv6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IP(tt.input)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
