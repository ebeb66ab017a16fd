package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invclean/internal/domain"
	"invclean/internal/enrich"
	"invclean/internal/override"
)

func row(id string, fields map[string]string) domain.RawRecord {
	return domain.NewRawRecord(id, fields)
}

func boolPtr(b bool) *bool { return &b }

func kinds(anomalies []domain.Anomaly) map[string][]domain.IssueKind {
	out := make(map[string][]domain.IssueKind)
	for _, a := range anomalies {
		out[a.Field] = append(out[a.Field], a.IssueKind)
	}
	return out
}

func TestProcessRowClean(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("1", map[string]string{
		"ip":          "10.1.2.3",
		"mac":         "aa-bb-cc-dd-ee-ff",
		"hostname":    "Core-SW01",
		"fqdn":        "core-sw01.corp.example.com.",
		"owner":       "Jane.Doe@Example.com (Network Ops)",
		"site":        "HQ  Main",
		"device_type": "Cisco Catalyst",
	}))

	want := domain.FinalizedRecord{
		SourceRowID:          "1",
		IP:                   "10.1.2.3",
		IPVersion:            4,
		SubnetCIDR:           "10.1.2.0/24",
		ReversePTR:           "3.2.1.10.in-addr.arpa",
		MAC:                  "AA:BB:CC:DD:EE:FF",
		Hostname:             "core-sw01",
		FQDN:                 "core-sw01.corp.example.com",
		FQDNConsistent:       boolPtr(true),
		OwnerEmail:           "jane.doe@example.com",
		OwnerTeam:            "Network Ops",
		Site:                 "hq-main",
		DeviceType:           domain.DeviceTypeSwitch,
		DeviceTypeConfidence: 0.9,
		NormalizationSteps: []string{
			"ip:ok", "ip:enriched", "mac:ok", "hostname:ok", "fqdn:consistent",
			"owner:parsed", "site:normalized", "classify:device_type", "override:none",
			"sweep:complete",
		},
	}
	if diff := cmp.Diff(want, res.Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Anomalies)
	assert.Zero(t, res.Overrides)
}

func TestProcessRowNegativeOctetExample(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("10", map[string]string{
		"ip":       "192.168.1.-1",
		"hostname": "neg",
		"owner":    "",
		"notes":    "",
	}))

	assert.Empty(t, res.Record.IP)
	assert.Zero(t, res.Record.IPVersion)
	assert.Empty(t, res.Record.SubnetCIDR)
	assert.Equal(t, "neg", res.Record.Hostname)
	assert.Equal(t, domain.DeviceTypeUnknown, res.Record.DeviceType)
	assert.Contains(t, res.Record.NormalizationSteps, "ip:negative_octet")

	require.NotEmpty(t, res.Anomalies)
	first := res.Anomalies[0]
	assert.Equal(t, domain.NewAnomaly("10", "ip", domain.IssueInvalidFormat, "192.168.1.-1"), first)

	got := kinds(res.Anomalies)
	assert.Equal(t, []domain.IssueKind{domain.IssueUnclassifiedDeviceType}, got["device_type"])
	assert.Equal(t, []domain.IssueKind{domain.IssueUnparsedOwner}, got["owner"])
	for _, field := range []string{"mac", "fqdn", "site"} {
		assert.Equal(t, []domain.IssueKind{domain.IssueMissingCriticalField}, got[field], field)
	}
}

func TestProcessRowNegativeOctetWithOverride(t *testing.T) {
	p := NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{"10": {DeviceType: "camera"}}),
	})

	res := p.ProcessRow(row("10", map[string]string{"ip": "192.168.1.-1", "hostname": "neg"}))

	assert.Equal(t, domain.DeviceTypeCamera, res.Record.DeviceType)
	assert.Equal(t, 1.0, res.Record.DeviceTypeConfidence)
	assert.NotContains(t, kinds(res.Anomalies), "device_type")
	assert.Contains(t, res.Record.NormalizationSteps, "device_type_override")
	assert.Equal(t, 1, res.Overrides)
}

func TestProcessRowStepsPerStage(t *testing.T) {
	p := NewProcessor(Options{})
	res := p.ProcessRow(row("1", nil))

	assert.Equal(t, []string{
		"ip:missing", "mac:missing", "hostname:missing", "fqdn:missing", "owner:ambiguous",
		"site:missing", "classify:none", "override:none", "sweep:incomplete(5)",
	}, res.Record.NormalizationSteps)
	assert.Len(t, res.Anomalies, 5)
}

func TestProcessRowInvalidFormats(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("2", map[string]string{
		"ip":       "300.1.1.1",
		"mac":      "zz:zz:zz:zz:zz:zz",
		"hostname": "-bad-",
		"fqdn":     "bad.example.com",
		"site":     "lab",
	}))

	got := kinds(res.Anomalies)
	assert.Equal(t, []domain.IssueKind{domain.IssueInvalidFormat}, got["ip"])
	// Rejected MAC is absent after processing, so the sweep also flags it
	assert.Equal(t, []domain.IssueKind{domain.IssueInvalidFormat, domain.IssueMissingCriticalField}, got["mac"])
	assert.Equal(t, []domain.IssueKind{domain.IssueInvalidFormat}, got["hostname"])
	assert.Nil(t, res.Record.FQDNConsistent, "consistency is unknown without a hostname")
	assert.Contains(t, res.Record.NormalizationSteps, "fqdn:unchecked")
}

func TestProcessRowFQDNInconsistent(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("3", map[string]string{
		"hostname": "web01",
		"fqdn":     "web02.example.com",
	}))

	require.NotNil(t, res.Record.FQDNConsistent)
	assert.False(t, *res.Record.FQDNConsistent)
	assert.Equal(t, "web02.example.com", res.Record.FQDN, "inconsistent fqdn is kept")
	assert.Contains(t, res.Anomalies,
		domain.NewAnomaly("3", "fqdn", domain.IssueInconsistentWithHostname, "web02.example.com"))
}

func TestProcessRowIPv6(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("4", map[string]string{"ip": "FD00:0:0:0:0:0:0:1%eth0"}))

	assert.Equal(t, "fd00::1", res.Record.IP)
	assert.Equal(t, 6, res.Record.IPVersion)
	assert.Equal(t, "fd00::/64", res.Record.SubnetCIDR)
	assert.Contains(t, res.Record.NormalizationSteps, "ip:zone_stripped")
	assert.NotContains(t, kinds(res.Anomalies), "ip")
}

func TestProcessRowPublicIPHasNoSubnet(t *testing.T) {
	p := NewProcessor(Options{})

	res := p.ProcessRow(row("5", map[string]string{"ip": "8.8.8.8"}))

	assert.Equal(t, "8.8.8.8", res.Record.IP)
	assert.Empty(t, res.Record.SubnetCIDR)
	assert.Equal(t, "8.8.8.8.in-addr.arpa", res.Record.ReversePTR)
}

func TestProcessRowIdempotent(t *testing.T) {
	conf := 0.8
	p := NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{
			"7": {DeviceType: "printer", Confidence: &conf, OwnerTeam: "Facilities"},
		}),
	})
	raw := row("7", map[string]string{
		"ip":       "172.16.4.20",
		"mac":      "0011.2233.4455",
		"hostname": "PRN-3F",
		"owner":    "facilities@example.com",
		"notes":    "third floor",
	})

	first := p.ProcessRow(raw)
	second := p.ProcessRow(raw)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestOverridePrecedence(t *testing.T) {
	raw := row("8", map[string]string{"device_type": "Palo Alto firewall"})

	plain := NewProcessor(Options{}).ProcessRow(raw)
	require.Equal(t, domain.DeviceTypeFirewall, plain.Record.DeviceType)

	p := NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{"8": {DeviceType: "router"}}),
	})
	res := p.ProcessRow(raw)

	assert.Equal(t, domain.DeviceTypeRouter, res.Record.DeviceType)
	assert.Equal(t, 1.0, res.Record.DeviceTypeConfidence)
	assert.Equal(t, []string{"classify:device_type", "device_type_override"},
		res.Record.NormalizationSteps[6:8], "override applies after classification")
}

func TestOverrideOwnerCompletesPartialParse(t *testing.T) {
	p := NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{"9": {OwnerTeam: "Platform"}}),
	})

	res := p.ProcessRow(row("9", map[string]string{"owner": "ops@example.com"}))

	assert.Empty(t, res.Record.OwnerEmail, "partial parse keeps no email")
	assert.Equal(t, "Platform", res.Record.OwnerTeam)
	assert.Contains(t, kinds(res.Anomalies), "owner")

	p = NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{
			"9": {OwnerTeam: "Platform", OwnerEmail: "ops@example.com"},
		}),
	})
	res = p.ProcessRow(row("9", map[string]string{"owner": "ops@example.com"}))

	assert.Equal(t, "ops@example.com", res.Record.OwnerEmail)
	assert.NotContains(t, kinds(res.Anomalies), "owner")
	assert.Equal(t, 2, res.Overrides)
}

func TestOverrideConfidenceOnly(t *testing.T) {
	conf := 0.3
	p := NewProcessor(Options{
		Resolver: override.NewResolver(domain.OverrideSet{"11": {Confidence: &conf}}),
	})

	res := p.ProcessRow(row("11", map[string]string{"device_type": "core router"}))

	assert.Equal(t, domain.DeviceTypeRouter, res.Record.DeviceType)
	assert.Equal(t, 0.3, res.Record.DeviceTypeConfidence)
	assert.Contains(t, res.Record.NormalizationSteps, "device_type_confidence_override")
}

func TestCompletenessSweepMissingFQDN(t *testing.T) {
	p := NewProcessor(Options{})

	inputs := []map[string]string{
		{"mac": "AA:BB:CC:DD:EE:FF", "site": "lab", "hostname": "a", "device_type": "switch"},
		{"fqdn": "   ", "mac": "bad"},
		{"fqdn": ".", "ip": "10.0.0.1"},
	}
	for i, fields := range inputs {
		res := p.ProcessRow(row("r", fields))
		assert.Contains(t, res.Anomalies,
			domain.NewAnomaly("r", "fqdn", domain.IssueMissingCriticalField, fields["fqdn"]), "input %d", i)
	}
}

func TestCustomCriticalFieldsAndRules(t *testing.T) {
	classifier, err := enrich.NewClassifier([]enrich.Rule{
		{Category: "badge_reader", Keywords: []string{"badge"}},
	})
	require.NoError(t, err)
	ipEnricher := enrich.NewIPEnricher(16, 48)

	p := NewProcessor(Options{
		Classifier:     classifier,
		IPEnricher:     &ipEnricher,
		CriticalFields: []string{"hostname"},
	})
	res := p.ProcessRow(row("12", map[string]string{
		"ip":    "192.168.44.7",
		"notes": "badge door 4",
	}))

	assert.Equal(t, domain.DeviceType("badge_reader"), res.Record.DeviceType)
	assert.Equal(t, 0.6, res.Record.DeviceTypeConfidence)
	assert.Equal(t, "192.168.0.0/16", res.Record.SubnetCIDR)

	got := kinds(res.Anomalies)
	assert.Equal(t, []domain.IssueKind{domain.IssueMissingCriticalField}, got["hostname"])
	assert.NotContains(t, got, "mac")
	assert.NotContains(t, got, "fqdn")
}

func TestStages(t *testing.T) {
	p := NewProcessor(Options{})
	assert.Equal(t, []string{
		StageIP, StageMAC, StageHostname, StageFQDN, StageOwner,
		StageSite, StageClassify, StageOverride, StageSweep,
	}, p.Stages())
}
