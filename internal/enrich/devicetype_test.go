package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invclean/internal/domain"
)

func TestClassify(t *testing.T) {
	c := MustDefaultClassifier()

	tests := []struct {
		name       string
		deviceType string
		notes      string
		want       domain.DeviceType
		source     domain.ClassificationSource
	}{
		{"type column", "Core Switch", "", domain.DeviceTypeSwitch, domain.SourceDeviceType},
		{"case insensitive", "FIREWALL", "", domain.DeviceTypeFirewall, domain.SourceDeviceType},
		{"multi word keyword", "Ubiquiti access point", "", domain.DeviceTypeAccessPoint, domain.SourceDeviceType},
		{"notes only", "", "HP LaserJet on floor 3", domain.DeviceTypePrinter, domain.SourceNotes},
		{"type column beats notes", "server", "uplink to core switch", domain.DeviceTypeServer, domain.SourceDeviceType},
		{"rule order wins within text", "firewall and router", "", domain.DeviceTypeFirewall, domain.SourceDeviceType},
		{"whole words only", "laptop", "", domain.DeviceTypeWorkstation, domain.SourceDeviceType},
		{"no substring hit", "snapshot", "swapped", domain.DeviceTypeUnknown, domain.SourceNone},
		{"nothing", "", "", domain.DeviceTypeUnknown, domain.SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.deviceType, tt.notes)
			assert.Equal(t, tt.want, got.DeviceType)
			assert.Equal(t, tt.source, got.Source)
			assert.Equal(t, domain.SourceConfidence[tt.source], got.Confidence)
		})
	}
}

func TestClassifyUnknownHasLowConfidence(t *testing.T) {
	got := MustDefaultClassifier().Classify("widget", "misc")
	assert.Equal(t, domain.DeviceTypeUnknown, got.DeviceType)
	assert.Less(t, got.Confidence, domain.SourceConfidence[domain.SourceNotes])
	assert.Empty(t, got.Keyword)
}

func TestNewClassifierCustomRules(t *testing.T) {
	c, err := NewClassifier([]Rule{
		{Category: "badge_reader", Keywords: []string{"badge", " reader "}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	got := c.Classify("Door Reader", "")
	assert.Equal(t, domain.DeviceType("badge_reader"), got.DeviceType)
	assert.Equal(t, "reader", got.Keyword)
}

func TestNewClassifierErrors(t *testing.T) {
	_, err := NewClassifier([]Rule{{Category: "", Keywords: []string{"x"}}})
	assert.Error(t, err)

	_, err = NewClassifier([]Rule{{Category: "x", Keywords: []string{"  "}}})
	assert.Error(t, err)
}
