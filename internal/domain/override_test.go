package domain

import "testing"

func TestOverrideEntryGet(t *testing.T) {
	conf := 0.8
	entry := &OverrideEntry{
		DeviceType: "printer",
		Confidence: &conf,
		OwnerTeam:  "Facilities",
	}

	t.Run("returns set values", func(t *testing.T) {
		v, ok := entry.Get(OverrideDeviceType)
		if !ok || v != "printer" {
			t.Errorf("expected printer, got %q (ok=%v)", v, ok)
		}
		v, ok = entry.Get(OverrideOwnerTeam)
		if !ok || v != "Facilities" {
			t.Errorf("expected Facilities, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("empty field is not an override", func(t *testing.T) {
		if _, ok := entry.Get(OverrideOwnerEmail); ok {
			t.Error("expected no owner_email override")
		}
	})

	t.Run("nil entry has nothing", func(t *testing.T) {
		var nilEntry *OverrideEntry
		if _, ok := nilEntry.Get(OverrideDeviceType); ok {
			t.Error("expected nil entry to have no override")
		}
		if _, ok := nilEntry.ConfidenceValue(); ok {
			t.Error("expected nil entry to have no confidence")
		}
		if !nilEntry.IsEmpty() {
			t.Error("expected nil entry to be empty")
		}
	})

	t.Run("confidence value", func(t *testing.T) {
		c, ok := entry.ConfidenceValue()
		if !ok || c != 0.8 {
			t.Errorf("expected 0.8, got %v (ok=%v)", c, ok)
		}
	})
}

func TestOverrideSetHasOverride(t *testing.T) {
	conf := 0.5
	set := OverrideSet{
		"10": {DeviceType: "camera"},
		"11": {Confidence: &conf},
	}

	tests := []struct {
		row      string
		category string
		want     bool
	}{
		{"10", OverrideDeviceType, true},
		{"10", OverrideOwnerEmail, false},
		{"10", OverrideConfidence, false},
		{"11", OverrideConfidence, true},
		{"12", OverrideDeviceType, false},
	}

	for _, tt := range tests {
		if got := set.HasOverride(tt.row, tt.category); got != tt.want {
			t.Errorf("HasOverride(%q, %q) = %v, want %v", tt.row, tt.category, got, tt.want)
		}
	}

	t.Run("nil set", func(t *testing.T) {
		var nilSet OverrideSet
		if nilSet.HasOverride("10", OverrideDeviceType) {
			t.Error("expected nil set to have no overrides")
		}
	})
}

func TestOverrideSetUnknownRows(t *testing.T) {
	set := OverrideSet{
		"1": {DeviceType: "server"},
		"9": {DeviceType: "switch"},
	}
	unknown := set.UnknownRows(map[string]bool{"1": true, "2": true})
	if len(unknown) != 1 || unknown[0] != "9" {
		t.Errorf("expected [9], got %v", unknown)
	}
}
