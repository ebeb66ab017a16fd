package domain

import "testing"

func TestAddressableFieldsResolve(t *testing.T) {
	rec := FinalizedRecord{
		SourceRowID: "7",
		IP:          "10.0.0.7",
		MAC:         "AA:BB:CC:DD:EE:07",
		Hostname:    "host7",
		FQDN:        "host7.example.com",
		Site:        "dc-1",
		DeviceType:  DeviceTypeServer,
		OwnerEmail:  "ops@example.com",
		OwnerTeam:   "Ops",
		SubnetCIDR:  "10.0.0.0/24",
		ReversePTR:  "7.0.0.10.in-addr.arpa",
	}

	for _, name := range AddressableFields {
		if !IsAddressableField(name) {
			t.Errorf("IsAddressableField(%q) = false", name)
		}
		if rec.Field(name) == "" {
			t.Errorf("Field(%q) is empty", name)
		}
	}

	for _, name := range []string{FieldIPVersion, FieldFQDNConsistent, FieldNormalizationSteps, ColumnOwner, "fdqn"} {
		if IsAddressableField(name) {
			t.Errorf("IsAddressableField(%q) = true", name)
		}
	}
}
