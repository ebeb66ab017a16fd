package domain

// Override categories: the fields an override entry may supply
const (
	OverrideDeviceType = ColumnDeviceType
	OverrideConfidence = FieldDeviceTypeConfidence
	OverrideOwnerEmail = FieldOwnerEmail
	OverrideOwnerTeam  = FieldOwnerTeam
)

// OverrideEntry holds externally supplied values for one row.
// Empty strings and a nil confidence mean "no override for that field".
type OverrideEntry struct {
	DeviceType string   `json:"device_type,omitempty" yaml:"device_type,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	OwnerTeam  string   `json:"owner_team,omitempty" yaml:"owner_team,omitempty"`
	OwnerEmail string   `json:"owner_email,omitempty" yaml:"owner_email,omitempty"`
}

// Get returns the override value for a category
func (e *OverrideEntry) Get(category string) (string, bool) {
	if e == nil {
		return "", false
	}
	var v string
	switch category {
	case OverrideDeviceType:
		v = e.DeviceType
	case OverrideOwnerEmail:
		v = e.OwnerEmail
	case OverrideOwnerTeam:
		v = e.OwnerTeam
	}
	return v, v != ""
}

// ConfidenceValue returns the supplied confidence, if any
func (e *OverrideEntry) ConfidenceValue() (float64, bool) {
	if e == nil || e.Confidence == nil {
		return 0, false
	}
	return *e.Confidence, true
}

// IsEmpty reports whether the entry supplies nothing
func (e *OverrideEntry) IsEmpty() bool {
	return e == nil || (e.DeviceType == "" && e.Confidence == nil && e.OwnerTeam == "" && e.OwnerEmail == "")
}

// OverrideSet maps a source row identifier to its override entry.
// It is built once before processing and only read afterwards.
type OverrideSet map[string]OverrideEntry

// Lookup returns the entry for a row
func (s OverrideSet) Lookup(rowID string) (*OverrideEntry, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s[rowID]
	if !ok {
		return nil, false
	}
	return &e, true
}

// HasOverride checks if an override exists for a row and category
func (s OverrideSet) HasOverride(rowID, category string) bool {
	e, ok := s.Lookup(rowID)
	if !ok {
		return false
	}
	if category == OverrideConfidence {
		_, ok := e.ConfidenceValue()
		return ok
	}
	_, ok = e.Get(category)
	return ok
}

// UnknownRows returns override row identifiers absent from the given set of known rows
func (s OverrideSet) UnknownRows(known map[string]bool) []string {
	var unknown []string
	for id := range s {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
