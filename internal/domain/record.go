package domain

import "strings"

// Column names understood by the pipeline
const (
	ColumnSourceRowID = "source_row_id"
	ColumnIP          = "ip"
	ColumnMAC         = "mac"
	ColumnHostname    = "hostname"
	ColumnFQDN        = "fqdn"
	ColumnOwner       = "owner"
	ColumnSite        = "site"
	ColumnDeviceType  = "device_type"
	ColumnNotes       = "notes"
)

// InputColumns is the fixed set of named input columns
var InputColumns = []string{
	ColumnSourceRowID,
	ColumnIP,
	ColumnMAC,
	ColumnHostname,
	ColumnFQDN,
	ColumnOwner,
	ColumnSite,
	ColumnDeviceType,
	ColumnNotes,
}

// RawRecord is one input row: the row identifier plus the original column values
type RawRecord struct {
	SourceRowID string            `json:"source_row_id"`
	Fields      map[string]string `json:"fields"`
}

// NewRawRecord creates a raw record, copying the field map so later changes to the
// caller's map cannot leak in
func NewRawRecord(id string, fields map[string]string) RawRecord {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return RawRecord{SourceRowID: id, Fields: copied}
}

// Get returns the original value of a column, or "" when the column is absent
func (r RawRecord) Get(column string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[column]
}

// FieldResult is the outcome of validating or normalizing a single field
type FieldResult struct {
	// Value is the normalized value; empty when the field is absent
	Value string `json:"value,omitempty"`
	// Valid reports whether the input was accepted
	Valid bool `json:"valid"`
	// Reason explains a rejection (e.g. "octet_out_of_range"); "ok" on success
	Reason string `json:"reason,omitempty"`
	// Original is the untouched input, kept for anomaly reporting
	Original string `json:"original,omitempty"`
}

// Reasons shared by several validators
const (
	ReasonOK      = "ok"
	ReasonMissing = "missing"
)

// Accept builds a valid result
func Accept(value, original string) FieldResult {
	return FieldResult{Value: value, Valid: true, Reason: ReasonOK, Original: original}
}

// Reject builds an invalid result; the normalized value is always absent
func Reject(reason, original string) FieldResult {
	return FieldResult{Valid: false, Reason: reason, Original: original}
}

// HasValue reports whether a normalized value is present
func (f FieldResult) HasValue() bool {
	return f.Value != ""
}

// IsMissing reports whether the input was empty
func (f FieldResult) IsMissing() bool {
	return !f.Valid && f.Reason == ReasonMissing
}

// FinalizedRecord is one row's complete cleaned output
type FinalizedRecord struct {
	SourceRowID          string     `json:"source_row_id" yaml:"source_row_id"`
	IP                   string     `json:"ip,omitempty" yaml:"ip,omitempty"`
	IPVersion            int        `json:"ip_version,omitempty" yaml:"ip_version,omitempty"`
	SubnetCIDR           string     `json:"subnet_cidr,omitempty" yaml:"subnet_cidr,omitempty"`
	ReversePTR           string     `json:"reverse_ptr,omitempty" yaml:"reverse_ptr,omitempty"`
	MAC                  string     `json:"mac,omitempty" yaml:"mac,omitempty"`
	Hostname             string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	FQDN                 string     `json:"fqdn,omitempty" yaml:"fqdn,omitempty"`
	FQDNConsistent       *bool      `json:"fqdn_consistent,omitempty" yaml:"fqdn_consistent,omitempty"`
	OwnerEmail           string     `json:"owner_email,omitempty" yaml:"owner_email,omitempty"`
	OwnerTeam            string     `json:"owner_team,omitempty" yaml:"owner_team,omitempty"`
	Site                 string     `json:"site,omitempty" yaml:"site,omitempty"`
	DeviceType           DeviceType `json:"device_type" yaml:"device_type"`
	DeviceTypeConfidence float64    `json:"device_type_confidence" yaml:"device_type_confidence"`
	NormalizationSteps   []string   `json:"normalization_steps" yaml:"normalization_steps"`
}

// StepSeparator joins normalization steps in tabular output
const StepSeparator = "|"

// StepsString returns the normalization steps joined for tabular output
func (r *FinalizedRecord) StepsString() string {
	return strings.Join(r.NormalizationSteps, StepSeparator)
}

// AddressableFields are the names Field resolves; critical and duplicate
// field lists may only name these.
var AddressableFields = []string{
	ColumnSourceRowID,
	ColumnIP,
	ColumnMAC,
	ColumnHostname,
	ColumnFQDN,
	ColumnSite,
	ColumnDeviceType,
	FieldOwnerEmail,
	FieldOwnerTeam,
	FieldSubnetCIDR,
	FieldReversePTR,
}

// IsAddressableField reports whether Field resolves name
func IsAddressableField(name string) bool {
	for _, f := range AddressableFields {
		if f == name {
			return true
		}
	}
	return false
}

// Field returns the finalized value of a named output field, or "" if unset.
// Only string-valued fields are addressable.
func (r *FinalizedRecord) Field(name string) string {
	switch name {
	case ColumnSourceRowID:
		return r.SourceRowID
	case ColumnIP:
		return r.IP
	case ColumnMAC:
		return r.MAC
	case ColumnHostname:
		return r.Hostname
	case ColumnFQDN:
		return r.FQDN
	case ColumnSite:
		return r.Site
	case ColumnDeviceType:
		return string(r.DeviceType)
	case FieldOwnerEmail:
		return r.OwnerEmail
	case FieldOwnerTeam:
		return r.OwnerTeam
	case FieldSubnetCIDR:
		return r.SubnetCIDR
	case FieldReversePTR:
		return r.ReversePTR
	}
	return ""
}

// Output-only field names
const (
	FieldIPVersion            = "ip_version"
	FieldSubnetCIDR           = "subnet_cidr"
	FieldReversePTR           = "reverse_ptr"
	FieldFQDNConsistent       = "fqdn_consistent"
	FieldOwnerEmail           = "owner_email"
	FieldOwnerTeam            = "owner_team"
	FieldDeviceTypeConfidence = "device_type_confidence"
	FieldNormalizationSteps   = "normalization_steps"
)

// OutputColumns is the cleaned table column order: identifier first, then grouped fields
var OutputColumns = []string{
	ColumnSourceRowID,
	ColumnIP,
	FieldIPVersion,
	FieldSubnetCIDR,
	FieldReversePTR,
	ColumnMAC,
	ColumnHostname,
	ColumnFQDN,
	FieldFQDNConsistent,
	FieldOwnerEmail,
	FieldOwnerTeam,
	ColumnSite,
	ColumnDeviceType,
	FieldDeviceTypeConfidence,
	FieldNormalizationSteps,
}
