package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"invclean/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToBoolPtr converts sql.NullInt64 to *bool (NULL = unknown)
func nullToBoolPtr(ni sql.NullInt64) *bool {
	if !ni.Valid {
		return nil
	}
	b := ni.Int64 != 0
	return &b
}

// boolPtrToNull converts *bool to sql.NullInt64
func boolPtrToNull(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	if *b {
		return sql.NullInt64{Int64: 1, Valid: true}
	}
	return sql.NullInt64{Int64: 0, Valid: true}
}

// timeToNull converts a zero time to NULL
func timeToNull(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to nullable JSON string.
// Returns empty NullString for nil or empty maps and slices.
func marshalToNull(v interface{}) (sql.NullString, error) {
	switch t := v.(type) {
	case nil:
		return sql.NullString{}, nil
	case map[domain.IssueKind]int:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the records table:
// 1. Add field to recordRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update recordColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.FinalizedRecord
// 5. Update recordInsertArgs() and the placeholder count in SaveRun
// 6. Add the column to the CREATE TABLE in migrate()
//
// CRITICAL: Column order must match between:
// - recordColumns constant
// - scanArgs() return slice
// - recordInsertArgs() return slice
//
// Same pattern applies to runs.

// ============================================================================
// Run Row Scanner
// ============================================================================

// runRow holds all columns from a run query for scanning
type runRow struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Status       string
	Error        sql.NullString
	InputPath    string
	InputFormat  string
	OverridePath sql.NullString
	Rows         int
	RowsFlagged  int
	Anomalies    int
	Overrides    int
	ByKindJSON   sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match runColumns order exactly
func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,           // 1
		&r.StartedAt,    // 2
		&r.FinishedAt,   // 3
		&r.Status,       // 4
		&r.Error,        // 5
		&r.InputPath,    // 6
		&r.InputFormat,  // 7
		&r.OverridePath, // 8
		&r.Rows,         // 9
		&r.RowsFlagged,  // 10
		&r.Anomalies,    // 11
		&r.Overrides,    // 12
		&r.ByKindJSON,   // 13
	}
}

// toDomain converts the scanned row to a domain.Run
func (r *runRow) toDomain() (*domain.Run, error) {
	run := &domain.Run{
		ID:           r.ID,
		StartedAt:    r.StartedAt,
		Status:       domain.RunStatus(r.Status),
		Error:        nullToString(r.Error),
		InputPath:    r.InputPath,
		InputFormat:  r.InputFormat,
		OverridePath: nullToString(r.OverridePath),
		Rows:         r.Rows,
		RowsFlagged:  r.RowsFlagged,
		Anomalies:    r.Anomalies,
		Overrides:    r.Overrides,
	}
	if r.FinishedAt.Valid {
		run.FinishedAt = r.FinishedAt.Time
	}

	if err := unmarshalJSONField(r.ByKindJSON, &run.ByKind); err != nil {
		return nil, fmt.Errorf("unmarshal by_kind: %w", err)
	}

	return run, nil
}

// runColumns is the column list for run queries
const runColumns = `id, started_at, finished_at, status, error, input_path, input_format,
	override_path, row_count, rows_flagged, anomalies, overrides, by_kind`

// runInsertArgs prepares arguments for a run INSERT in runColumns order
func runInsertArgs(run *domain.Run) ([]interface{}, error) {
	byKind, err := marshalToNull(run.ByKind)
	if err != nil {
		return nil, fmt.Errorf("marshal by_kind: %w", err)
	}

	return []interface{}{
		run.ID,
		run.StartedAt.UTC(),
		timeToNull(run.FinishedAt),
		string(run.Status),
		stringToNull(run.Error),
		run.InputPath,
		run.InputFormat,
		stringToNull(run.OverridePath),
		run.Rows,
		run.RowsFlagged,
		run.Anomalies,
		run.Overrides,
		byKind,
	}, nil
}

// ============================================================================
// Record Row Scanner
// ============================================================================

// recordRow holds all columns from a record query for scanning
type recordRow struct {
	SourceRowID          string
	IP                   sql.NullString
	IPVersion            sql.NullInt64
	SubnetCIDR           sql.NullString
	ReversePTR           sql.NullString
	MAC                  sql.NullString
	Hostname             sql.NullString
	FQDN                 sql.NullString
	FQDNConsistent       sql.NullInt64
	OwnerEmail           sql.NullString
	OwnerTeam            sql.NullString
	Site                 sql.NullString
	DeviceType           string
	DeviceTypeConfidence float64
	StepsJSON            sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match recordColumns order exactly
func (r *recordRow) scanArgs() []interface{} {
	return []interface{}{
		&r.SourceRowID,          // 1
		&r.IP,                   // 2
		&r.IPVersion,            // 3
		&r.SubnetCIDR,           // 4
		&r.ReversePTR,           // 5
		&r.MAC,                  // 6
		&r.Hostname,             // 7
		&r.FQDN,                 // 8
		&r.FQDNConsistent,       // 9
		&r.OwnerEmail,           // 10
		&r.OwnerTeam,            // 11
		&r.Site,                 // 12
		&r.DeviceType,           // 13
		&r.DeviceTypeConfidence, // 14
		&r.StepsJSON,            // 15
	}
}

// toDomain converts the scanned row to a domain.FinalizedRecord
func (r *recordRow) toDomain() (*domain.FinalizedRecord, error) {
	rec := &domain.FinalizedRecord{
		SourceRowID:          r.SourceRowID,
		IP:                   nullToString(r.IP),
		IPVersion:            int(r.IPVersion.Int64),
		SubnetCIDR:           nullToString(r.SubnetCIDR),
		ReversePTR:           nullToString(r.ReversePTR),
		MAC:                  nullToString(r.MAC),
		Hostname:             nullToString(r.Hostname),
		FQDN:                 nullToString(r.FQDN),
		FQDNConsistent:       nullToBoolPtr(r.FQDNConsistent),
		OwnerEmail:           nullToString(r.OwnerEmail),
		OwnerTeam:            nullToString(r.OwnerTeam),
		Site:                 nullToString(r.Site),
		DeviceType:           domain.DeviceType(r.DeviceType),
		DeviceTypeConfidence: r.DeviceTypeConfidence,
	}

	if err := unmarshalJSONField(r.StepsJSON, &rec.NormalizationSteps); err != nil {
		return nil, fmt.Errorf("unmarshal normalization_steps: %w", err)
	}

	return rec, nil
}

// recordColumns is the column list for record queries
const recordColumns = `source_row_id, ip, ip_version, subnet_cidr, reverse_ptr, mac, hostname,
	fqdn, fqdn_consistent, owner_email, owner_team, site, device_type,
	device_type_confidence, normalization_steps`

// recordInsertArgs prepares arguments for a record INSERT in recordColumns order
func recordInsertArgs(rec *domain.FinalizedRecord) ([]interface{}, error) {
	steps, err := marshalToNull(rec.NormalizationSteps)
	if err != nil {
		return nil, fmt.Errorf("marshal normalization_steps: %w", err)
	}

	ipVersion := sql.NullInt64{}
	if rec.IPVersion != 0 {
		ipVersion = sql.NullInt64{Int64: int64(rec.IPVersion), Valid: true}
	}

	return []interface{}{
		rec.SourceRowID,
		stringToNull(rec.IP),
		ipVersion,
		stringToNull(rec.SubnetCIDR),
		stringToNull(rec.ReversePTR),
		stringToNull(rec.MAC),
		stringToNull(rec.Hostname),
		stringToNull(rec.FQDN),
		boolPtrToNull(rec.FQDNConsistent),
		stringToNull(rec.OwnerEmail),
		stringToNull(rec.OwnerTeam),
		stringToNull(rec.Site),
		string(rec.DeviceType),
		rec.DeviceTypeConfidence,
		steps,
	}, nil
}
