// Package pipeline turns raw inventory rows into finalized records and an
// anomaly report.
//
// Each row passes through a fixed sequence of named stages:
//
//	ip -> mac -> hostname -> fqdn -> owner -> site -> classify -> override -> sweep
//
// Stages never abort each other. A failing stage leaves its field absent,
// records an anomaly and appends a step tag so the audit trail shows what
// happened. Rows share no mutable state, so the row pass runs on a worker pool;
// the duplicate auditor runs once every row is finalized.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"invclean/internal/domain"
	"invclean/internal/enrich"
	"invclean/internal/override"
	"invclean/internal/validate"
)

// Stage names, in execution order
const (
	StageIP       = "ip"
	StageMAC      = "mac"
	StageHostname = "hostname"
	StageFQDN     = "fqdn"
	StageOwner    = "owner"
	StageSite     = "site"
	StageClassify = "classify"
	StageOverride = "override"
	StageSweep    = "sweep"
)

// Step outcomes that are not validator reasons
const (
	outcomeEnriched     = "enriched"
	outcomeConsistent   = "consistent"
	outcomeInconsistent = "inconsistent"
	outcomeUnchecked    = "unchecked"
	outcomeNormalized   = "normalized"
	outcomeNone         = "none"
	outcomeComplete     = "complete"
	outcomeIncomplete   = "incomplete"
)

// Options configures a Processor. Zero values select defaults.
type Options struct {
	Classifier     *enrich.Classifier
	IPEnricher     *enrich.IPEnricher
	Resolver       *override.Resolver
	CriticalFields []string
	Logger         *zap.Logger
}

// Processor runs the row stages. It holds only read-only configuration and is
// safe for concurrent use.
type Processor struct {
	classifier     *enrich.Classifier
	ipEnricher     enrich.IPEnricher
	resolver       *override.Resolver
	criticalFields []string
	logger         *zap.Logger
	stages         []stage
}

type stage struct {
	name string
	run  func(p *Processor, s *rowState)
}

// rowState carries one row through the stages
type rowState struct {
	raw       domain.RawRecord
	record    domain.FinalizedRecord
	anomalies []domain.Anomaly

	hostname       domain.FieldResult
	owner          validate.OwnerResult
	classification enrich.Classification
	overrides      int
}

// RowResult is the terminal output of one row
type RowResult struct {
	Record    domain.FinalizedRecord
	Anomalies []domain.Anomaly
	// Overrides counts override applications on this row
	Overrides int
}

// NewProcessor creates a processor
func NewProcessor(opts Options) *Processor {
	p := &Processor{
		classifier:     opts.Classifier,
		resolver:       opts.Resolver,
		criticalFields: opts.CriticalFields,
		logger:         opts.Logger,
	}
	if p.classifier == nil {
		p.classifier = enrich.MustDefaultClassifier()
	}
	if opts.IPEnricher != nil {
		p.ipEnricher = *opts.IPEnricher
	} else {
		p.ipEnricher = enrich.NewIPEnricher(enrich.DefaultIPv4Prefix, enrich.DefaultIPv6Prefix)
	}
	if p.resolver == nil {
		p.resolver = override.NewResolver(nil)
	}
	if len(p.criticalFields) == 0 {
		p.criticalFields = DefaultCriticalFields
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	p.stages = []stage{
		{StageIP, (*Processor).validateIP},
		{StageMAC, (*Processor).validateMAC},
		{StageHostname, (*Processor).validateHostname},
		{StageFQDN, (*Processor).checkFQDN},
		{StageOwner, (*Processor).parseOwner},
		{StageSite, (*Processor).normalizeSite},
		{StageClassify, (*Processor).classify},
		{StageOverride, (*Processor).applyOverrides},
		{StageSweep, (*Processor).sweep},
	}
	return p
}

// DefaultCriticalFields are the fields that must be present after processing
var DefaultCriticalFields = []string{domain.ColumnMAC, domain.ColumnFQDN, domain.ColumnSite}

// Stages returns the stage names in execution order
func (p *Processor) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.name
	}
	return names
}

// Resolver returns the override resolver in use
func (p *Processor) Resolver() *override.Resolver {
	return p.resolver
}

// ProcessRow runs every stage over one row. It depends only on the row and the
// processor's read-only configuration, so repeated calls give equal results.
func (p *Processor) ProcessRow(raw domain.RawRecord) RowResult {
	s := &rowState{
		raw: raw,
		record: domain.FinalizedRecord{
			SourceRowID:        raw.SourceRowID,
			DeviceType:         domain.DeviceTypeUnknown,
			NormalizationSteps: make([]string, 0, len(p.stages)+2),
		},
	}

	for _, st := range p.stages {
		st.run(p, s)
	}

	p.logger.Debug("row processed",
		zap.String("row", raw.SourceRowID),
		zap.Int("anomalies", len(s.anomalies)),
		zap.Int("overrides", s.overrides))

	return RowResult{Record: s.record, Anomalies: s.anomalies, Overrides: s.overrides}
}

func (s *rowState) step(stageName, outcome string) {
	s.record.NormalizationSteps = append(s.record.NormalizationSteps, stageName+":"+outcome)
}

func (s *rowState) flag(field string, kind domain.IssueKind, original string) {
	s.anomalies = append(s.anomalies, domain.NewAnomaly(s.raw.SourceRowID, field, kind, original))
}

// flagInvalid records an InvalidFormat anomaly for a rejected, non-empty input.
// Empty inputs are left to the completeness sweep.
func (s *rowState) flagInvalid(field string, r domain.FieldResult) {
	if !r.Valid && !r.IsMissing() {
		s.flag(field, domain.IssueInvalidFormat, r.Original)
	}
}

func (p *Processor) validateIP(s *rowState) {
	r := validate.IP(s.raw.Get(domain.ColumnIP))
	s.step(StageIP, r.Reason)
	s.flagInvalid(domain.ColumnIP, r)
	if !r.Valid {
		return
	}

	s.record.IP = r.Value
	facts, ok := p.ipEnricher.Enrich(r.Value)
	if !ok {
		return
	}
	s.record.IPVersion = facts.Version
	s.record.SubnetCIDR = facts.SubnetCIDR
	s.record.ReversePTR = facts.ReversePTR
	s.step(StageIP, outcomeEnriched)
}

func (p *Processor) validateMAC(s *rowState) {
	r := validate.MAC(s.raw.Get(domain.ColumnMAC))
	s.step(StageMAC, r.Reason)
	s.flagInvalid(domain.ColumnMAC, r)
	s.record.MAC = r.Value
}

func (p *Processor) validateHostname(s *rowState) {
	r := validate.Hostname(s.raw.Get(domain.ColumnHostname))
	s.step(StageHostname, r.Reason)
	s.flagInvalid(domain.ColumnHostname, r)
	s.hostname = r
	s.record.Hostname = r.Value
}

func (p *Processor) checkFQDN(s *rowState) {
	r := validate.FQDN(s.raw.Get(domain.ColumnFQDN))
	s.record.FQDN = r.Value

	switch {
	case !r.Valid:
		s.step(StageFQDN, r.Reason)
	case !s.hostname.HasValue():
		s.step(StageFQDN, outcomeUnchecked)
	case validate.FQDNConsistent(s.hostname.Value, r.Value):
		consistent := true
		s.record.FQDNConsistent = &consistent
		s.step(StageFQDN, outcomeConsistent)
	default:
		consistent := false
		s.record.FQDNConsistent = &consistent
		s.step(StageFQDN, outcomeInconsistent)
		s.flag(domain.ColumnFQDN, domain.IssueInconsistentWithHostname, r.Original)
	}
}

func (p *Processor) parseOwner(s *rowState) {
	s.owner = validate.Owner(s.raw.Get(domain.ColumnOwner))
	s.step(StageOwner, string(s.owner.State))
	s.record.OwnerEmail = s.owner.Email.Value
	s.record.OwnerTeam = s.owner.Team.Value
}

func (p *Processor) normalizeSite(s *rowState) {
	r := validate.Site(s.raw.Get(domain.ColumnSite))
	if r.HasValue() {
		s.step(StageSite, outcomeNormalized)
	} else {
		s.step(StageSite, r.Reason)
	}
	s.record.Site = r.Value
}

func (p *Processor) classify(s *rowState) {
	c := p.classifier.Classify(s.raw.Get(domain.ColumnDeviceType), s.raw.Get(domain.ColumnNotes))
	s.classification = c
	s.record.DeviceType = c.DeviceType
	s.record.DeviceTypeConfidence = c.Confidence
	s.step(StageClassify, string(c.Source))
}

func (p *Processor) applyOverrides(s *rowState) {
	id := s.raw.SourceRowID
	before := s.overrides

	typeResult := domain.FieldResult{
		Value:    string(s.classification.DeviceType),
		Valid:    s.classification.DeviceType.IsKnown(),
		Original: s.raw.Get(domain.ColumnDeviceType),
	}
	resolved, typeOverridden := p.resolver.Resolve(id, domain.OverrideDeviceType, typeResult)
	if typeOverridden {
		s.record.DeviceType = domain.DeviceType(resolved.Value)
		s.applied(domain.OverrideDeviceType)
	}

	confidence, confOverridden := p.resolver.ResolveConfidence(id, s.classification.Confidence, typeOverridden)
	s.record.DeviceTypeConfidence = confidence
	if confOverridden {
		s.applied(domain.OverrideConfidence)
	}

	if r, ok := p.resolver.Resolve(id, domain.OverrideOwnerEmail, s.owner.Email); ok {
		s.record.OwnerEmail = r.Value
		s.applied(domain.OverrideOwnerEmail)
	}
	if r, ok := p.resolver.Resolve(id, domain.OverrideOwnerTeam, s.owner.Team); ok {
		s.record.OwnerTeam = r.Value
		s.applied(domain.OverrideOwnerTeam)
	}

	if s.overrides == before {
		s.step(StageOverride, outcomeNone)
	}
}

func (s *rowState) applied(category string) {
	s.overrides++
	s.record.NormalizationSteps = append(s.record.NormalizationSteps, category+"_"+override.ReasonOverride)
}

// sweep runs the isolated end-of-row checks. Each check reads only the
// finalized record, so running it again adds nothing new.
func (p *Processor) sweep(s *rowState) {
	before := len(s.anomalies)

	for _, field := range p.criticalFields {
		if s.record.Field(field) == "" {
			s.flag(field, domain.IssueMissingCriticalField, s.raw.Get(field))
		}
	}
	if !s.record.DeviceType.IsKnown() {
		s.flag(domain.ColumnDeviceType, domain.IssueUnclassifiedDeviceType, s.raw.Get(domain.ColumnDeviceType))
	}
	if s.record.OwnerEmail == "" || s.record.OwnerTeam == "" {
		s.flag(domain.ColumnOwner, domain.IssueUnparsedOwner, s.raw.Get(domain.ColumnOwner))
	}

	if len(s.anomalies) > before {
		s.step(StageSweep, fmt.Sprintf("%s(%d)", outcomeIncomplete, len(s.anomalies)-before))
	} else {
		s.step(StageSweep, outcomeComplete)
	}
}
