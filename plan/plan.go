// Package plan assembles scored, scheduled, annotated patches into the
// immutable plan document that is the engine's output artifact.
//
// The assembler is the final validation gate: a patch reaching it without
// a slot or a resolved tier is an internal invariant violation, reported
// as an assembly error rather than silently emitted.
package plan

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/planerr"
)

// Entry is one scheduled patch in the plan. The field set is structurally
// stable for downstream consumers; evolution is additive only.
type Entry struct {
	VulnerabilityID    string              `json:"vulnerability_id"`
	Description        string              `json:"description,omitempty"`
	RiskScore          float64             `json:"risk_score"`
	Tier               patch.Tier          `json:"tier"`
	Slot               int                 `json:"slot"`
	Targets            []string            `json:"targets"`
	Exploited          bool                `json:"exploited"`
	PrerequisiteIDs    []string            `json:"prerequisite_ids,omitempty"`
	ComplianceTags     []string            `json:"compliance_tags,omitempty"`
	AuditMetadata      map[string][]string `json:"audit_metadata,omitempty"`
	ComplianceTimeline string              `json:"compliance_timeline,omitempty"`
	EstimatedDuration  string              `json:"estimated_duration,omitempty"`
}

// UnscheduledEntry reports a patch the scheduler could not place. These
// need manual operator handling and are never dropped from the plan.
type UnscheduledEntry struct {
	VulnerabilityID string              `json:"vulnerability_id"`
	Tier            patch.Tier          `json:"tier"`
	RiskScore       float64             `json:"risk_score"`
	Reason          string              `json:"reason"`
	ComplianceTags  []string            `json:"compliance_tags,omitempty"`
	AuditMetadata   map[string][]string `json:"audit_metadata,omitempty"`
}

// Summary aggregates the plan for operator dashboards.
type Summary struct {
	TotalPatches       int                `json:"total_patches"`
	ScheduledPatches   int                `json:"scheduled_patches"`
	UnscheduledPatches int                `json:"unscheduled_patches"`
	CountsByTier       map[patch.Tier]int `json:"counts_by_tier"`
	FrameworksInvolved []string           `json:"frameworks_involved,omitempty"`
}

// Plan is the immutable output artifact. Entries are ordered by assigned
// slot ascending, ties broken by vulnerability ID; the unscheduled list is
// ordered by vulnerability ID.
type Plan struct {
	// ID uniquely identifies this plan generation.
	ID string `json:"id"`

	// GeneratedAt stamps when the plan was assembled.
	GeneratedAt time.Time `json:"generated_at"`

	// Entries lists every scheduled patch.
	Entries []Entry `json:"entries"`

	// Unscheduled lists every patch the scheduler could not place.
	Unscheduled []UnscheduledEntry `json:"unscheduled,omitempty"`

	// Summary aggregates the plan contents.
	Summary Summary `json:"summary"`
}

// Options configures plan assembly. The zero value uses uuid.NewString,
// time.Now, and no timeline resolution.
type Options struct {
	// Clock supplies the generated-at stamp. Injectable for deterministic
	// tests.
	Clock func() time.Time

	// NewID supplies the plan identifier. Injectable for deterministic
	// tests.
	NewID func() string

	// ResolveTimeline maps a patch to its strictest compliance timeline,
	// typically the annotator's StrictestTimeline method.
	ResolveTimeline func(*patch.Patch) string
}

// Assemble merges the scheduler's outputs into one plan document.
// Every scheduled patch must carry a slot and a valid tier; a violation
// returns an AssemblyError naming the offending patches, since it signals
// a defect in a prior stage rather than a user-facing condition.
func Assemble(scheduled []*patch.Patch, unscheduled []*patch.Patch, reasons map[string]string, opts Options) (*Plan, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	var invalid []string
	for _, p := range scheduled {
		if p.Slot == nil || !p.Tier.IsValid() {
			invalid = append(invalid, p.RecordID)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, planerr.New("assemble", planerr.ErrCodeAssembly,
			"patch reached assembly without a slot or resolved tier", invalid...)
	}

	p := &Plan{
		ID:          opts.NewID(),
		GeneratedAt: opts.Clock().UTC(),
		Entries:     make([]Entry, 0, len(scheduled)),
	}

	counts := make(map[patch.Tier]int)
	frameworks := make(map[string]struct{})

	for _, sp := range scheduled {
		entry := Entry{
			VulnerabilityID:   sp.RecordID,
			Description:       sp.Description,
			RiskScore:         sp.RiskScore,
			Tier:              sp.Tier,
			Slot:              *sp.Slot,
			Targets:           append([]string(nil), sp.Targets...),
			Exploited:         sp.Exploited,
			PrerequisiteIDs:   append([]string(nil), sp.PrerequisiteIDs...),
			ComplianceTags:    append([]string(nil), sp.ComplianceTags...),
			AuditMetadata:     copyMetadata(sp.AuditMetadata),
			EstimatedDuration: sp.EstimatedDuration,
		}
		if opts.ResolveTimeline != nil {
			entry.ComplianceTimeline = opts.ResolveTimeline(sp)
		}
		p.Entries = append(p.Entries, entry)

		counts[sp.Tier]++
		for _, fw := range sp.ComplianceTags {
			frameworks[fw] = struct{}{}
		}
	}

	sort.Slice(p.Entries, func(i, j int) bool {
		if p.Entries[i].Slot != p.Entries[j].Slot {
			return p.Entries[i].Slot < p.Entries[j].Slot
		}
		return p.Entries[i].VulnerabilityID < p.Entries[j].VulnerabilityID
	})

	for _, up := range unscheduled {
		p.Unscheduled = append(p.Unscheduled, UnscheduledEntry{
			VulnerabilityID: up.RecordID,
			Tier:            up.Tier,
			RiskScore:       up.RiskScore,
			Reason:          reasons[up.RecordID],
			ComplianceTags:  append([]string(nil), up.ComplianceTags...),
			AuditMetadata:   copyMetadata(up.AuditMetadata),
		})
		counts[up.Tier]++
		for _, fw := range up.ComplianceTags {
			frameworks[fw] = struct{}{}
		}
	}
	sort.Slice(p.Unscheduled, func(i, j int) bool {
		return p.Unscheduled[i].VulnerabilityID < p.Unscheduled[j].VulnerabilityID
	})

	p.Summary = Summary{
		TotalPatches:       len(scheduled) + len(unscheduled),
		ScheduledPatches:   len(scheduled),
		UnscheduledPatches: len(unscheduled),
		CountsByTier:       counts,
		FrameworksInvolved: sortedKeys(frameworks),
	}

	return p, nil
}

// MarshalIndent renders the plan as stable, indented JSON. Re-running the
// pipeline on identical inputs with an injected clock and ID yields
// byte-identical output.
func (p *Plan) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func copyMetadata(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
