package record

import (
	"fmt"
	"time"

	"github.com/patchplan-ai/engine/planerr"
)

// Priority represents the vendor-declared deployment priority of a note.
type Priority string

const (
	// PriorityCritical indicates the vendor asks for immediate deployment.
	PriorityCritical Priority = "critical"

	// PriorityHigh indicates the vendor asks for expedited deployment.
	PriorityHigh Priority = "high"

	// PriorityMedium indicates the vendor asks for routine deployment.
	PriorityMedium Priority = "medium"

	// PriorityLow indicates the vendor sets no urgency.
	PriorityLow Priority = "low"
)

// priorityRanks maps priorities to numeric ranks for comparison.
// Higher ranks indicate more urgent priorities.
var priorityRanks = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// IsValid returns true if the priority is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the numeric rank of the priority.
// Returns 0 for invalid priorities.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a string into a Priority value.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

// SideEffect represents a vendor-declared deployment side effect.
type SideEffect string

const (
	// SideEffectRequiresReboot indicates the target must be rebooted after
	// the patch is applied.
	SideEffectRequiresReboot SideEffect = "requires-reboot"

	// SideEffectBreakingChange indicates the patch changes observable
	// behavior of the target.
	SideEffectBreakingChange SideEffect = "breaking-change"

	// SideEffectServiceRestart indicates dependent services must be
	// restarted.
	SideEffectServiceRestart SideEffect = "service-restart"

	// SideEffectConfigMigration indicates configuration must be migrated
	// as part of deployment.
	SideEffectConfigMigration SideEffect = "config-migration"
)

// IsValid returns true if the side effect is a known value.
func (s SideEffect) IsValid() bool {
	switch s {
	case SideEffectRequiresReboot, SideEffectBreakingChange,
		SideEffectServiceRestart, SideEffectConfigMigration:
		return true
	default:
		return false
	}
}

// String returns the string representation of the side effect.
func (s SideEffect) String() string {
	return string(s)
}

// VendorNote carries vendor guidance attached to a vulnerability record.
// Notes are immutable once ingested.
type VendorNote struct {
	// VulnerabilityID references the VulnRecord the note applies to.
	VulnerabilityID string `json:"vulnerability_id"`

	// Guidance is the vendor's free-text deployment guidance.
	Guidance string `json:"guidance,omitempty"`

	// Priority is the vendor-declared deployment priority.
	Priority Priority `json:"priority"`

	// Exploited indicates the vendor has observed active exploitation.
	Exploited bool `json:"exploited"`

	// PrerequisiteIDs lists vulnerability identifiers whose patches must
	// be deployed before this one.
	PrerequisiteIDs []string `json:"prerequisite_ids,omitempty"`

	// SideEffects lists declared deployment side effects.
	SideEffects []SideEffect `json:"side_effects,omitempty"`

	// WindowHint is the vendor's recommended deployment window, free-form.
	WindowHint string `json:"window_hint,omitempty"`

	// IssuedAt is the time the vendor published the note. Used to pick a
	// winner when multiple notes exist for one vulnerability.
	IssuedAt time.Time `json:"issued_at"`
}

// Validate checks that the note carries all required fields.
func (n *VendorNote) Validate() error {
	if n.VulnerabilityID == "" {
		return planerr.New("ingest", planerr.ErrCodeIngestion, "vendor note has no vulnerability ID")
	}
	if !n.Priority.IsValid() {
		return planerr.New("ingest", planerr.ErrCodeIngestion,
			fmt.Sprintf("vendor note has invalid priority %q", n.Priority), n.VulnerabilityID)
	}
	for _, se := range n.SideEffects {
		if !se.IsValid() {
			return planerr.New("ingest", planerr.ErrCodeIngestion,
				fmt.Sprintf("vendor note has unknown side effect %q", se), n.VulnerabilityID)
		}
	}
	return nil
}

// ResolveNotes picks the authoritative note per vulnerability from a set
// that may contain zero, one, or many notes for each. The most recently
// issued note wins; equal timestamps are broken by higher declared
// priority.
func ResolveNotes(notes []VendorNote) map[string]*VendorNote {
	resolved := make(map[string]*VendorNote)
	for i := range notes {
		note := &notes[i]
		current, ok := resolved[note.VulnerabilityID]
		if !ok || supersedes(note, current) {
			resolved[note.VulnerabilityID] = note
		}
	}
	return resolved
}

// supersedes reports whether candidate should replace current as the
// authoritative note for a vulnerability.
func supersedes(candidate, current *VendorNote) bool {
	if candidate.IssuedAt.After(current.IssuedAt) {
		return true
	}
	if candidate.IssuedAt.Before(current.IssuedAt) {
		return false
	}
	return candidate.Priority.Rank() > current.Priority.Rank()
}
