package patch

// Patch is the unit the pipeline schedules and reports on. Exactly one
// Patch is derived per vulnerability record; the mapping is a bijection.
//
// A Patch is created by the risk scorer and enriched in place by the later
// stages: the dependency graph builder fills PrerequisiteIDs, the scheduler
// fills Slot, and the compliance annotator fills ComplianceTags and
// AuditMetadata.
type Patch struct {
	// RecordID references the source vulnerability record.
	RecordID string `json:"record_id"`

	// Description is carried from the source record for reporting.
	Description string `json:"description,omitempty"`

	// Targets lists the target system identifiers the patch deploys to.
	Targets []string `json:"targets"`

	// RiskScore is the resolved, normalized risk score (0.0 to 1.0).
	RiskScore float64 `json:"risk_score"`

	// Tier is the resolved severity tier.
	Tier Tier `json:"tier"`

	// Exploited indicates active exploitation was signalled for the
	// source vulnerability.
	Exploited bool `json:"exploited"`

	// PrerequisiteIDs lists patches that must be deployed strictly before
	// this one.
	PrerequisiteIDs []string `json:"prerequisite_ids,omitempty"`

	// Slot is the assigned deployment slot ordinal. Nil until scheduled.
	Slot *int `json:"slot,omitempty"`

	// ComplianceTags lists the regulatory frameworks applicable to the
	// patch.
	ComplianceTags []string `json:"compliance_tags,omitempty"`

	// AuditMetadata maps each applicable framework to its required
	// evidence field keys. Values are filled by the reporting
	// collaborator; the engine only guarantees the keys.
	AuditMetadata map[string][]string `json:"audit_metadata,omitempty"`

	// EstimatedDuration is a coarse deployment duration estimate derived
	// from the tier.
	EstimatedDuration string `json:"estimated_duration,omitempty"`
}

// Scheduled reports whether the patch has an assigned deployment slot.
func (p *Patch) Scheduled() bool {
	return p.Slot != nil
}

// SlotOrdinal returns the assigned slot, or -1 if the patch is not
// scheduled.
func (p *Patch) SlotOrdinal() int {
	if p.Slot == nil {
		return -1
	}
	return *p.Slot
}

// HasTag reports whether the patch already carries the compliance tag.
func (p *Patch) HasTag(tag string) bool {
	for _, t := range p.ComplianceTags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag adds a compliance tag if it is not already present.
func (p *Patch) AddTag(tag string) {
	if !p.HasTag(tag) {
		p.ComplianceTags = append(p.ComplianceTags, tag)
	}
}
