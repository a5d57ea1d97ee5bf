package record

import (
	"github.com/patchplan-ai/engine/planerr"
)

// VulnRecord represents a known vulnerability as supplied by the ingestion
// collaborator. Records are immutable once ingested.
type VulnRecord struct {
	// ID is the unique identifier for the vulnerability (e.g., "CVE-2024-12345").
	ID string `json:"id"`

	// Description provides detailed information about the vulnerability.
	Description string `json:"description"`

	// AffectedTargets lists the identifiers of the target systems the
	// vulnerability applies to.
	AffectedTargets []string `json:"affected_targets"`

	// BaseSeverity is the CVSS-like base severity score (0.0 to 10.0).
	BaseSeverity float64 `json:"base_severity"`
}

// Validate checks that the record carries all required fields and valid
// values. A violation is an ingestion error that aborts the run before
// scoring.
func (r *VulnRecord) Validate() error {
	if r.ID == "" {
		return planerr.New("ingest", planerr.ErrCodeIngestion, "record ID is required")
	}
	if len(r.AffectedTargets) == 0 {
		return planerr.New("ingest", planerr.ErrCodeIngestion, "record has no affected targets", r.ID)
	}
	for _, target := range r.AffectedTargets {
		if target == "" {
			return planerr.New("ingest", planerr.ErrCodeIngestion, "record has an empty target identifier", r.ID)
		}
	}
	if r.BaseSeverity < 0.0 || r.BaseSeverity > 10.0 {
		return planerr.New("ingest", planerr.ErrCodeIngestion, "base severity must be between 0.0 and 10.0", r.ID).
			WithDetails(map[string]any{"base_severity": r.BaseSeverity})
	}
	return nil
}
