package risk

import (
	"sort"
	"sync"

	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/record"
)

// ContextSignal is the optional per-vulnerability relevance signal an
// external retrieval or inference collaborator may supply before scoring
// begins. Its absence omits the exploitation escalation it might carry;
// it never errors.
type ContextSignal struct {
	// VulnerabilityID references the record the signal applies to.
	VulnerabilityID string `json:"vulnerability_id"`

	// Exploited indicates the collaborator observed exploitation in the
	// wild for this vulnerability.
	Exploited bool `json:"exploited"`

	// Relevance is the collaborator's contextual relevance score
	// (0.0 to 1.0). Carried for reporting; it does not move the risk
	// score in the standard policy.
	Relevance float64 `json:"relevance,omitempty"`
}

// Scorer converts vulnerability records into patches with resolved risk
// scores and severity tiers. Scoring is a pure function over a fixed set
// of named signals: base severity, priority bonus, and exploitation floor.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the normalized risk score and severity tier for one
// record. The note and signal are both optional; identical inputs always
// produce identical output.
//
// The score is base severity normalized to [0,1], plus the vendor priority
// bonus when a note exists, plus the exploitation bonus when the note or
// signal indicates active exploitation, clamped to [0,1]. Exploitation
// also floors the tier at high regardless of the computed score.
func (s *Scorer) Score(rec *record.VulnRecord, note *record.VendorNote, signal *ContextSignal) (float64, patch.Tier) {
	score := rec.BaseSeverity / 10.0

	if note != nil {
		score += s.cfg.PriorityBonus[note.Priority]
	}

	exploited := (note != nil && note.Exploited) || (signal != nil && signal.Exploited)
	if exploited {
		score += s.cfg.ExploitationBonus
	}

	score = clamp01(score)

	tier := s.tierFor(score)
	if exploited && patch.CompareTiers(tier, patch.TierHigh) < 0 {
		tier = patch.TierHigh
	}

	return score, tier
}

// ScorePatch derives the Patch for one record, resolving its risk score
// and tier.
func (s *Scorer) ScorePatch(rec *record.VulnRecord, note *record.VendorNote, signal *ContextSignal) *patch.Patch {
	score, tier := s.Score(rec, note, signal)
	return &patch.Patch{
		RecordID:          rec.ID,
		Description:       rec.Description,
		Targets:           append([]string(nil), rec.AffectedTargets...),
		RiskScore:         score,
		Tier:              tier,
		Exploited:         (note != nil && note.Exploited) || (signal != nil && signal.Exploited),
		EstimatedDuration: tier.EstimatedDuration(),
	}
}

// Assess scores every record and returns one patch per record, ordered by
// record ID for determinism. Records carry no ordering dependency at this
// stage, so scoring fans out across cfg.Concurrency goroutines when
// configured.
func (s *Scorer) Assess(records []record.VulnRecord, notes map[string]*record.VendorNote, signals map[string]*ContextSignal) []*patch.Patch {
	ordered := make([]*record.VulnRecord, 0, len(records))
	for i := range records {
		ordered = append(ordered, &records[i])
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	patches := make([]*patch.Patch, len(ordered))

	workers := s.cfg.Concurrency
	if workers <= 1 {
		for i, rec := range ordered {
			patches[i] = s.ScorePatch(rec, notes[rec.ID], signals[rec.ID])
		}
		return patches
	}

	var wg sync.WaitGroup
	indexes := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rec := ordered[i]
				patches[i] = s.ScorePatch(rec, notes[rec.ID], signals[rec.ID])
			}
		}()
	}
	for i := range ordered {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return patches
}

// tierFor maps a clamped score to its severity tier. Monotonic: a higher
// score never yields a lower tier.
func (s *Scorer) tierFor(score float64) patch.Tier {
	switch {
	case score >= s.cfg.CriticalThreshold:
		return patch.TierCritical
	case score >= s.cfg.HighThreshold:
		return patch.TierHigh
	case score >= s.cfg.MediumThreshold:
		return patch.TierMedium
	default:
		return patch.TierLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
