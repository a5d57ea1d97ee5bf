// Package compliance tags scheduled patches with applicable regulatory
// frameworks and the audit evidence fields each framework requires.
package compliance

import (
	"sort"

	"github.com/patchplan-ai/engine/patch"
)

// Annotator applies a compliance policy to patches. Annotation is purely
// additive and idempotent: repeated passes with identical inputs never
// remove or overwrite a tag set by a prior pass.
type Annotator struct {
	policy Policy
}

// NewAnnotator creates an annotator with the given policy.
func NewAnnotator(policy Policy) *Annotator {
	return &Annotator{policy: policy}
}

// Annotate tags the patch with every framework triggered by its targets'
// declared regulatory classifications, plus the high-risk frameworks when
// the patch's risk score meets the policy threshold, and attaches the
// per-framework required evidence keys to the audit metadata.
//
// Classifications maps target identifier to its declared classifications;
// targets absent from the map trigger nothing.
func (a *Annotator) Annotate(p *patch.Patch, classifications map[string][]string) {
	var applicable []string

	for _, target := range p.Targets {
		for _, class := range classifications[target] {
			applicable = append(applicable, a.policy.Classifications[class]...)
		}
	}

	if len(a.policy.HighRiskFrameworks) > 0 && p.RiskScore >= a.policy.HighRiskThreshold {
		applicable = append(applicable, a.policy.HighRiskFrameworks...)
	}

	sort.Strings(applicable)
	for _, fw := range applicable {
		p.AddTag(fw)
	}

	for _, fw := range p.ComplianceTags {
		def, ok := a.policy.Frameworks[fw]
		if !ok {
			continue
		}
		if p.AuditMetadata == nil {
			p.AuditMetadata = make(map[string][]string)
		}
		if _, present := p.AuditMetadata[fw]; !present {
			p.AuditMetadata[fw] = append([]string(nil), def.EvidenceKeys...)
		}
	}
}

// AnnotateAll annotates every patch, scheduled or not, so unscheduled
// patches still surface their compliance obligations to operators.
func (a *Annotator) AnnotateAll(patches []*patch.Patch, classifications map[string][]string) {
	for _, p := range patches {
		a.Annotate(p, classifications)
	}
}

// StrictestTimeline resolves the most restrictive patch timeline among the
// patch's applicable frameworks, per the policy's timeline order. Returns
// an empty string when no tagged framework declares a timeline.
func (a *Annotator) StrictestTimeline(p *patch.Patch) string {
	rank := make(map[string]int, len(a.policy.TimelineOrder))
	for i, class := range a.policy.TimelineOrder {
		rank[class] = i
	}

	strictest := ""
	best := len(a.policy.TimelineOrder)
	for _, fw := range p.ComplianceTags {
		def, ok := a.policy.Frameworks[fw]
		if !ok || def.PatchTimeline == "" {
			continue
		}
		r, known := rank[def.PatchTimeline]
		if !known {
			continue
		}
		if r < best {
			best = r
			strictest = def.PatchTimeline
		}
	}
	return strictest
}
