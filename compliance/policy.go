package compliance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Framework describes one regulatory framework the annotator can tag
// patches with.
type Framework struct {
	// EvidenceKeys lists the audit evidence fields the framework requires
	// per patch. The engine guarantees the keys are present; values are
	// filled by the reporting collaborator.
	EvidenceKeys []string `yaml:"evidence_keys"`

	// Controls lists the framework's required controls, carried for
	// reporting.
	Controls []string `yaml:"controls,omitempty"`

	// PatchTimeline is the framework's remediation deadline class
	// (e.g., "within-30-days", "risk-based").
	PatchTimeline string `yaml:"patch_timeline,omitempty"`
}

// Policy maps target regulatory classifications to frameworks and carries
// the framework definitions.
type Policy struct {
	// Frameworks defines each framework by identifier (e.g., "PCI-DSS").
	Frameworks map[string]Framework `yaml:"frameworks"`

	// Classifications maps a target's declared regulatory classification
	// (e.g., "processes-payment-data") to the framework identifiers it
	// triggers.
	Classifications map[string][]string `yaml:"classifications"`

	// HighRiskFrameworks lists frameworks applied to any patch whose risk
	// score meets HighRiskThreshold, regardless of target classification.
	HighRiskFrameworks []string `yaml:"high_risk_frameworks,omitempty"`

	// HighRiskThreshold is the risk score at or above which
	// HighRiskFrameworks apply. Zero disables the rule only when
	// HighRiskFrameworks is empty.
	HighRiskThreshold float64 `yaml:"high_risk_threshold,omitempty"`

	// TimelineOrder ranks timeline classes from strictest to most
	// lenient, used to resolve the strictest applicable deadline.
	TimelineOrder []string `yaml:"timeline_order,omitempty"`
}

// DefaultPolicy returns the built-in compliance policy.
func DefaultPolicy() Policy {
	return Policy{
		Frameworks: map[string]Framework{
			"PCI-DSS": {
				EvidenceKeys:  []string{"scan-date", "remediation-date", "approver"},
				Controls:      []string{"vulnerability-management", "regular-testing", "access-controls"},
				PatchTimeline: "within-30-days",
			},
			"HIPAA": {
				EvidenceKeys:  []string{"risk-assessment-date", "security-officer", "remediation-date"},
				Controls:      []string{"security-risk-assessment", "assigned-security-responsibility"},
				PatchTimeline: "within-60-days",
			},
			"SOX": {
				EvidenceKeys:  []string{"change-ticket", "approver", "deployment-date"},
				Controls:      []string{"change-management", "access-controls", "monitoring"},
				PatchTimeline: "within-90-days",
			},
			"ISO27001": {
				EvidenceKeys:  []string{"risk-assessment-date", "remediation-date"},
				Controls:      []string{"vulnerability-management", "incident-response"},
				PatchTimeline: "risk-based",
			},
		},
		Classifications: map[string][]string{
			"processes-payment-data": {"PCI-DSS"},
			"stores-health-records":  {"HIPAA"},
			"financial-reporting":    {"SOX"},
			"general-production":     {"ISO27001"},
		},
		HighRiskFrameworks: []string{"ISO27001"},
		HighRiskThreshold:  0.7,
		TimelineOrder: []string{
			"within-30-days",
			"within-60-days",
			"within-90-days",
			"risk-based",
		},
	}
}

// Validate checks that every classification and high-risk rule references
// a defined framework.
func (p *Policy) Validate() error {
	for classification, frameworks := range p.Classifications {
		for _, fw := range frameworks {
			if _, ok := p.Frameworks[fw]; !ok {
				return fmt.Errorf("classification %q references undefined framework %q", classification, fw)
			}
		}
	}
	for _, fw := range p.HighRiskFrameworks {
		if _, ok := p.Frameworks[fw]; !ok {
			return fmt.Errorf("high-risk rule references undefined framework %q", fw)
		}
	}
	return nil
}

// LoadPolicy reads a compliance policy from a YAML file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read compliance policy: %w", err)
	}

	policy := Policy{}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse compliance policy: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid compliance policy: %w", err)
	}
	return policy, nil
}
