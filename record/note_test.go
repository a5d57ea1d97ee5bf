package record

import (
	"testing"
	"time"
)

func TestResolveNotes(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	later := base.Add(24 * time.Hour)

	tests := []struct {
		name     string
		notes    []VendorNote
		vulnID   string
		wantPrio Priority
		wantNil  bool
	}{
		{
			name:    "no notes",
			notes:   nil,
			vulnID:  "CVE-1",
			wantNil: true,
		},
		{
			name: "single note wins",
			notes: []VendorNote{
				{VulnerabilityID: "CVE-1", Priority: PriorityMedium, IssuedAt: base},
			},
			vulnID:   "CVE-1",
			wantPrio: PriorityMedium,
		},
		{
			name: "most recent wins",
			notes: []VendorNote{
				{VulnerabilityID: "CVE-1", Priority: PriorityCritical, IssuedAt: base},
				{VulnerabilityID: "CVE-1", Priority: PriorityLow, IssuedAt: later},
			},
			vulnID:   "CVE-1",
			wantPrio: PriorityLow,
		},
		{
			name: "equal timestamps broken by higher priority",
			notes: []VendorNote{
				{VulnerabilityID: "CVE-1", Priority: PriorityMedium, IssuedAt: base},
				{VulnerabilityID: "CVE-1", Priority: PriorityHigh, IssuedAt: base},
				{VulnerabilityID: "CVE-1", Priority: PriorityLow, IssuedAt: base},
			},
			vulnID:   "CVE-1",
			wantPrio: PriorityHigh,
		},
		{
			name: "notes for other vulnerabilities ignored",
			notes: []VendorNote{
				{VulnerabilityID: "CVE-2", Priority: PriorityCritical, IssuedAt: later},
				{VulnerabilityID: "CVE-1", Priority: PriorityLow, IssuedAt: base},
			},
			vulnID:   "CVE-1",
			wantPrio: PriorityLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := ResolveNotes(tt.notes)
			got := resolved[tt.vulnID]
			if tt.wantNil {
				if got != nil {
					t.Fatalf("ResolveNotes()[%s] = %+v, want nil", tt.vulnID, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ResolveNotes()[%s] = nil, want a note", tt.vulnID)
			}
			if got.Priority != tt.wantPrio {
				t.Errorf("resolved priority = %v, want %v", got.Priority, tt.wantPrio)
			}
		})
	}
}

func TestResolveNotes_Deterministic(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	notes := []VendorNote{
		{VulnerabilityID: "CVE-1", Priority: PriorityHigh, IssuedAt: base, Guidance: "first"},
		{VulnerabilityID: "CVE-1", Priority: PriorityHigh, IssuedAt: base, Guidance: "second"},
	}

	for i := 0; i < 10; i++ {
		resolved := ResolveNotes(notes)
		if resolved["CVE-1"].Guidance != "first" {
			t.Fatal("ResolveNotes should keep the first note when nothing supersedes it")
		}
	}
}
