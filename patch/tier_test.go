package patch

import "testing"

func TestTier_IsValid(t *testing.T) {
	tests := []struct {
		name string
		tier Tier
		want bool
	}{
		{"critical is valid", TierCritical, true},
		{"high is valid", TierHigh, true},
		{"medium is valid", TierMedium, true},
		{"low is valid", TierLow, true},
		{"empty is invalid", Tier(""), false},
		{"unknown is invalid", Tier("severe"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tier.IsValid(); got != tt.want {
				t.Errorf("Tier.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		input   string
		want    Tier
		wantErr bool
	}{
		{"critical", TierCritical, false},
		{"high", TierHigh, false},
		{"medium", TierMedium, false},
		{"low", TierLow, false},
		{"info", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseTier(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareTiers(t *testing.T) {
	tests := []struct {
		name string
		t1   Tier
		t2   Tier
		sign int
	}{
		{"critical > high", TierCritical, TierHigh, 1},
		{"high > medium", TierHigh, TierMedium, 1},
		{"medium > low", TierMedium, TierLow, 1},
		{"low < critical", TierLow, TierCritical, -1},
		{"equal tiers", TierHigh, TierHigh, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareTiers(tt.t1, tt.t2)
			if (got < 0 && tt.sign >= 0) || (got > 0 && tt.sign <= 0) || (got == 0 && tt.sign != 0) {
				t.Errorf("CompareTiers() = %v, want sign %v", got, tt.sign)
			}
		})
	}
}

func TestPatch_Slot(t *testing.T) {
	p := &Patch{RecordID: "CVE-1"}
	if p.Scheduled() {
		t.Error("new patch should not be scheduled")
	}
	if p.SlotOrdinal() != -1 {
		t.Errorf("SlotOrdinal() = %d, want -1 for unscheduled patch", p.SlotOrdinal())
	}

	slot := 3
	p.Slot = &slot
	if !p.Scheduled() {
		t.Error("patch with slot should be scheduled")
	}
	if p.SlotOrdinal() != 3 {
		t.Errorf("SlotOrdinal() = %d, want 3", p.SlotOrdinal())
	}
}

func TestPatch_AddTag(t *testing.T) {
	p := &Patch{RecordID: "CVE-1"}
	p.AddTag("PCI-DSS")
	p.AddTag("PCI-DSS")
	p.AddTag("HIPAA")

	if len(p.ComplianceTags) != 2 {
		t.Errorf("ComplianceTags = %v, want exactly two distinct tags", p.ComplianceTags)
	}
	if !p.HasTag("PCI-DSS") || !p.HasTag("HIPAA") {
		t.Errorf("ComplianceTags = %v, missing expected tags", p.ComplianceTags)
	}
}

func TestTier_EstimatedDuration(t *testing.T) {
	for _, tier := range AllTiers() {
		if tier.EstimatedDuration() == "" {
			t.Errorf("EstimatedDuration() empty for tier %s", tier)
		}
	}
}
