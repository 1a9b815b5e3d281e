package models

import (
	"errors"
	"fmt"
	"testing"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

func checklistJSON(trueCount int) []byte {
	keys := []string{
		"over_speed", "signal_missed", "unauthorized_operation",
		"improper_braking", "procedure_skipped", "delayed_report",
		"communication_failure", "device_misuse", "fatigue_violation",
	}
	out := "{"
	for i, key := range keys {
		if i > 0 {
			out += ","
		}
		value := "false"
		if i < trueCount {
			value = "true"
		}
		out += fmt.Sprintf("%q:%s", key, value)
	}
	out += "}"
	return []byte(out)
}

func TestParseFaultChecklistComplete(t *testing.T) {
	checklist, err := ParseFaultChecklist(checklistJSON(3))
	if err != nil {
		t.Fatalf("ParseFaultChecklist: %v", err)
	}
	if got := checklist.FaultCount(); got != 3 {
		t.Fatalf("FaultCount = %d, want 3", got)
	}
}

func TestParseFaultChecklistTolerantValues(t *testing.T) {
	raw := []byte(`{
		"over_speed": 1,
		"signal_missed": "true",
		"unauthorized_operation": "yes",
		"improper_braking": "0",
		"procedure_skipped": "no",
		"delayed_report": false,
		"communication_failure": 0,
		"device_misuse": "false",
		"fatigue_violation": "n"
	}`)
	checklist, err := ParseFaultChecklist(raw)
	if err != nil {
		t.Fatalf("ParseFaultChecklist: %v", err)
	}
	if got := checklist.FaultCount(); got != 3 {
		t.Fatalf("FaultCount = %d, want 3", got)
	}
}

func TestParseFaultChecklistRejectsMissingItem(t *testing.T) {
	raw := []byte(`{"over_speed": true}`)
	if _, err := ParseFaultChecklist(raw); !errors.Is(err, utils.ErrorInvalidChecklist) {
		t.Fatalf("err = %v, want ErrorInvalidChecklist", err)
	}
}

func TestParseFaultChecklistRejectsUnknownItem(t *testing.T) {
	raw := checklistJSON(0)
	raw = append(raw[:len(raw)-1], []byte(`,"made_up":true}`)...)
	if _, err := ParseFaultChecklist(raw); err == nil {
		t.Fatal("expected error for unknown checklist item")
	}
}

func TestParseFaultChecklistRejectsGarbageValue(t *testing.T) {
	raw := []byte(`{
		"over_speed": "maybe",
		"signal_missed": false,
		"unauthorized_operation": false,
		"improper_braking": false,
		"procedure_skipped": false,
		"delayed_report": false,
		"communication_failure": false,
		"device_misuse": false,
		"fatigue_violation": false
	}`)
	if _, err := ParseFaultChecklist(raw); !errors.Is(err, utils.ErrorInvalidChecklist) {
		t.Fatalf("err = %v, want ErrorInvalidChecklist", err)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		faultCount int
		tier       LiabilityTier
		coeff      string
	}{
		{1, LiabilityTierSecondary, "0.3"},
		{3, LiabilityTierSecondary, "0.3"},
		{4, LiabilityTierMajor, "0.6"},
		{6, LiabilityTierMajor, "0.6"},
		{7, LiabilityTierFull, "1"},
		{9, LiabilityTierFull, "1"},
	}
	for _, c := range cases {
		checklist, err := ParseFaultChecklist(checklistJSON(c.faultCount))
		if err != nil {
			t.Fatalf("ParseFaultChecklist(%d): %v", c.faultCount, err)
		}
		count, tier, coeff := AssessChecklist(checklist)
		if count != c.faultCount {
			t.Fatalf("count = %d, want %d", count, c.faultCount)
		}
		if tier != c.tier {
			t.Fatalf("tier for %d faults = %s, want %s", c.faultCount, tier, c.tier)
		}
		if coeff.String() != c.coeff {
			t.Fatalf("coefficient for %d faults = %s, want %s", c.faultCount, coeff, c.coeff)
		}
	}
}

func TestZeroFaultsYieldsNeutralCoefficient(t *testing.T) {
	checklist, err := ParseFaultChecklist(checklistJSON(0))
	if err != nil {
		t.Fatalf("ParseFaultChecklist: %v", err)
	}
	count, tier, coeff := AssessChecklist(checklist)
	if count != 0 || tier != "" {
		t.Fatalf("count = %d tier = %q, want 0 and empty tier", count, tier)
	}
	if !coeff.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("coefficient = %s, want 1", coeff)
	}
}
