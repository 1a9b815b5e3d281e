package models

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

func TestMultiplierForPosition(t *testing.T) {
	cases := []struct {
		position int
		want     string
	}{
		{1, "1"},
		{2, "1.5"},
		{3, "2"},
		{4, "2.5"},
		{10, "5.5"},
	}
	for _, c := range cases {
		if got := MultiplierForPosition(c.position); got.String() != c.want {
			t.Fatalf("MultiplierForPosition(%d) = %s, want %s", c.position, got, c.want)
		}
	}
}

func TestComputePoints(t *testing.T) {
	base := decimal.NewFromInt(-8)
	coeff := decimal.NewFromFloat(0.6)
	mult := decimal.NewFromFloat(1.5)
	actual, final := ComputePoints(base, coeff, mult)
	if actual.String() != "-4.8" {
		t.Fatalf("actual = %s, want -4.8", actual)
	}
	if final.String() != "-7.2" {
		t.Fatalf("final = %s, want -7.2", final)
	}
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func eligibleRecord(id int, date time.Time, base float64) AssessmentRecord {
	return AssessmentRecord{
		ID:                 id,
		EmployeeId:         1,
		Year:               date.Year(),
		Month:              int(date.Month()),
		EventDate:          date,
		BasePoints:         decimal.NewFromFloat(base),
		EscalationEligible: utils.NewTrue(),
		Coefficient:        decimal.NewFromInt(1),
		IsDeleted:          utils.NewFalse(),
	}
}

func TestRenumberAssessmentsOrdersByEventDate(t *testing.T) {
	records := []AssessmentRecord{
		eligibleRecord(30, day(10), -1),
		eligibleRecord(10, day(1), -1),
		eligibleRecord(20, day(5), -1),
	}
	out := RenumberAssessments(records)
	wantIds := []int{10, 20, 30}
	for i, id := range wantIds {
		if out[i].ID != id {
			t.Fatalf("position %d is record %d, want %d", i+1, out[i].ID, id)
		}
		if out[i].EscalationPosition == nil || *out[i].EscalationPosition != i+1 {
			t.Fatalf("record %d position = %v, want %d", id, out[i].EscalationPosition, i+1)
		}
	}
}

// Worked example from the program rules: three -1 penalties in one bucket on
// days 1, 5 and 10 carry multipliers 1, 1.5 and 2, so final points are -1.0,
// -1.5 and -2.0 and the score lands at 80 - 4.5 = 75.5. Removing the middle
// one promotes the day-10 record to position 2 and the score becomes 77.5.
func TestRenumberAssessmentsWorkedExample(t *testing.T) {
	records := []AssessmentRecord{
		eligibleRecord(1, day(1), -1),
		eligibleRecord(2, day(5), -1),
		eligibleRecord(3, day(10), -1),
	}
	out := RenumberAssessments(records)

	wantFinals := []string{"-1", "-1.5", "-2"}
	total := decimal.Zero
	for i, want := range wantFinals {
		if out[i].FinalPoints.String() != want {
			t.Fatalf("record %d final = %s, want %s", out[i].ID, out[i].FinalPoints, want)
		}
		total = total.Add(out[i].FinalPoints)
	}
	if score := BaselineScore.Add(total); score.String() != "75.5" {
		t.Fatalf("score = %s, want 75.5", score)
	}

	survivors := []AssessmentRecord{out[0], out[2]}
	out = RenumberAssessments(survivors)
	if *out[0].EscalationPosition != 1 || *out[1].EscalationPosition != 2 {
		t.Fatalf("positions after delete = %d,%d, want 1,2",
			*out[0].EscalationPosition, *out[1].EscalationPosition)
	}
	if out[1].FinalPoints.String() != "-1.5" {
		t.Fatalf("promoted record final = %s, want -1.5", out[1].FinalPoints)
	}
	total = out[0].FinalPoints.Add(out[1].FinalPoints)
	if score := BaselineScore.Add(total); score.String() != "77.5" {
		t.Fatalf("score after delete = %s, want 77.5", score)
	}
}

func TestRenumberAssessmentsIdempotent(t *testing.T) {
	records := []AssessmentRecord{
		eligibleRecord(1, day(3), -2),
		eligibleRecord(2, day(3), -2),
		eligibleRecord(3, day(8), -4),
	}
	first := RenumberAssessments(records)
	second := RenumberAssessments(first)
	for i := range first {
		if first[i].ID != second[i].ID ||
			*first[i].EscalationPosition != *second[i].EscalationPosition ||
			!first[i].FinalPoints.Equal(second[i].FinalPoints) {
			t.Fatalf("renumbering is not idempotent at index %d", i)
		}
	}
	// Same event date: lower id wins the earlier position.
	if first[0].ID != 1 || first[1].ID != 2 {
		t.Fatalf("tie-break order = %d,%d, want 1,2", first[0].ID, first[1].ID)
	}
}

func TestRenumberAssessmentsAppliesCoefficient(t *testing.T) {
	first := eligibleRecord(1, day(1), -8)
	first.Coefficient = decimal.NewFromFloat(0.6)
	second := eligibleRecord(2, day(2), -8)
	second.Coefficient = decimal.NewFromInt(1)

	out := RenumberAssessments([]AssessmentRecord{first, second})
	if out[0].FinalPoints.String() != "-4.8" {
		t.Fatalf("first final = %s, want -4.8", out[0].FinalPoints)
	}
	// Position 2: -8 x 1 x 1.5.
	if out[1].FinalPoints.String() != "-12" {
		t.Fatalf("second final = %s, want -12", out[1].FinalPoints)
	}
}

func TestRenumberAssessmentsDoesNotMutateInput(t *testing.T) {
	records := []AssessmentRecord{
		eligibleRecord(2, day(2), -1),
		eligibleRecord(1, day(1), -1),
	}
	RenumberAssessments(records)
	if records[0].ID != 2 {
		t.Fatal("input slice was reordered")
	}
	if records[0].EscalationPosition != nil {
		t.Fatal("input records were mutated")
	}
}

func TestValidateEventDate(t *testing.T) {
	if err := ValidateEventDate(time.Time{}); !errors.Is(err, utils.ErrorInvalidEventDate) {
		t.Fatalf("zero date: err = %v", err)
	}
	if err := ValidateEventDate(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, utils.ErrorInvalidEventDate) {
		t.Fatalf("pre-program date: err = %v", err)
	}
	if err := ValidateEventDate(time.Now().AddDate(0, 0, 7)); !errors.Is(err, utils.ErrorInvalidEventDate) {
		t.Fatalf("future date: err = %v", err)
	}
	if err := ValidateEventDate(time.Now().AddDate(0, 0, -3)); err != nil {
		t.Fatalf("recent date: err = %v", err)
	}
}

func TestPreviewLiabilityCalculation(t *testing.T) {
	checklist, err := ParseFaultChecklist(checklistJSON(5))
	if err != nil {
		t.Fatalf("ParseFaultChecklist: %v", err)
	}
	breakdown := PreviewLiabilityCalculation(decimal.NewFromInt(-8), checklist, 2)
	if breakdown.FaultCount != 5 || breakdown.Tier != LiabilityTierMajor {
		t.Fatalf("breakdown = %d faults / %s tier, want 5 / major", breakdown.FaultCount, breakdown.Tier)
	}
	if breakdown.ActualPoints.String() != "-4.8" {
		t.Fatalf("actual = %s, want -4.8", breakdown.ActualPoints)
	}
	if breakdown.FinalPoints.String() != "-7.2" {
		t.Fatalf("final = %s, want -7.2", breakdown.FinalPoints)
	}
}
