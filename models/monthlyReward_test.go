package models

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

func penaltyRecord(bucket Bucket, category StandardCategory) AssessmentRecord {
	return AssessmentRecord{
		EmployeeId:  1,
		Category:    category,
		Bucket:      bucket,
		EventDate:   time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		BasePoints:  decimal.NewFromInt(-2),
		FinalPoints: decimal.NewFromInt(-2),
		IsDeleted:   utils.NewFalse(),
	}
}

func TestDeriveRewardFlagsCleanMonth(t *testing.T) {
	flags := DeriveRewardFlags(nil)
	if !flags.NoLiability || !flags.NoKeyViolation || !flags.NoViolation {
		t.Fatalf("empty month flags = %+v, want all true", flags)
	}
}

func TestDeriveRewardFlagsLiabilityPenalty(t *testing.T) {
	flags := DeriveRewardFlags([]AssessmentRecord{penaltyRecord(BucketLiability, StandardCategorySafety)})
	if flags.NoLiability || flags.NoKeyViolation || flags.NoViolation {
		t.Fatalf("flags = %+v, want all false", flags)
	}
}

func TestDeriveRewardFlagsKeyViolationOnly(t *testing.T) {
	flags := DeriveRewardFlags([]AssessmentRecord{penaltyRecord(Bucket("Safety"), StandardCategorySafety)})
	if !flags.NoLiability {
		t.Fatal("non-liability safety penalty must keep NoLiability")
	}
	if flags.NoKeyViolation || flags.NoViolation {
		t.Fatalf("flags = %+v, want NoKeyViolation and NoViolation false", flags)
	}
}

func TestDeriveRewardFlagsMinorViolationOnly(t *testing.T) {
	flags := DeriveRewardFlags([]AssessmentRecord{penaltyRecord(Bucket("Operation"), StandardCategoryOperation)})
	if !flags.NoLiability || !flags.NoKeyViolation {
		t.Fatalf("flags = %+v, want NoLiability and NoKeyViolation true", flags)
	}
	if flags.NoViolation {
		t.Fatal("any live penalty must clear NoViolation")
	}
}

func TestDeriveRewardFlagsIgnoresDeletedAndBonuses(t *testing.T) {
	deleted := penaltyRecord(BucketLiability, StandardCategorySafety)
	deleted.IsDeleted = utils.NewTrue()
	bonus := penaltyRecord(Bucket("Reward"), StandardCategoryReward)
	bonus.BasePoints = decimal.NewFromInt(1)
	bonus.FinalPoints = decimal.NewFromInt(1)

	flags := DeriveRewardFlags([]AssessmentRecord{deleted, bonus})
	if !flags.NoLiability || !flags.NoKeyViolation || !flags.NoViolation {
		t.Fatalf("flags = %+v, want all true", flags)
	}
}

func TestRewardFlagsForCode(t *testing.T) {
	flags := RewardFlags{NoLiability: true, NoViolation: true}
	if !flags.ForCode(RewardCodeLiabilityFree) {
		t.Fatal("ForCode(RW-LIAB) = false, want true")
	}
	if flags.ForCode(RewardCodeKeyFree) {
		t.Fatal("ForCode(RW-KEY) = true, want false")
	}
	if !flags.ForCode(RewardCodeCleanMonth) {
		t.Fatal("ForCode(RW-CLEAN) = false, want true")
	}
	if flags.ForCode("SF-01") {
		t.Fatal("unknown code must map to false")
	}
}
