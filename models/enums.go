package models

import (
	"github.com/shopspring/decimal"
)

type StandardCategory string

const (
	StandardCategorySafety     StandardCategory = "Safety"
	StandardCategoryOperation  StandardCategory = "Operation"
	StandardCategoryDiscipline StandardCategory = "Discipline"
	StandardCategoryService    StandardCategory = "Service"
	StandardCategoryReward     StandardCategory = "Reward"
)

var AllStandardCategory = []StandardCategory{
	StandardCategorySafety,
	StandardCategoryOperation,
	StandardCategoryDiscipline,
	StandardCategoryService,
	StandardCategoryReward,
}

func (e StandardCategory) IsValid() bool {
	switch e {
	case StandardCategorySafety, StandardCategoryOperation, StandardCategoryDiscipline,
		StandardCategoryService, StandardCategoryReward:
		return true
	}
	return false
}

func (e StandardCategory) String() string {
	return string(e)
}

// KeyViolationCategories is the high-severity category subset used by the
// monthly "key-violation-free" reward rule.
var KeyViolationCategories = map[StandardCategory]bool{
	StandardCategorySafety: true,
}

type LiabilityTier string

const (
	LiabilityTierSecondary LiabilityTier = "secondary"
	LiabilityTierMajor     LiabilityTier = "major"
	LiabilityTierFull      LiabilityTier = "full"
)

func (e LiabilityTier) IsValid() bool {
	switch e {
	case LiabilityTierSecondary, LiabilityTierMajor, LiabilityTierFull:
		return true
	}
	return false
}

func (e LiabilityTier) String() string {
	return string(e)
}

type HistoryAction string

const (
	HistoryActionCreate     HistoryAction = "Create"
	HistoryActionAmend      HistoryAction = "Amend"
	HistoryActionDelete     HistoryAction = "Delete"
	HistoryActionRestore    HistoryAction = "Restore"
	HistoryActionDateChange HistoryAction = "DateChange"
	HistoryActionReward     HistoryAction = "Reward"
	HistoryActionReset      HistoryAction = "Reset"
)

// BaselineScore is the score every employee starts every year with.
var BaselineScore = decimal.NewFromInt(80)

// EscalationStep is the multiplier increment per repeat occurrence:
// multiplier = 1 + EscalationStep * (position - 1).
var EscalationStep = decimal.NewFromFloat(0.5)

// MultiplierForPosition returns the escalation multiplier for a 1-based
// position within a bucket/year.
func MultiplierForPosition(position int) decimal.Decimal {
	if position < 1 {
		position = 1
	}
	return decimal.NewFromInt(1).Add(EscalationStep.Mul(decimal.NewFromInt(int64(position - 1))))
}
