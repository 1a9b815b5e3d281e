package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reward standard codes. Each true eligibility flag corresponds to exactly
// one live assessment record carrying one of these codes for the
// employee-month; bonus amounts live in the standard catalog.
const (
	RewardCodeLiabilityFree = "RW-LIAB"
	RewardCodeKeyFree       = "RW-KEY"
	RewardCodeCleanMonth    = "RW-CLEAN"
)

var AllRewardCodes = []string{RewardCodeLiabilityFree, RewardCodeKeyFree, RewardCodeCleanMonth}

// MonthlyRewardRecord tracks the zero-violation bonus state of one
// employee-month. Invariant: flag = true if and only if a non-deleted reward
// ledger record exists for that employee-month and code.
type MonthlyRewardRecord struct {
	ID             int             `gorm:"primary_key" json:"id"`
	EmployeeId     int             `gorm:"uniqueIndex:idx_reward_emp_year_month,priority:1;not null" json:"employee_id"`
	Year           int             `gorm:"uniqueIndex:idx_reward_emp_year_month,priority:2;not null" json:"year"`
	Month          int             `gorm:"uniqueIndex:idx_reward_emp_year_month,priority:3;not null" json:"month"`
	NoLiability    *bool           `gorm:"not null;default:false" json:"no_liability"`
	NoKeyViolation *bool           `gorm:"not null;default:false" json:"no_key_violation"`
	NoViolation    *bool           `gorm:"not null;default:false" json:"no_violation"`
	TotalPoints    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_points"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// RewardFlags is the derived eligibility of one employee-month.
type RewardFlags struct {
	NoLiability    bool
	NoKeyViolation bool
	NoViolation    bool
}

func (f RewardFlags) ForCode(code string) bool {
	switch code {
	case RewardCodeLiabilityFree:
		return f.NoLiability
	case RewardCodeKeyFree:
		return f.NoKeyViolation
	case RewardCodeCleanMonth:
		return f.NoViolation
	}
	return false
}

// DeriveRewardFlags computes the three eligibility flags from the live
// penalty records of a month. Pure; the synchronizer and the preview path
// share it.
func DeriveRewardFlags(penalties []AssessmentRecord) RewardFlags {
	flags := RewardFlags{NoLiability: true, NoKeyViolation: true, NoViolation: true}
	for i := range penalties {
		record := &penalties[i]
		if record.Deleted() || !record.IsPenalty() {
			continue
		}
		flags.NoViolation = false
		if record.Bucket == BucketLiability {
			flags.NoLiability = false
		}
		if KeyViolationCategories[record.Category] {
			flags.NoKeyViolation = false
		}
	}
	return flags
}

// GetMonthlyReward returns the reward row of one employee-month, nil when
// the month has never been synchronized.
func GetMonthlyReward(ctx context.Context, db *gorm.DB, employeeId int, year int, month int) (*MonthlyRewardRecord, error) {
	var record MonthlyRewardRecord
	err := db.WithContext(ctx).
		Where("employee_id = ? AND year = ? AND month = ?", employeeId, year, month).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
