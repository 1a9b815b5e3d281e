package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Employee struct {
	ID           int             `gorm:"primary_key" json:"id"`
	EmployeeNo   string          `gorm:"size:50;uniqueIndex;not null" json:"employee_no" binding:"required"`
	Name         string          `gorm:"size:255;not null" json:"name" binding:"required"`
	DepotId      int             `gorm:"index" json:"depot_id"`
	Active       *bool           `gorm:"not null;default:true" json:"active"`
	CurrentScore decimal.Decimal `gorm:"type:decimal(20,4);not null;default:80" json:"current_score"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Employee) GetId() int {
	return obj.ID
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	return utils.FetchSingleModel[Employee](ctx, id)
}

func GetActiveEmployees(ctx context.Context) ([]*Employee, error) {
	db := config.GetDB()
	var employees []*Employee
	if err := db.WithContext(ctx).Where("active = 1").Order("id").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// ApplyScoreDelta adjusts the running score atomically in SQL; no
// read-modify-write, so concurrent deltas cannot lose updates.
func ApplyScoreDelta(tx *gorm.DB, ctx context.Context, employeeId int, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.WithContext(ctx).Model(&Employee{}).Where("id = ?", employeeId).
		Update("current_score", gorm.Expr("current_score + ?", delta)).Error
}

func SetEmployeeScore(tx *gorm.DB, ctx context.Context, employeeId int, score decimal.Decimal) error {
	return tx.WithContext(ctx).Model(&Employee{}).Where("id = ?", employeeId).
		Update("current_score", score).Error
}

// ReconcileEmployeeScore re-derives the running score from a full sum over
// non-deleted assessment records: score = baseline + SUM(final_points).
// Used after delete/restore/date-change to self-heal any incremental drift.
// Only years after the latest executed annual reset enter the sum; settled
// years stay settled even when their records are mutated afterwards.
func ReconcileEmployeeScore(tx *gorm.DB, ctx context.Context, employeeId int) (decimal.Decimal, error) {
	resetYear, err := LatestResetYear(tx, ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err = tx.WithContext(ctx).Model(&AssessmentRecord{}).
		Where("employee_id = ? AND is_deleted = 0 AND year > ?", employeeId, resetYear).
		Select("COALESCE(SUM(final_points), 0)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	score := BaselineScore.Add(total)
	if err := SetEmployeeScore(tx, ctx, employeeId, score); err != nil {
		return decimal.Zero, err
	}
	return score, nil
}
