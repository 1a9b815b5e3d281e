package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

// ScoreDrift is one employee whose stored running score disagrees with the
// score rederived from the ledger.
type ScoreDrift struct {
	EmployeeId int             `json:"employee_id"`
	EmployeeNo string          `json:"employee_no"`
	Name       string          `json:"name"`
	Stored     decimal.Decimal `json:"stored"`
	Computed   decimal.Decimal `json:"computed"`
	Drift      decimal.Decimal `json:"drift"`
}

// AuditEmployeeScores recomputes baseline + SUM(final_points) over the live
// records of every active employee and reports the ones whose stored score
// drifted. Records of years settled by an annual reset are excluded, the
// same window ReconcileEmployeeScore sums over. Read-only.
func AuditEmployeeScores(ctx context.Context) ([]ScoreDrift, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	resetYear, err := models.LatestResetYear(db, ctx)
	if err != nil {
		config.LogError(logger, "scoreAudit.go", "AuditEmployeeScores", "LatestResetYear", nil, err)
		return nil, err
	}
	employees, err := models.GetActiveEmployees(ctx)
	if err != nil {
		config.LogError(logger, "scoreAudit.go", "AuditEmployeeScores", "GetActiveEmployees", nil, err)
		return nil, err
	}

	var drifts []ScoreDrift
	for _, employee := range employees {
		var total decimal.Decimal
		err := db.WithContext(ctx).Model(&models.AssessmentRecord{}).
			Where("employee_id = ? AND is_deleted = 0 AND year > ?", employee.ID, resetYear).
			Select("COALESCE(SUM(final_points), 0)").Scan(&total).Error
		if err != nil {
			config.LogError(logger, "scoreAudit.go", "AuditEmployeeScores", "Sum final points", employee.ID, err)
			return nil, err
		}
		computed := models.BaselineScore.Add(total)
		if computed.Equal(employee.CurrentScore) {
			continue
		}
		drifts = append(drifts, ScoreDrift{
			EmployeeId: employee.ID,
			EmployeeNo: employee.EmployeeNo,
			Name:       employee.Name,
			Stored:     employee.CurrentScore,
			Computed:   computed,
			Drift:      computed.Sub(employee.CurrentScore),
		})
	}
	return drifts, nil
}

type yearBucket struct {
	Year   int           `gorm:"column:year"`
	Bucket models.Bucket `gorm:"column:bucket"`
}

// RebuildEmployeeLedger recalculates every escalation bucket an employee has
// live records in and rederives the running score. Recovery tool for drift
// found by AuditEmployeeScores or after manual data surgery. Buckets of
// years settled by an annual reset are left untouched.
func RebuildEmployeeLedger(ctx context.Context, employeeId int) error {
	db := config.GetDB()
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[models.Employee](ctx, employeeId); err != nil {
		return err
	}
	resetYear, err := models.LatestResetYear(db, ctx)
	if err != nil {
		config.LogError(logger, "scoreAudit.go", "RebuildEmployeeLedger", "LatestResetYear", employeeId, err)
		return err
	}

	var buckets []yearBucket
	err = db.WithContext(ctx).Model(&models.AssessmentRecord{}).
		Distinct("year", "bucket").
		Where("employee_id = ? AND escalation_eligible = 1 AND is_deleted = 0 AND year > ?", employeeId, resetYear).
		Find(&buckets).Error
	if err != nil {
		config.LogError(logger, "scoreAudit.go", "RebuildEmployeeLedger", "Distinct buckets", employeeId, err)
		return err
	}

	tx := db.Begin()
	for _, b := range buckets {
		if err := RecalculateBucket(tx, logger, ctx, employeeId, b.Year, b.Bucket); err != nil {
			tx.Rollback()
			return err
		}
	}
	if _, err := models.ReconcileEmployeeScore(tx, ctx, employeeId); err != nil {
		config.LogError(logger, "scoreAudit.go", "RebuildEmployeeLedger", "ReconcileEmployeeScore", employeeId, err)
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "scoreAudit.go", "RebuildEmployeeLedger", "Commit", employeeId, err)
		return err
	}
	return nil
}
