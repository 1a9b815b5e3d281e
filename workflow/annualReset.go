package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

var ErrorResetNotConfirmed = errors.New("annual reset requires explicit confirmation")

// EmployeeResetPreview is one employee's score movement under a reset.
type EmployeeResetPreview struct {
	EmployeeId   int             `json:"employee_id"`
	EmployeeNo   string          `json:"employee_no"`
	Name         string          `json:"name"`
	CurrentScore decimal.Decimal `json:"current_score"`
	Delta        decimal.Decimal `json:"delta"`
}

// AnnualResetSummary reports a preview or an executed reset of one year.
type AnnualResetSummary struct {
	Year           int                    `json:"year"`
	AlreadyReset   bool                   `json:"already_reset"`
	ExecutedAt     *time.Time             `json:"executed_at"`
	EmployeesReset int                    `json:"employees_reset"`
	CountersReset  int                    `json:"counters_reset"`
	Preview        bool                   `json:"preview"`
	Details        []EmployeeResetPreview `json:"details,omitempty"`
}

// PreviewAnnualReset reports what ExecuteAnnualReset would do for the year
// without writing anything: which active employees would move back to the
// baseline score and how many escalation counters would be zeroed.
func PreviewAnnualReset(ctx context.Context, year int) (*AnnualResetSummary, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	summary := &AnnualResetSummary{Year: year, Preview: true}
	executed, err := models.GetAnnualReset(ctx, db, year)
	if err != nil {
		config.LogError(logger, "annualReset.go", "PreviewAnnualReset", "GetAnnualReset", year, err)
		return nil, err
	}
	if executed != nil {
		summary.AlreadyReset = true
		summary.ExecutedAt = &executed.ExecutedAt
	}

	employees, err := models.GetActiveEmployees(ctx)
	if err != nil {
		config.LogError(logger, "annualReset.go", "PreviewAnnualReset", "GetActiveEmployees", nil, err)
		return nil, err
	}
	for _, employee := range employees {
		if employee.CurrentScore.Equal(models.BaselineScore) {
			continue
		}
		summary.Details = append(summary.Details, EmployeeResetPreview{
			EmployeeId:   employee.ID,
			EmployeeNo:   employee.EmployeeNo,
			Name:         employee.Name,
			CurrentScore: employee.CurrentScore,
			Delta:        models.BaselineScore.Sub(employee.CurrentScore),
		})
	}
	summary.EmployeesReset = len(summary.Details)

	var counters int64
	err = db.WithContext(ctx).Model(&models.CumulativeCounter{}).
		Where("year = ? AND count <> 0", year).
		Count(&counters).Error
	if err != nil {
		config.LogError(logger, "annualReset.go", "PreviewAnnualReset", "Count counters", year, err)
		return nil, err
	}
	summary.CountersReset = int(counters)
	return summary, nil
}

// ExecuteAnnualReset starts the new assessment year: every active employee
// returns to the baseline score and every escalation counter of the target
// year is zeroed, in a single transaction. Assessment records and history
// are never touched. Refuses to run twice for the same year.
func ExecuteAnnualReset(ctx context.Context, year int, confirm bool) (*AnnualResetSummary, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if !confirm {
		return nil, ErrorResetNotConfirmed
	}
	executed, err := models.GetAnnualReset(ctx, db, year)
	if err != nil {
		config.LogError(logger, "annualReset.go", "ExecuteAnnualReset", "GetAnnualReset", year, err)
		return nil, err
	}
	if executed != nil {
		return nil, fmt.Errorf("annual reset for %d was already executed at %s", year, executed.ExecutedAt.Format(time.RFC3339))
	}

	lock, err := obtainBatchGuard(fmt.Sprintf("annual-reset:%d", year))
	if err != nil {
		return nil, fmt.Errorf("annual reset for %d is already running", year)
	}
	if lock != nil {
		defer lock.Release(config.GetRedisContext())
	}

	userName, _ := utils.GetUserNameFromContext(ctx)
	now := time.Now()

	tx := db.Begin()
	res := tx.WithContext(ctx).Model(&models.Employee{}).
		Where("active = 1 AND current_score <> ?", models.BaselineScore).
		Update("current_score", models.BaselineScore)
	if res.Error != nil {
		config.LogError(logger, "annualReset.go", "ExecuteAnnualReset", "Reset scores", year, res.Error)
		tx.Rollback()
		return nil, res.Error
	}
	employeesReset := int(res.RowsAffected)

	countersReset, err := models.ResetCountersForYear(tx, ctx, year)
	if err != nil {
		config.LogError(logger, "annualReset.go", "ExecuteAnnualReset", "ResetCountersForYear", year, err)
		tx.Rollback()
		return nil, err
	}

	record := models.AnnualResetRecord{
		Year:           year,
		ExecutedAt:     now,
		ExecutedBy:     userName,
		EmployeesReset: employeesReset,
		CountersReset:  int(countersReset),
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(logger, "annualReset.go", "ExecuteAnnualReset", "Create reset record", record, err)
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "annualReset.go", "ExecuteAnnualReset", "Commit", year, err)
		return nil, err
	}

	return &AnnualResetSummary{
		Year:           year,
		EmployeesReset: employeesReset,
		CountersReset:  int(countersReset),
		ExecutedAt:     &now,
	}, nil
}
