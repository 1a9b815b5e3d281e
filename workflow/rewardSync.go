package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// monthFinished reports whether the given calendar month has fully elapsed.
// Rewards are only granted for finished months; revocation is always allowed.
func monthFinished(year int, month int) bool {
	_, end, err := utils.MonthRange(year, time.Month(month), "")
	if err != nil {
		return false
	}
	return !time.Now().Before(end)
}

func loadMonthPenalties(tx *gorm.DB, ctx context.Context, employeeId int, year int, month int) ([]models.AssessmentRecord, error) {
	var penalties []models.AssessmentRecord
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND year = ? AND month = ? AND is_deleted = 0 AND base_points < 0",
			employeeId, year, month).
		Find(&penalties).Error
	if err != nil {
		return nil, err
	}
	return penalties, nil
}

func loadLiveRewardRecords(tx *gorm.DB, ctx context.Context, employeeId int, year int, month int, code string) ([]models.AssessmentRecord, error) {
	var records []models.AssessmentRecord
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND year = ? AND month = ? AND standard_code = ? AND is_deleted = 0",
			employeeId, year, month, code).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SyncMonthlyRewards converges the reward ledger records of one
// employee-month with the eligibility flags derived from its live penalties:
// missing rewards are granted, no-longer-earned rewards are soft-deleted,
// and the monthly reward row is upserted to mirror the outcome. Idempotent;
// runs inside the caller's transaction. Returns how many reward records were
// granted and revoked.
func SyncMonthlyRewards(tx *gorm.DB, logger *logrus.Logger, ctx context.Context, employeeId int, year int, month int) (int, int, error) {
	if err := AcquireRewardMonthLock(tx, employeeId, year, month); err != nil {
		config.LogError(logger, "rewardSync.go", "SyncMonthlyRewards", "AcquireRewardMonthLock", employeeId, err)
		return 0, 0, err
	}
	defer ReleaseRewardMonthLock(tx, employeeId, year, month)

	penalties, err := loadMonthPenalties(tx, ctx, employeeId, year, month)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "SyncMonthlyRewards", "loadMonthPenalties", employeeId, err)
		return 0, 0, err
	}
	derived := models.DeriveRewardFlags(penalties)
	finished := monthFinished(year, month)

	granted, revoked := 0, 0
	effective := models.RewardFlags{}
	total := decimal.Zero

	for _, code := range models.AllRewardCodes {
		want := derived.ForCode(code) && finished
		existing, err := loadLiveRewardRecords(tx, ctx, employeeId, year, month, code)
		if err != nil {
			config.LogError(logger, "rewardSync.go", "SyncMonthlyRewards", "loadLiveRewardRecords", code, err)
			return granted, revoked, err
		}

		if want && len(existing) == 0 {
			record, err := grantReward(tx, logger, ctx, employeeId, year, month, code)
			if err != nil {
				return granted, revoked, err
			}
			existing = []models.AssessmentRecord{*record}
			granted++
		} else if !want && len(existing) > 0 {
			for i := range existing {
				if err := revokeReward(tx, logger, ctx, &existing[i]); err != nil {
					return granted, revoked, err
				}
				revoked++
			}
			existing = nil
		}

		switch code {
		case models.RewardCodeLiabilityFree:
			effective.NoLiability = len(existing) > 0
		case models.RewardCodeKeyFree:
			effective.NoKeyViolation = len(existing) > 0
		case models.RewardCodeCleanMonth:
			effective.NoViolation = len(existing) > 0
		}
		for i := range existing {
			total = total.Add(existing[i].FinalPoints)
		}
	}

	err = upsertMonthlyReward(tx, ctx, employeeId, year, month, effective, total)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "SyncMonthlyRewards", "upsertMonthlyReward", employeeId, err)
		return granted, revoked, err
	}
	return granted, revoked, nil
}

func grantReward(tx *gorm.DB, logger *logrus.Logger, ctx context.Context, employeeId int, year int, month int, code string) (*models.AssessmentRecord, error) {
	std, err := models.GetStandardByCode(ctx, code)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "grantReward", "GetStandardByCode", code, err)
		return nil, err
	}
	eventDate, err := utils.LastDayOfMonth(year, time.Month(month), "")
	if err != nil {
		config.LogError(logger, "rewardSync.go", "grantReward", "LastDayOfMonth", month, err)
		return nil, err
	}

	record := models.AssessmentRecord{
		EmployeeId:         employeeId,
		StandardCode:       std.Code,
		Category:           std.Category,
		Bucket:             models.ResolveBucket(std.Code, std.Category),
		EventDate:          eventDate,
		Year:               year,
		Month:              month,
		Description:        fmt.Sprintf("Monthly reward %s for %d-%02d", std.Name, year, month),
		BasePoints:         std.BasePoints,
		EscalationEligible: utils.NewFalse(),
		Coefficient:        decimal.NewFromInt(1),
		ActualPoints:       std.BasePoints,
		Multiplier:         decimal.NewFromInt(1),
		FinalPoints:        std.BasePoints,
		IsDeleted:          utils.NewFalse(),
		CreatedBy:          "reward-sync",
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(logger, "rewardSync.go", "grantReward", "Create record", record, err)
		return nil, err
	}
	if err := models.ApplyScoreDelta(tx, ctx, employeeId, record.FinalPoints); err != nil {
		config.LogError(logger, "rewardSync.go", "grantReward", "ApplyScoreDelta", record.ID, err)
		return nil, err
	}
	err = models.CreateHistory(tx, ctx, employeeId, record.ID, models.HistoryActionReward, nil, record, "Granted "+code)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "grantReward", "CreateHistory", record.ID, err)
		return nil, err
	}
	return &record, nil
}

// revokeReward soft-deletes one reward record and reverses its score effect.
// It deliberately bypasses SoftDeleteAssessment: rewards never escalate and
// revocation happens inside an ongoing synchronization pass.
func revokeReward(tx *gorm.DB, logger *logrus.Logger, ctx context.Context, record *models.AssessmentRecord) error {
	now := time.Now()
	err := tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	if err != nil {
		config.LogError(logger, "rewardSync.go", "revokeReward", "Update record", record.ID, err)
		return err
	}
	if err := models.ApplyScoreDelta(tx, ctx, record.EmployeeId, record.FinalPoints.Neg()); err != nil {
		config.LogError(logger, "rewardSync.go", "revokeReward", "ApplyScoreDelta", record.ID, err)
		return err
	}
	after := *record
	after.IsDeleted = utils.NewTrue()
	after.DeletedAt = &now
	err = models.CreateHistory(tx, ctx, record.EmployeeId, record.ID, models.HistoryActionReward, record, after, "Revoked "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "revokeReward", "CreateHistory", record.ID, err)
		return err
	}
	return nil
}

func upsertMonthlyReward(tx *gorm.DB, ctx context.Context, employeeId int, year int, month int, flags models.RewardFlags, total decimal.Decimal) error {
	existing, err := models.GetMonthlyReward(ctx, tx, employeeId, year, month)
	if err != nil {
		return err
	}
	if existing == nil {
		record := models.MonthlyRewardRecord{
			EmployeeId:     employeeId,
			Year:           year,
			Month:          month,
			NoLiability:    &flags.NoLiability,
			NoKeyViolation: &flags.NoKeyViolation,
			NoViolation:    &flags.NoViolation,
			TotalPoints:    total,
		}
		return tx.WithContext(ctx).Create(&record).Error
	}
	return tx.WithContext(ctx).Model(&models.MonthlyRewardRecord{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"no_liability":     flags.NoLiability,
			"no_key_violation": flags.NoKeyViolation,
			"no_violation":     flags.NoViolation,
			"total_points":     total,
		}).Error
}

// RewardBatchFailure records one employee the batch could not synchronize.
type RewardBatchFailure struct {
	EmployeeId int    `json:"employee_id"`
	Reason     string `json:"reason"`
}

// RewardBatchResult summarizes one batch or preview run over a month.
type RewardBatchResult struct {
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	Employees int                  `json:"employees"`
	Granted   int                  `json:"granted"`
	Revoked   int                  `json:"revoked"`
	Preview   bool                 `json:"preview"`
	Failures  []RewardBatchFailure `json:"failures"`
}

// obtainBatchGuard takes a cross-instance redis lock for a batch run.
// A missing or unreachable redis degrades to no guard: the per-row advisory
// locks still serialize the real work. Only redislock.ErrNotObtained aborts.
func obtainBatchGuard(name string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(config.GetRedisContext(), name, 10*time.Minute, nil)
	if err != nil {
		if err == redislock.ErrNotObtained {
			return nil, err
		}
		config.GetLogger().WithField("error", err.Error()).Warn("redis lock unavailable, proceeding without batch guard")
		return nil, nil
	}
	return lock, nil
}

// CalculateMonthlyRewardsBatch synchronizes rewards for every active
// employee for one month, one transaction per employee so a bad record
// cannot sink the whole run. A redis lock guards against concurrent batch
// runs from other instances.
func CalculateMonthlyRewardsBatch(ctx context.Context, year int, month int) (*RewardBatchResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	lock, err := obtainBatchGuard(fmt.Sprintf("rewards-batch:%d-%02d", year, month))
	if err != nil {
		return nil, fmt.Errorf("monthly reward batch for %d-%02d is already running", year, month)
	}
	if lock != nil {
		defer lock.Release(config.GetRedisContext())
	}

	employees, err := models.GetActiveEmployees(ctx)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "CalculateMonthlyRewardsBatch", "GetActiveEmployees", nil, err)
		return nil, err
	}

	result := &RewardBatchResult{Year: year, Month: month, Employees: len(employees)}
	for _, employee := range employees {
		tx := db.Begin()
		granted, revoked, err := SyncMonthlyRewards(tx, logger, ctx, employee.ID, year, month)
		if err != nil {
			tx.Rollback()
			result.Failures = append(result.Failures, RewardBatchFailure{EmployeeId: employee.ID, Reason: err.Error()})
			continue
		}
		if err := tx.Commit().Error; err != nil {
			config.LogError(logger, "rewardSync.go", "CalculateMonthlyRewardsBatch", "Commit", employee.ID, err)
			result.Failures = append(result.Failures, RewardBatchFailure{EmployeeId: employee.ID, Reason: err.Error()})
			continue
		}
		result.Granted += granted
		result.Revoked += revoked
	}
	return result, nil
}

// PreviewMonthlyRewards reports what a batch run over the month would grant
// and revoke without writing anything.
func PreviewMonthlyRewards(ctx context.Context, year int, month int) (*RewardBatchResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	employees, err := models.GetActiveEmployees(ctx)
	if err != nil {
		config.LogError(logger, "rewardSync.go", "PreviewMonthlyRewards", "GetActiveEmployees", nil, err)
		return nil, err
	}

	finished := monthFinished(year, month)
	result := &RewardBatchResult{Year: year, Month: month, Employees: len(employees), Preview: true}
	for _, employee := range employees {
		penalties, err := loadMonthPenalties(db, ctx, employee.ID, year, month)
		if err != nil {
			result.Failures = append(result.Failures, RewardBatchFailure{EmployeeId: employee.ID, Reason: err.Error()})
			continue
		}
		derived := models.DeriveRewardFlags(penalties)
		for _, code := range models.AllRewardCodes {
			want := derived.ForCode(code) && finished
			existing, err := loadLiveRewardRecords(db, ctx, employee.ID, year, month, code)
			if err != nil {
				result.Failures = append(result.Failures, RewardBatchFailure{EmployeeId: employee.ID, Reason: err.Error()})
				break
			}
			if want && len(existing) == 0 {
				result.Granted++
			} else if !want && len(existing) > 0 {
				result.Revoked += len(existing)
			}
		}
	}
	return result, nil
}
