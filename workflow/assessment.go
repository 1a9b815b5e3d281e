package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.SetTagName("binding")
}

var ErrorEmployeeInactive = errors.New("employee is not active")

// CreateAssessment appends one ledger entry. For escalation-eligible
// standards it takes the next counter position of the (employee, year,
// bucket); for liability-scored standards with a fault checklist it derives
// the coefficient; the running score moves by the final points. Backdated
// creations trigger a bucket recalculation so positions stay in event-date
// order.
func CreateAssessment(ctx context.Context, input *models.NewAssessment) (*models.AssessmentRecord, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if err := validate.Struct(input); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			config.LogError(logger, "assessment.go", "CreateAssessment", "Validate input", utils.ProcessValidationErrors(err), err)
		}
		return nil, err
	}
	if err := models.ValidateEventDate(input.EventDate); err != nil {
		return nil, err
	}
	eventDate, err := utils.ConvertToDate(input.EventDate, "")
	if err != nil {
		return nil, utils.ErrorInvalidEventDate
	}
	year, month := eventDate.Year(), int(eventDate.Month())

	std, err := models.GetStandardByCode(ctx, input.StandardCode)
	if err != nil {
		return nil, err
	}
	employee, err := models.GetEmployee(ctx, input.EmployeeId)
	if err != nil {
		return nil, err
	}
	if !utils.DereferencePtr(employee.Active) {
		return nil, ErrorEmployeeInactive
	}

	coefficient := decimal.NewFromInt(1)
	var liability *models.LiabilityAssessment
	liabilityScored := utils.DereferencePtr(std.LiabilityScored)
	if liabilityScored && input.Liability != nil {
		checklist, err := models.ParseFaultChecklist(input.Liability.Checklist)
		if err != nil {
			return nil, err
		}
		faultCount, tier, coeff := models.AssessChecklist(checklist)
		if faultCount > 0 {
			coefficient = coeff
			liability = &models.LiabilityAssessment{
				OccurredAt:            input.Liability.OccurredAt,
				ReportedAt:            input.Liability.ReportedAt,
				ArrivedAt:             input.Liability.ArrivedAt,
				RecoveredAt:           input.Liability.RecoveredAt,
				ResumedAt:             input.Liability.ResumedAt,
				DelayMinutes:          input.Liability.DelayMinutes,
				OverSpeed:             checklistColumn(checklist.OverSpeed),
				SignalMissed:          checklistColumn(checklist.SignalMissed),
				UnauthorizedOperation: checklistColumn(checklist.UnauthorizedOperation),
				ImproperBraking:       checklistColumn(checklist.ImproperBraking),
				ProcedureSkipped:      checklistColumn(checklist.ProcedureSkipped),
				DelayedReport:         checklistColumn(checklist.DelayedReport),
				CommunicationFailure:  checklistColumn(checklist.CommunicationFailure),
				DeviceMisuse:          checklistColumn(checklist.DeviceMisuse),
				FatigueViolation:      checklistColumn(checklist.FatigueViolation),
				FaultCount:            faultCount,
				Tier:                  tier,
				Coefficient:           coeff,
			}
		}
	}

	bucket := models.ResolveBucket(std.Code, std.Category)
	escalationEligible := utils.DereferencePtr(std.EscalationEligible)
	userName, _ := utils.GetUserNameFromContext(ctx)

	tx := db.Begin()

	var position *int
	multiplier := decimal.NewFromInt(1)
	if escalationEligible {
		if err := AcquireBucketLock(tx, employee.ID, year, bucket); err != nil {
			config.LogError(logger, "assessment.go", "CreateAssessment", "AcquireBucketLock", input, err)
			tx.Rollback()
			return nil, err
		}
		defer ReleaseBucketLock(tx, employee.ID, year, bucket)
		next, err := models.IncrementCounter(tx, ctx, employee.ID, year, bucket)
		if err != nil {
			config.LogError(logger, "assessment.go", "CreateAssessment", "IncrementCounter", input, err)
			tx.Rollback()
			return nil, err
		}
		position = &next
		multiplier = models.MultiplierForPosition(next)
	}

	actual, final := models.ComputePoints(std.BasePoints, coefficient, multiplier)
	record := models.AssessmentRecord{
		EmployeeId:         employee.ID,
		StandardCode:       std.Code,
		Category:           std.Category,
		Bucket:             bucket,
		EventDate:          eventDate,
		Year:               year,
		Month:              month,
		Description:        input.Description,
		BasePoints:         std.BasePoints,
		EscalationEligible: &escalationEligible,
		Coefficient:        coefficient,
		ActualPoints:       actual,
		EscalationPosition: position,
		Multiplier:         multiplier,
		FinalPoints:        final,
		CaseId:             input.CaseId,
		Liability:          liability,
		IsDeleted:          utils.NewFalse(),
		CreatedBy:          userName,
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(logger, "assessment.go", "CreateAssessment", "Create record", record, err)
		tx.Rollback()
		return nil, err
	}
	if err := models.ApplyScoreDelta(tx, ctx, employee.ID, final); err != nil {
		config.LogError(logger, "assessment.go", "CreateAssessment", "ApplyScoreDelta", record.ID, err)
		tx.Rollback()
		return nil, err
	}

	if escalationEligible {
		var later int64
		err := tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
			Where("employee_id = ? AND year = ? AND bucket = ? AND escalation_eligible = 1 AND is_deleted = 0 AND event_date > ?",
				employee.ID, year, bucket, eventDate).
			Count(&later).Error
		if err != nil {
			config.LogError(logger, "assessment.go", "CreateAssessment", "Count later records", record.ID, err)
			tx.Rollback()
			return nil, err
		}
		if later > 0 {
			if err := RecalculateBucket(tx, logger, ctx, employee.ID, year, bucket); err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if record.IsPenalty() {
		if _, _, err := SyncMonthlyRewards(tx, logger, ctx, employee.ID, year, month); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if config.StrictScoreReconciliation() {
		if _, err := models.ReconcileEmployeeScore(tx, ctx, employee.ID); err != nil {
			config.LogError(logger, "assessment.go", "CreateAssessment", "ReconcileEmployeeScore", employee.ID, err)
			tx.Rollback()
			return nil, err
		}
	}

	err = models.CreateHistory(tx, ctx, employee.ID, record.ID, models.HistoryActionCreate, nil, record, "Created assessment "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "assessment.go", "CreateAssessment", "CreateHistory", record.ID, err)
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "assessment.go", "CreateAssessment", "Commit", record.ID, err)
		return nil, err
	}
	return models.GetAssessment(ctx, record.ID)
}

func checklistColumn(flag *models.ChecklistFlag) *bool {
	if flag != nil && flag.Bool() {
		return utils.NewTrue()
	}
	return utils.NewFalse()
}

// AmendAssessment updates the amendable fields of a live record: the
// description, and for liability-scored records the incident timeline and
// fault checklist. A checklist change rederives the coefficient and final
// points; the escalation position and multiplier are untouched because the
// event date cannot change here.
func AmendAssessment(ctx context.Context, id int, input *models.AmendAssessment) (*models.AssessmentRecord, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	record, err := models.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Deleted() {
		return nil, utils.ErrorAlreadyDeleted
	}
	before := *record

	tx := db.Begin()

	if input.Description != nil {
		err := tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
			Where("id = ?", record.ID).
			Update("description", *input.Description).Error
		if err != nil {
			config.LogError(logger, "assessment.go", "AmendAssessment", "Update description", record.ID, err)
			tx.Rollback()
			return nil, err
		}
	}

	if input.Liability != nil {
		liabilityScored := record.Liability != nil || models.IsMergedLiabilityCode(record.StandardCode)
		if !liabilityScored {
			tx.Rollback()
			return nil, utils.ErrorInvalidChecklist
		}
		checklist, err := models.ParseFaultChecklist(input.Liability.Checklist)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		faultCount, tier, coefficient := models.AssessChecklist(checklist)

		if faultCount == 0 {
			if record.Liability != nil {
				err := tx.WithContext(ctx).Delete(&models.LiabilityAssessment{}, record.Liability.ID).Error
				if err != nil {
					config.LogError(logger, "assessment.go", "AmendAssessment", "Delete liability", record.ID, err)
					tx.Rollback()
					return nil, err
				}
			}
			coefficient = decimal.NewFromInt(1)
		} else {
			liability := models.LiabilityAssessment{
				AssessmentRecordId:    record.ID,
				OccurredAt:            input.Liability.OccurredAt,
				ReportedAt:            input.Liability.ReportedAt,
				ArrivedAt:             input.Liability.ArrivedAt,
				RecoveredAt:           input.Liability.RecoveredAt,
				ResumedAt:             input.Liability.ResumedAt,
				DelayMinutes:          input.Liability.DelayMinutes,
				OverSpeed:             checklistColumn(checklist.OverSpeed),
				SignalMissed:          checklistColumn(checklist.SignalMissed),
				UnauthorizedOperation: checklistColumn(checklist.UnauthorizedOperation),
				ImproperBraking:       checklistColumn(checklist.ImproperBraking),
				ProcedureSkipped:      checklistColumn(checklist.ProcedureSkipped),
				DelayedReport:         checklistColumn(checklist.DelayedReport),
				CommunicationFailure:  checklistColumn(checklist.CommunicationFailure),
				DeviceMisuse:          checklistColumn(checklist.DeviceMisuse),
				FatigueViolation:      checklistColumn(checklist.FatigueViolation),
				FaultCount:            faultCount,
				Tier:                  tier,
				Coefficient:           coefficient,
			}
			if record.Liability != nil {
				liability.ID = record.Liability.ID
				if err := tx.WithContext(ctx).Save(&liability).Error; err != nil {
					config.LogError(logger, "assessment.go", "AmendAssessment", "Save liability", record.ID, err)
					tx.Rollback()
					return nil, err
				}
			} else {
				if err := tx.WithContext(ctx).Create(&liability).Error; err != nil {
					config.LogError(logger, "assessment.go", "AmendAssessment", "Create liability", record.ID, err)
					tx.Rollback()
					return nil, err
				}
			}
		}

		if !coefficient.Equal(record.Coefficient) {
			actual, final := models.ComputePoints(record.BasePoints, coefficient, record.Multiplier)
			err := tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
				Where("id = ?", record.ID).
				Updates(map[string]interface{}{
					"coefficient":   coefficient,
					"actual_points": actual,
					"final_points":  final,
				}).Error
			if err != nil {
				config.LogError(logger, "assessment.go", "AmendAssessment", "Update points", record.ID, err)
				tx.Rollback()
				return nil, err
			}
			if err := models.ApplyScoreDelta(tx, ctx, record.EmployeeId, final.Sub(record.FinalPoints)); err != nil {
				config.LogError(logger, "assessment.go", "AmendAssessment", "ApplyScoreDelta", record.ID, err)
				tx.Rollback()
				return nil, err
			}
		}
	}

	if config.StrictScoreReconciliation() {
		if _, err := models.ReconcileEmployeeScore(tx, ctx, record.EmployeeId); err != nil {
			config.LogError(logger, "assessment.go", "AmendAssessment", "ReconcileEmployeeScore", record.EmployeeId, err)
			tx.Rollback()
			return nil, err
		}
	}

	err = models.CreateHistory(tx, ctx, record.EmployeeId, record.ID, models.HistoryActionAmend, before, nil, "Amended assessment "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "assessment.go", "AmendAssessment", "CreateHistory", record.ID, err)
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "assessment.go", "AmendAssessment", "Commit", record.ID, err)
		return nil, err
	}
	return models.GetAssessment(ctx, record.ID)
}

// SoftDeleteAssessment marks one record deleted and cascades: the bucket is
// recalculated so survivors close ranks, the month's rewards reconverge, and
// the running score is rederived from the surviving records.
func SoftDeleteAssessment(ctx context.Context, id int) (*models.AssessmentRecord, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	record, err := models.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Deleted() {
		return nil, utils.ErrorAlreadyDeleted
	}
	before := *record

	tx := db.Begin()
	now := time.Now()
	err = tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	if err != nil {
		config.LogError(logger, "assessment.go", "SoftDeleteAssessment", "Update record", record.ID, err)
		tx.Rollback()
		return nil, err
	}

	if err := cascadeAfterVisibilityChange(tx, logger, ctx, record); err != nil {
		tx.Rollback()
		return nil, err
	}

	err = models.CreateHistory(tx, ctx, record.EmployeeId, record.ID, models.HistoryActionDelete, before, nil, "Deleted assessment "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "assessment.go", "SoftDeleteAssessment", "CreateHistory", record.ID, err)
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "assessment.go", "SoftDeleteAssessment", "Commit", record.ID, err)
		return nil, err
	}
	return models.GetAssessment(ctx, record.ID)
}

// RestoreAssessment brings a soft-deleted record back into the ledger and
// runs the same cascade as deletion; the restored record takes the position
// its event date earns, which can shift every later record in the bucket.
func RestoreAssessment(ctx context.Context, id int) (*models.AssessmentRecord, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	record, err := models.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !record.Deleted() {
		return nil, utils.ErrorNotDeleted
	}
	before := *record

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil}).Error
	if err != nil {
		config.LogError(logger, "assessment.go", "RestoreAssessment", "Update record", record.ID, err)
		tx.Rollback()
		return nil, err
	}

	if err := cascadeAfterVisibilityChange(tx, logger, ctx, record); err != nil {
		tx.Rollback()
		return nil, err
	}

	err = models.CreateHistory(tx, ctx, record.EmployeeId, record.ID, models.HistoryActionRestore, before, nil, "Restored assessment "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "assessment.go", "RestoreAssessment", "CreateHistory", record.ID, err)
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "assessment.go", "RestoreAssessment", "Commit", record.ID, err)
		return nil, err
	}
	return models.GetAssessment(ctx, record.ID)
}

// cascadeAfterVisibilityChange rebuilds everything a delete or restore can
// invalidate: bucket positions, monthly reward convergence and the running
// score. The score is always rederived by full sum, so the cascade is
// self-healing regardless of what incremental deltas preceded it.
func cascadeAfterVisibilityChange(tx *gorm.DB, logger *logrus.Logger, ctx context.Context, record *models.AssessmentRecord) error {
	if utils.DereferencePtr(record.EscalationEligible) {
		if err := RecalculateBucket(tx, logger, ctx, record.EmployeeId, record.Year, record.Bucket); err != nil {
			return err
		}
	}
	if record.IsPenalty() || record.Category == models.StandardCategoryReward {
		if _, _, err := SyncMonthlyRewards(tx, logger, ctx, record.EmployeeId, record.Year, record.Month); err != nil {
			return err
		}
	}
	if _, err := models.ReconcileEmployeeScore(tx, ctx, record.EmployeeId); err != nil {
		config.LogError(logger, "assessment.go", "cascadeAfterVisibilityChange", "ReconcileEmployeeScore", record.EmployeeId, err)
		return err
	}
	return nil
}

// ChangeAssessmentDate moves a live record to a new event date. Crossing a
// month boundary reconverges both months' rewards; any date change within an
// escalation-eligible bucket renumbers it, and the year partition follows
// the new date. Reward records are refused: only reward synchronization may
// place them, so their month column always matches a monthly reward row.
// Returns the updated record and the years whose buckets were recalculated,
// empty when the record is not escalation-eligible.
func ChangeAssessmentDate(ctx context.Context, id int, newDate time.Time) (*models.AssessmentRecord, []int, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	record, err := models.GetAssessment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if record.Deleted() {
		return nil, nil, utils.ErrorAlreadyDeleted
	}
	if record.Category == models.StandardCategoryReward {
		return nil, nil, utils.ErrorRewardRecordManaged
	}
	if err := models.ValidateEventDate(newDate); err != nil {
		return nil, nil, err
	}
	eventDate, err := utils.ConvertToDate(newDate, "")
	if err != nil {
		return nil, nil, utils.ErrorInvalidEventDate
	}
	if eventDate.Equal(record.EventDate) {
		return record, nil, nil
	}
	before := *record
	oldYear, oldMonth := record.Year, record.Month
	newYear, newMonth := eventDate.Year(), int(eventDate.Month())

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"event_date": eventDate,
			"year":       newYear,
			"month":      newMonth,
		}).Error
	if err != nil {
		config.LogError(logger, "assessment.go", "ChangeAssessmentDate", "Update record", record.ID, err)
		tx.Rollback()
		return nil, nil, err
	}

	var recalculatedYears []int
	if utils.DereferencePtr(record.EscalationEligible) {
		if err := RecalculateBucket(tx, logger, ctx, record.EmployeeId, oldYear, record.Bucket); err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		recalculatedYears = append(recalculatedYears, oldYear)
		if newYear != oldYear {
			if err := RecalculateBucket(tx, logger, ctx, record.EmployeeId, newYear, record.Bucket); err != nil {
				tx.Rollback()
				return nil, nil, err
			}
			recalculatedYears = append(recalculatedYears, newYear)
		}
	}

	if record.IsPenalty() {
		if _, _, err := SyncMonthlyRewards(tx, logger, ctx, record.EmployeeId, oldYear, oldMonth); err != nil {
			tx.Rollback()
			return nil, nil, err
		}
		if newYear != oldYear || newMonth != oldMonth {
			if _, _, err := SyncMonthlyRewards(tx, logger, ctx, record.EmployeeId, newYear, newMonth); err != nil {
				tx.Rollback()
				return nil, nil, err
			}
		}
	}

	if _, err := models.ReconcileEmployeeScore(tx, ctx, record.EmployeeId); err != nil {
		config.LogError(logger, "assessment.go", "ChangeAssessmentDate", "ReconcileEmployeeScore", record.EmployeeId, err)
		tx.Rollback()
		return nil, nil, err
	}

	err = models.CreateHistory(tx, ctx, record.EmployeeId, record.ID, models.HistoryActionDateChange, before, nil, "Moved assessment "+record.StandardCode)
	if err != nil {
		config.LogError(logger, "assessment.go", "ChangeAssessmentDate", "CreateHistory", record.ID, err)
		tx.Rollback()
		return nil, nil, err
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "assessment.go", "ChangeAssessmentDate", "Commit", record.ID, err)
		return nil, nil, err
	}
	updated, err := models.GetAssessment(ctx, record.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, recalculatedYears, nil
}
