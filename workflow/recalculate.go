package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// loadEscalationRecords returns the live escalation-eligible records of one
// (employee, year, bucket) in ledger order: event date ascending, record id
// breaking ties.
func loadEscalationRecords(tx *gorm.DB, ctx context.Context, employeeId int, year int, bucket models.Bucket) ([]models.AssessmentRecord, error) {
	var records []models.AssessmentRecord
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND year = ? AND bucket = ? AND escalation_eligible = 1 AND is_deleted = 0",
			employeeId, year, bucket).
		Order("event_date, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// RecalculateBucket rebuilds the derived escalation state of one
// (employee, year, bucket): positions renumbered 1..N in event-date order,
// multipliers and final points rederived, cumulative counter set to N.
// Rows whose derived values did not change are left untouched. The caller
// owns the transaction; the bucket advisory lock is taken here (GET_LOCK is
// reentrant per connection, so callers already holding it are fine).
func RecalculateBucket(tx *gorm.DB, logger *logrus.Logger, ctx context.Context, employeeId int, year int, bucket models.Bucket) error {
	if err := AcquireBucketLock(tx, employeeId, year, bucket); err != nil {
		config.LogError(logger, "recalculate.go", "RecalculateBucket", "AcquireBucketLock", employeeId, err)
		return err
	}
	defer ReleaseBucketLock(tx, employeeId, year, bucket)

	records, err := loadEscalationRecords(tx, ctx, employeeId, year, bucket)
	if err != nil {
		config.LogError(logger, "recalculate.go", "RecalculateBucket", "loadEscalationRecords", employeeId, err)
		return err
	}

	before := make(map[int]models.AssessmentRecord, len(records))
	for i := range records {
		before[records[i].ID] = records[i]
	}

	renumbered := models.RenumberAssessments(records)
	for i := range renumbered {
		record := &renumbered[i]
		old := before[record.ID]
		if old.EscalationPosition != nil && *old.EscalationPosition == *record.EscalationPosition &&
			old.Multiplier.Equal(record.Multiplier) &&
			old.FinalPoints.Equal(record.FinalPoints) &&
			old.ActualPoints.Equal(record.ActualPoints) {
			continue
		}
		err := tx.WithContext(ctx).Model(&models.AssessmentRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"escalation_position": *record.EscalationPosition,
				"multiplier":          record.Multiplier,
				"actual_points":       record.ActualPoints,
				"final_points":        record.FinalPoints,
			}).Error
		if err != nil {
			config.LogError(logger, "recalculate.go", "RecalculateBucket", "Update record", record.ID, err)
			return err
		}
	}

	err = models.SetCounterValue(tx, ctx, employeeId, year, bucket, len(renumbered))
	if err != nil {
		config.LogError(logger, "recalculate.go", "RecalculateBucket", "SetCounterValue", employeeId, err)
		return err
	}
	return nil
}
