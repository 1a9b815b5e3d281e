package workflow

import (
	"fmt"

	"bitbucket.org/mmdatafocus/drivers_backend/models"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"gorm.io/gorm"
)

// AcquireBucketLock serializes escalation counter updates and recalculation
// per (employee, year, bucket) across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the mutating transaction.
func AcquireBucketLock(tx *gorm.DB, employeeId int, year int, bucket models.Bucket) error {
	lockName := fmt.Sprintf("assessment:%d:%d:%s", employeeId, year, bucket)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return utils.ErrorRecalculationLock
	}
	return nil
}

func ReleaseBucketLock(tx *gorm.DB, employeeId int, year int, bucket models.Bucket) {
	lockName := fmt.Sprintf("assessment:%d:%d:%s", employeeId, year, bucket)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireRewardMonthLock serializes reward synchronization per
// (employee, year, month). Same connection-scoped caveat as AcquireBucketLock.
func AcquireRewardMonthLock(tx *gorm.DB, employeeId int, year int, month int) error {
	lockName := fmt.Sprintf("rewards:%d:%d-%02d", employeeId, year, month)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return utils.ErrorRecalculationLock
	}
	return nil
}

func ReleaseRewardMonthLock(tx *gorm.DB, employeeId int, year int, month int) {
	lockName := fmt.Sprintf("rewards:%d:%d-%02d", employeeId, year, month)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
