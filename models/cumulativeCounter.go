package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CumulativeCounter backs the escalation multiplier: one integer per
// (employee, year, bucket). It is a cache of the ledger, not a source of
// truth; the recalculator rewrites it from the live records whenever the
// bucket changes shape.
type CumulativeCounter struct {
	ID         int       `gorm:"primary_key" json:"id"`
	EmployeeId int       `gorm:"uniqueIndex:idx_counter_emp_year_bucket,priority:1;not null" json:"employee_id"`
	Year       int       `gorm:"uniqueIndex:idx_counter_emp_year_bucket,priority:2;not null" json:"year"`
	Bucket     Bucket    `gorm:"size:50;uniqueIndex:idx_counter_emp_year_bucket,priority:3;not null" json:"bucket"`
	Count      int       `gorm:"not null;default:0" json:"count"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetCounterValue returns the current count, zero when no row exists yet.
// Call with the bucket lock held when the value feeds a mutation.
func GetCounterValue(tx *gorm.DB, ctx context.Context, employeeId int, year int, bucket Bucket) (int, error) {
	var counter CumulativeCounter
	err := tx.WithContext(ctx).
		Where("employee_id = ? AND year = ? AND bucket = ?", employeeId, year, bucket).
		First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.Count, nil
}

// IncrementCounter bumps the count by one and returns the new value.
// Safe only under the bucket lock.
func IncrementCounter(tx *gorm.DB, ctx context.Context, employeeId int, year int, bucket Bucket) (int, error) {
	current, err := GetCounterValue(tx, ctx, employeeId, year, bucket)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := SetCounterValue(tx, ctx, employeeId, year, bucket, next); err != nil {
		return 0, err
	}
	return next, nil
}

// SetCounterValue upserts the counter row to an absolute value.
func SetCounterValue(tx *gorm.DB, ctx context.Context, employeeId int, year int, bucket Bucket, count int) error {
	res := tx.WithContext(ctx).Model(&CumulativeCounter{}).
		Where("employee_id = ? AND year = ? AND bucket = ?", employeeId, year, bucket).
		Update("count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		counter := CumulativeCounter{
			EmployeeId: employeeId,
			Year:       year,
			Bucket:     bucket,
			Count:      count,
		}
		return tx.WithContext(ctx).Create(&counter).Error
	}
	return nil
}

// ResetCountersForYear zeroes every counter of the target year. Used by the
// annual reset; history records stay untouched.
func ResetCountersForYear(tx *gorm.DB, ctx context.Context, year int) (int64, error) {
	res := tx.WithContext(ctx).Model(&CumulativeCounter{}).
		Where("year = ? AND count <> 0", year).
		Update("count", 0)
	return res.RowsAffected, res.Error
}
