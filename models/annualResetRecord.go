package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AnnualResetRecord marks an executed year reset. One row per year; its
// presence powers the "already reset" advisory.
type AnnualResetRecord struct {
	ID             int       `gorm:"primary_key" json:"id"`
	Year           int       `gorm:"uniqueIndex;not null" json:"year"`
	ExecutedAt     time.Time `gorm:"not null" json:"executed_at"`
	ExecutedBy     string    `gorm:"size:100" json:"executed_by"`
	EmployeesReset int       `gorm:"not null;default:0" json:"employees_reset"`
	CountersReset  int       `gorm:"not null;default:0" json:"counters_reset"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LatestResetYear returns the most recent year an executed annual reset
// settled, or 0 when none has run. Records of settled years are frozen out
// of score reconciliation so a reset cannot be undone by later recomputes.
func LatestResetYear(tx *gorm.DB, ctx context.Context) (int, error) {
	var year int
	err := tx.WithContext(ctx).Model(&AnnualResetRecord{}).
		Select("COALESCE(MAX(year), 0)").Scan(&year).Error
	if err != nil {
		return 0, err
	}
	return year, nil
}

func GetAnnualReset(ctx context.Context, db *gorm.DB, year int) (*AnnualResetRecord, error) {
	var record AnnualResetRecord
	err := db.WithContext(ctx).Where("year = ?", year).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
