package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// History is the audit trail of ledger mutations. Append-only.
type History struct {
	ID            int           `gorm:"primary_key" json:"id"`
	EmployeeId    int           `gorm:"index;not null" json:"employee_id"`
	ReferenceID   int           `gorm:"index" json:"reference_id"`
	Action        HistoryAction `gorm:"size:20;not null" json:"action"`
	Before        string        `gorm:"type:text" json:"before"`
	After         string        `gorm:"type:text" json:"after"`
	Description   string        `gorm:"type:text" json:"description"`
	UserId        int           `gorm:"index" json:"user_id"`
	UserName      string        `gorm:"size:100" json:"user_name"`
	CorrelationId string        `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// CreateHistory appends one audit row inside the caller's transaction.
// before/after may be nil.
func CreateHistory(tx *gorm.DB, ctx context.Context, employeeId int, referenceId int, action HistoryAction, before interface{}, after interface{}, description string) error {

	var beforeJSON, afterJSON []byte
	var err error
	if before != nil {
		beforeJSON, err = json.Marshal(before)
		if err != nil {
			return err
		}
	}
	if after != nil {
		afterJSON, err = json.Marshal(after)
		if err != nil {
			return err
		}
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	history := History{
		EmployeeId:    employeeId,
		ReferenceID:   referenceId,
		Action:        action,
		Before:        string(beforeJSON),
		After:         string(afterJSON),
		Description:   description,
		UserId:        userId,
		UserName:      userName,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.WithContext(ctx).Create(&history).Error
}
