package models

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

// AssessmentRecord is one ledger entry of the scoring program: a penalty or
// bonus event for one employee. BasePoints is copied from the standard at
// creation time and never re-read; position/multiplier/final points are
// derived state owned by the recalculator.
type AssessmentRecord struct {
	ID           int              `gorm:"primary_key" json:"id"`
	EmployeeId   int              `gorm:"index:idx_assess_emp_year_bucket,priority:1;not null" json:"employee_id" binding:"required"`
	StandardCode string           `gorm:"size:20;index;not null" json:"standard_code" binding:"required"`
	Category     StandardCategory `gorm:"type:enum('Safety','Operation','Discipline','Service','Reward');not null" json:"category"`
	Bucket       Bucket           `gorm:"size:50;index:idx_assess_emp_year_bucket,priority:3;not null" json:"bucket"`
	EventDate    time.Time        `gorm:"index;not null" json:"event_date" binding:"required"`
	Year         int              `gorm:"index:idx_assess_emp_year_bucket,priority:2;not null" json:"year"`
	Month        int              `gorm:"index;not null" json:"month"`
	Description  string           `gorm:"type:text" json:"description"`

	BasePoints         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"base_points"`
	EscalationEligible *bool           `gorm:"not null;default:false" json:"escalation_eligible"`
	Coefficient        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"coefficient"`
	ActualPoints       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"actual_points"`
	EscalationPosition *int            `json:"escalation_position"`
	Multiplier         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"multiplier"`
	FinalPoints        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"final_points"`

	// CaseId references the upstream incident/case record. Opaque here.
	CaseId *int `gorm:"index" json:"case_id"`

	Liability *LiabilityAssessment `gorm:"foreignKey:AssessmentRecordId" json:"liability"`

	IsDeleted *bool      `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedBy string     `gorm:"size:100" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj AssessmentRecord) GetId() int {
	return obj.ID
}

func (r *AssessmentRecord) Deleted() bool {
	return r.IsDeleted != nil && *r.IsDeleted
}

func (r *AssessmentRecord) IsPenalty() bool {
	return r.BasePoints.IsNegative()
}

type NewAssessment struct {
	EmployeeId   int                `json:"employee_id" binding:"required"`
	StandardCode string             `json:"standard_code" binding:"required"`
	EventDate    time.Time          `json:"event_date" binding:"required"`
	Description  string             `json:"description"`
	CaseId       *int               `json:"case_id"`
	Liability    *NewLiabilityInput `json:"liability"`
}

type NewLiabilityInput struct {
	OccurredAt   *time.Time      `json:"occurred_at"`
	ReportedAt   *time.Time      `json:"reported_at"`
	ArrivedAt    *time.Time      `json:"arrived_at"`
	RecoveredAt  *time.Time      `json:"recovered_at"`
	ResumedAt    *time.Time      `json:"resumed_at"`
	DelayMinutes int             `json:"delay_minutes"`
	Checklist    json.RawMessage `json:"checklist" binding:"required"`
}

// AmendAssessment carries the only amendable fields. Standard code and event
// date are deliberately immutable here; changing them goes through
// delete+recreate or ChangeAssessmentDate so the audit trail survives.
type AmendAssessment struct {
	Description *string            `json:"description"`
	Liability   *NewLiabilityInput `json:"liability"`
}

// ValidateEventDate rejects zero dates, dates before the program existed and
// dates in the future.
func ValidateEventDate(date time.Time) error {
	if date.IsZero() {
		return utils.ErrorInvalidEventDate
	}
	if date.Year() < 2000 {
		return utils.ErrorInvalidEventDate
	}
	if date.After(time.Now().AddDate(0, 0, 1)) {
		return utils.ErrorInvalidEventDate
	}
	return nil
}

// ComputePoints derives actual and final points from the stored inputs:
// actual = base x coefficient, final = actual x multiplier.
func ComputePoints(basePoints, coefficient, multiplier decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	actual := basePoints.Mul(coefficient)
	final := actual.Mul(multiplier)
	return actual, final
}

// RenumberAssessments is the pure core of the recalculator: given the live
// escalation-eligible records of one (employee, year, bucket), it returns a
// copy ordered by event date (record id breaks ties) with positions 1..N,
// multipliers and points rederived. Running it twice is a no-op.
func RenumberAssessments(records []AssessmentRecord) []AssessmentRecord {
	out := make([]AssessmentRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID < out[j].ID
	})
	for i := range out {
		position := i + 1
		out[i].EscalationPosition = &position
		out[i].Multiplier = MultiplierForPosition(position)
		out[i].ActualPoints, out[i].FinalPoints = ComputePoints(out[i].BasePoints, out[i].Coefficient, out[i].Multiplier)
	}
	return out
}

// PointBreakdown is the result of a what-if liability calculation.
type PointBreakdown struct {
	BasePoints   decimal.Decimal `json:"base_points"`
	FaultCount   int             `json:"fault_count"`
	Tier         LiabilityTier   `json:"tier"`
	Coefficient  decimal.Decimal `json:"coefficient"`
	ActualPoints decimal.Decimal `json:"actual_points"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	FinalPoints  decimal.Decimal `json:"final_points"`
}

// PreviewLiabilityCalculation computes the full point breakdown for a
// hypothetical record without touching any state.
func PreviewLiabilityCalculation(basePoints decimal.Decimal, checklist *FaultChecklist, escalationPosition int) PointBreakdown {
	faultCount, tier, coefficient := AssessChecklist(checklist)
	multiplier := MultiplierForPosition(escalationPosition)
	actual, final := ComputePoints(basePoints, coefficient, multiplier)
	return PointBreakdown{
		BasePoints:   basePoints,
		FaultCount:   faultCount,
		Tier:         tier,
		Coefficient:  coefficient,
		ActualPoints: actual,
		Multiplier:   multiplier,
		FinalPoints:  final,
	}
}

func GetAssessment(ctx context.Context, id int) (*AssessmentRecord, error) {
	return utils.FetchSingleModel[AssessmentRecord](ctx, id, "Liability")
}

// ListAssessments returns an employee's records for a year, event-date
// ascending, deleted ones included (the API layer decides what to show).
func ListAssessments(ctx context.Context, employeeId int, year int) ([]*AssessmentRecord, error) {
	db := config.GetDB()
	var records []*AssessmentRecord
	err := db.WithContext(ctx).Preload("Liability").
		Where("employee_id = ? AND year = ?", employeeId, year).
		Order("event_date, id").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// AssessmentPage is one page of an employee's ledger plus the total count.
type AssessmentPage struct {
	Records []*AssessmentRecord `json:"records"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// PaginateAssessments pages through an employee-year ledger, newest event
// first. Limit is clamped to config.SearchLimit when out of range.
func PaginateAssessments(ctx context.Context, employeeId int, year int, limit int, offset int) (*AssessmentPage, error) {
	db := config.GetDB()
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := db.WithContext(ctx).Model(&AssessmentRecord{}).
		Where("employee_id = ? AND year = ?", employeeId, year)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var records []*AssessmentRecord
	err := db.WithContext(ctx).Preload("Liability").
		Where("employee_id = ? AND year = ?", employeeId, year).
		Order("event_date DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return &AssessmentPage{Records: records, Total: total, Limit: limit, Offset: offset}, nil
}
