package models

import (
	"bytes"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

// LiabilityAssessment exists one-to-one with an assessment record whose
// standard is liability-scored. It captures the incident timeline, the
// nine-item fault checklist result and the derived tier/coefficient.
type LiabilityAssessment struct {
	ID                 int        `gorm:"primary_key" json:"id"`
	AssessmentRecordId int        `gorm:"uniqueIndex;not null" json:"assessment_record_id"`
	OccurredAt         *time.Time `json:"occurred_at"`
	ReportedAt         *time.Time `json:"reported_at"`
	ArrivedAt          *time.Time `json:"arrived_at"`
	RecoveredAt        *time.Time `json:"recovered_at"`
	ResumedAt          *time.Time `json:"resumed_at"`
	DelayMinutes       int        `gorm:"default:0" json:"delay_minutes"`

	OverSpeed             *bool `gorm:"not null;default:false" json:"over_speed"`
	SignalMissed          *bool `gorm:"not null;default:false" json:"signal_missed"`
	UnauthorizedOperation *bool `gorm:"not null;default:false" json:"unauthorized_operation"`
	ImproperBraking       *bool `gorm:"not null;default:false" json:"improper_braking"`
	ProcedureSkipped      *bool `gorm:"not null;default:false" json:"procedure_skipped"`
	DelayedReport         *bool `gorm:"not null;default:false" json:"delayed_report"`
	CommunicationFailure  *bool `gorm:"not null;default:false" json:"communication_failure"`
	DeviceMisuse          *bool `gorm:"not null;default:false" json:"device_misuse"`
	FatigueViolation      *bool `gorm:"not null;default:false" json:"fatigue_violation"`

	FaultCount  int             `gorm:"not null;default:0" json:"fault_count"`
	Tier        LiabilityTier   `gorm:"type:enum('secondary','major','full')" json:"tier"`
	Coefficient decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"coefficient"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ChecklistFlag is a bool that tolerates the loosely-typed values upstream
// clients send: true/false, 0/1, "true"/"false", "0"/"1", "yes"/"no".
// Anything else is a validation error.
type ChecklistFlag bool

func (f *ChecklistFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1", `"true"`, `"1"`, `"yes"`, `"y"`:
		*f = true
	case "false", "0", `"false"`, `"0"`, `"no"`, `"n"`:
		*f = false
	default:
		return utils.ErrorInvalidChecklist
	}
	return nil
}

func (f ChecklistFlag) Bool() bool { return bool(f) }

// FaultChecklist is the fixed nine-item checklist. Fields are pointers so a
// missing key is distinguishable from an explicit false.
type FaultChecklist struct {
	OverSpeed             *ChecklistFlag `json:"over_speed"`
	SignalMissed          *ChecklistFlag `json:"signal_missed"`
	UnauthorizedOperation *ChecklistFlag `json:"unauthorized_operation"`
	ImproperBraking       *ChecklistFlag `json:"improper_braking"`
	ProcedureSkipped      *ChecklistFlag `json:"procedure_skipped"`
	DelayedReport         *ChecklistFlag `json:"delayed_report"`
	CommunicationFailure  *ChecklistFlag `json:"communication_failure"`
	DeviceMisuse          *ChecklistFlag `json:"device_misuse"`
	FatigueViolation      *ChecklistFlag `json:"fatigue_violation"`
}

func (c *FaultChecklist) items() []*ChecklistFlag {
	return []*ChecklistFlag{
		c.OverSpeed, c.SignalMissed, c.UnauthorizedOperation,
		c.ImproperBraking, c.ProcedureSkipped, c.DelayedReport,
		c.CommunicationFailure, c.DeviceMisuse, c.FatigueViolation,
	}
}

// Complete reports whether all nine keys were present.
func (c *FaultChecklist) Complete() bool {
	for _, item := range c.items() {
		if item == nil {
			return false
		}
	}
	return true
}

// FaultCount returns the number of checked items (0-9).
func (c *FaultChecklist) FaultCount() int {
	count := 0
	for _, item := range c.items() {
		if item != nil && bool(*item) {
			count++
		}
	}
	return count
}

// ParseFaultChecklist decodes a raw checklist payload, rejecting unknown
// keys, missing keys and non-boolean values.
func ParseFaultChecklist(data []byte) (*FaultChecklist, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var checklist FaultChecklist
	if err := decoder.Decode(&checklist); err != nil {
		return nil, utils.ErrorInvalidChecklist
	}
	if !checklist.Complete() {
		return nil, utils.ErrorInvalidChecklist
	}
	return &checklist, nil
}

// Liability coefficients per tier. Fixed by the assessment program, not
// configurable.
var (
	coefficientSecondary = decimal.NewFromFloat(0.3)
	coefficientMajor     = decimal.NewFromFloat(0.6)
	coefficientFull      = decimal.NewFromInt(1)
)

func TierForFaultCount(faultCount int) LiabilityTier {
	switch {
	case faultCount >= 1 && faultCount <= 3:
		return LiabilityTierSecondary
	case faultCount >= 4 && faultCount <= 6:
		return LiabilityTierMajor
	case faultCount >= 7 && faultCount <= 9:
		return LiabilityTierFull
	}
	return ""
}

func CoefficientForTier(tier LiabilityTier) decimal.Decimal {
	switch tier {
	case LiabilityTierSecondary:
		return coefficientSecondary
	case LiabilityTierMajor:
		return coefficientMajor
	case LiabilityTierFull:
		return coefficientFull
	}
	return decimal.NewFromInt(1)
}

// AssessChecklist classifies a validated checklist into fault count, tier and
// coefficient. Zero faults yields no tier and the neutral coefficient: a
// liability assessment row is not persisted in that case.
func AssessChecklist(checklist *FaultChecklist) (int, LiabilityTier, decimal.Decimal) {
	faultCount := checklist.FaultCount()
	tier := TierForFaultCount(faultCount)
	return faultCount, tier, CoefficientForTier(tier)
}
