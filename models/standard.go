package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
)

// StandardDefinition is the assessment standard catalog (read-only to the
// engine). BasePoints is signed: negative = penalty, positive = bonus.
type StandardDefinition struct {
	ID                 int              `gorm:"primary_key" json:"id"`
	Code               string           `gorm:"size:20;uniqueIndex;not null" json:"code" binding:"required"`
	Name               string           `gorm:"size:255;not null" json:"name" binding:"required"`
	Category           StandardCategory `gorm:"type:enum('Safety','Operation','Discipline','Service','Reward');not null" json:"category" binding:"required"`
	BasePoints         decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"base_points"`
	EscalationEligible *bool            `gorm:"not null;default:false" json:"escalation_eligible"`
	LiabilityScored    *bool            `gorm:"not null;default:false" json:"liability_scored"`
	Active             *bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj StandardDefinition) GetId() int {
	return obj.ID
}

func (s *StandardDefinition) IsPenalty() bool {
	return s.BasePoints.IsNegative()
}

const standardCatalogCacheKey = "standardCatalog"

// GetStandardByCode resolves a standard code against the catalog, redis or
// db. Returns ErrorUnknownOrInactiveStandard for unknown AND inactive codes:
// neither may originate new assessment records.
func GetStandardByCode(ctx context.Context, code string) (*StandardDefinition, error) {

	catalog := make(map[string]StandardDefinition)
	// Cache miss and cache failure both fall back to the db.
	exists, err := config.GetRedisObject(standardCatalogCacheKey, &catalog)
	if err != nil {
		exists = false
	}
	if !exists {
		db := config.GetDB()
		var standards []StandardDefinition
		if err := db.WithContext(ctx).Find(&standards).Error; err != nil {
			return nil, err
		}
		catalog = make(map[string]StandardDefinition, len(standards))
		for _, std := range standards {
			catalog[std.Code] = std
		}
		_ = config.SetRedisObject(standardCatalogCacheKey, &catalog, 0)
	}

	std, ok := catalog[code]
	if !ok || std.Active == nil || !*std.Active {
		return nil, utils.ErrorUnknownOrInactiveStandard
	}
	return &std, nil
}

// InvalidateStandardCatalogCache drops the redis copy of the catalog.
// Call after seeding or any catalog change.
func InvalidateStandardCatalogCache() error {
	return config.RemoveRedisKey(standardCatalogCacheKey)
}

func GetStandard(ctx context.Context, id int) (*StandardDefinition, error) {
	return utils.FetchSingleModel[StandardDefinition](ctx, id)
}

func GetAllStandards(ctx context.Context) ([]*StandardDefinition, error) {
	return utils.FetchAllModels[StandardDefinition](ctx)
}
