package models

import (
	"context"

	"bitbucket.org/mmdatafocus/drivers_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// defaultStandardCatalog is the seeded assessment standard catalog.
// Catalog management (CRUD, spreadsheet import) belongs to the platform
// layer; the engine only reads these rows.
func defaultStandardCatalog() []StandardDefinition {
	std := func(code, name string, category StandardCategory, points float64, escalates bool, liability bool) StandardDefinition {
		escalationEligible := escalates
		liabilityScored := liability
		return StandardDefinition{
			Code:               code,
			Name:               name,
			Category:           category,
			BasePoints:         decimal.NewFromFloat(points),
			EscalationEligible: &escalationEligible,
			LiabilityScored:    &liabilityScored,
			Active:             utils.NewTrue(),
		}
	}

	return []StandardDefinition{
		// merged-liability accident codes: shared escalation bucket
		std("GA-1", "General accident, minor", StandardCategoryOperation, -2, true, true),
		std("GA-2", "General accident, severe", StandardCategoryOperation, -4, true, true),
		std("KA-1", "Key accident", StandardCategorySafety, -8, true, true),

		std("SF-01", "Signal passed at danger", StandardCategorySafety, -4, true, false),
		std("SF-02", "Overspeed in section", StandardCategorySafety, -2, true, false),
		std("SF-03", "Vigilance device override", StandardCategorySafety, -2, true, false),
		std("OP-01", "Late handover of duty", StandardCategoryOperation, -1, true, false),
		std("OP-02", "Logbook entry missing", StandardCategoryOperation, -0.5, true, false),
		std("DS-01", "Uniform or conduct violation", StandardCategoryDiscipline, -0.5, false, false),
		std("DS-02", "Unexcused absence from briefing", StandardCategoryDiscipline, -1, false, false),
		std("SV-01", "Verified passenger complaint", StandardCategoryService, -1, false, false),

		std("BN-01", "Commendation by depot", StandardCategoryService, 1, false, false),
		std("BN-02", "Hazard prevented", StandardCategorySafety, 2, false, false),

		// monthly reward codes, created only by the reward synchronizer
		std(RewardCodeLiabilityFree, "Liability-free month", StandardCategoryReward, 0.5, false, false),
		std(RewardCodeKeyFree, "Key-violation-free month", StandardCategoryReward, 0.5, false, false),
		std(RewardCodeCleanMonth, "Violation-free month", StandardCategoryReward, 1, false, false),
	}
}

// SeedStandardCatalog inserts missing catalog rows. Existing codes are left
// untouched so local overrides survive reseeding.
func SeedStandardCatalog(tx *gorm.DB, ctx context.Context) error {
	for _, std := range defaultStandardCatalog() {
		var count int64
		if err := tx.WithContext(ctx).Model(&StandardDefinition{}).
			Where("code = ?", std.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		record := std
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return err
		}
	}
	return InvalidateStandardCatalogCache()
}
