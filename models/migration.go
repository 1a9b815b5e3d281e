package models

import (
	"log"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Employee{},
		&StandardDefinition{},
		&AssessmentRecord{}, &LiabilityAssessment{},
		&CumulativeCounter{},
		&MonthlyRewardRecord{},
		&AnnualResetRecord{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
