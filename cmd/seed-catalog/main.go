// seed-catalog migrates the schema and inserts the default standard catalog
// (missing codes only, existing rows untouched). Run once per environment
// and after adding new standard codes.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	models.MigrateTable()

	ctx := context.Background()
	tx := db.Begin()
	if err := models.SeedStandardCatalog(tx, ctx); err != nil {
		tx.Rollback()
		fmt.Fprintf(os.Stderr, "seeding standard catalog failed: %v\n", err)
		os.Exit(1)
	}
	if err := tx.Commit().Error; err != nil {
		fmt.Fprintf(os.Stderr, "commit failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("schema migrated and standard catalog seeded")
}
