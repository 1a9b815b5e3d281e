// rewards-backfill runs the monthly reward synchronization for one month
// across every active employee. Idempotent; safe to re-run after fixing bad
// ledger data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/workflow"
)

func main() {
	now := time.Now()
	year := flag.Int("year", now.Year(), "Target year")
	month := flag.Int("month", int(now.Month()), "Target month (1-12)")
	dryRun := flag.Bool("dry-run", true, "Report what would be granted/revoked (no writes)")
	flag.Parse()

	if *month < 1 || *month > 12 {
		fmt.Fprintln(os.Stderr, "--month must be between 1 and 12")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	ctx := context.Background()

	var err error
	var result *workflow.RewardBatchResult
	if *dryRun {
		result, err = workflow.PreviewMonthlyRewards(ctx, *year, *month)
	} else {
		config.ConnectRedisWithRetry()
		result, err = workflow.CalculateMonthlyRewardsBatch(ctx, *year, *month)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "reward synchronization failed: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if len(result.Failures) > 0 {
		os.Exit(1)
	}
}
