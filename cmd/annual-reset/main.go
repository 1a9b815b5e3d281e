// annual-reset starts a new assessment year: active employees return to the
// baseline score and the year's escalation counters are zeroed. Assessment
// records and audit history are never touched.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/annual-reset --year 2026 --dry-run=false --confirm=RESET
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/workflow"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "Assessment year to reset")
	dryRun := flag.Bool("dry-run", true, "Show what would change (no writes)")
	confirm := flag.String("confirm", "", "Type RESET to proceed when dry-run=false")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*confirm) != "RESET" {
		fmt.Fprintln(os.Stderr, "set --confirm=RESET to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	ctx := context.Background()

	if *dryRun {
		summary, err := workflow.PreviewAnnualReset(ctx, *year)
		if err != nil {
			fmt.Fprintf(os.Stderr, "preview failed: %v\n", err)
			os.Exit(1)
		}
		printSummary(summary)
		if summary.AlreadyReset {
			fmt.Printf("note: year %d was already reset at %s\n", *year, summary.ExecutedAt.Format(time.RFC3339))
		}
		return
	}

	config.ConnectRedisWithRetry()
	summary, err := workflow.ExecuteAnnualReset(ctx, *year, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "annual reset failed: %v\n", err)
		os.Exit(1)
	}
	printSummary(summary)
	fmt.Printf("annual reset for %d done: %d employees, %d counters\n", *year, summary.EmployeesReset, summary.CountersReset)
}

func printSummary(summary *workflow.AnnualResetSummary) {
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
