// score-audit compares every active employee's stored running score against
// baseline + SUM(final_points) over their live assessment records and
// reports any drift. Read-only; exits non-zero when drift is found so it can
// gate a cron alert.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/workflow"
)

func main() {
	asJson := flag.Bool("json", false, "Emit drift report as JSON")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	drifts, err := workflow.AuditEmployeeScores(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit failed: %v\n", err)
		os.Exit(1)
	}
	if len(drifts) == 0 {
		fmt.Println("no drift: all stored scores match the ledger")
		return
	}

	if *asJson {
		out, _ := json.MarshalIndent(drifts, "", "  ")
		fmt.Println(string(out))
	} else {
		for _, d := range drifts {
			fmt.Printf("employee %d (%s %s): stored=%s computed=%s drift=%s\n",
				d.EmployeeId, d.EmployeeNo, d.Name, d.Stored, d.Computed, d.Drift)
		}
	}
	os.Exit(1)
}
