// ledger-rebuild recalculates every escalation bucket of one employee and
// rederives the running score from the surviving records. Recovery tool for
// drift reported by score-audit or after manual data surgery.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/drivers_backend/config"
	"bitbucket.org/mmdatafocus/drivers_backend/workflow"
)

func main() {
	employeeId := flag.Int("employee-id", 0, "Required: employee id to rebuild")
	confirm := flag.String("confirm", "", "Type REBUILD to proceed")
	flag.Parse()

	if *employeeId <= 0 {
		fmt.Fprintln(os.Stderr, "--employee-id is required")
		os.Exit(1)
	}
	if strings.TrimSpace(*confirm) != "REBUILD" {
		fmt.Fprintln(os.Stderr, "set --confirm=REBUILD to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := workflow.RebuildEmployeeLedger(context.Background(), *employeeId); err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ledger rebuilt for employee %d\n", *employeeId)
}
