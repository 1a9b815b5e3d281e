package config

import (
	"os"
	"strings"
)

// StrictScoreReconciliation forces a full score re-summation after every
// ledger mutation, not only after delete/restore/date-change.
//
// Set via env:
// - STRICT_SCORE_RECONCILIATION=true
func StrictScoreReconciliation() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_SCORE_RECONCILIATION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
