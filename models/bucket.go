package models

// Bucket is the unit of escalation counting. Usually a record counts inside
// its own category; the merged-liability standard codes share one bucket so
// repeat liability incidents escalate together regardless of code.
type Bucket string

const BucketLiability Bucket = "Liability"

// mergedLiabilityCodes is an explicit enumeration, deliberately NOT derived
// from a code prefix: a future unrelated "GA-9" must not silently join the
// shared bucket.
var mergedLiabilityCodes = map[string]bool{
	"GA-1": true,
	"GA-2": true,
	"KA-1": true,
}

func IsMergedLiabilityCode(code string) bool {
	return mergedLiabilityCodes[code]
}

// ResolveBucket maps a standard code + its category to the counting bucket
// used for escalation positions and cumulative counters.
func ResolveBucket(code string, category StandardCategory) Bucket {
	if mergedLiabilityCodes[code] {
		return BucketLiability
	}
	return Bucket(category)
}
