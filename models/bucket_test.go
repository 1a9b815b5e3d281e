package models

import "testing"

func TestResolveBucketMergedLiabilityCodes(t *testing.T) {
	for _, code := range []string{"GA-1", "GA-2", "KA-1"} {
		if got := ResolveBucket(code, StandardCategorySafety); got != BucketLiability {
			t.Fatalf("ResolveBucket(%s) = %s, want %s", code, got, BucketLiability)
		}
	}
}

func TestResolveBucketFallsBackToCategory(t *testing.T) {
	cases := []struct {
		code     string
		category StandardCategory
		want     Bucket
	}{
		{"SF-01", StandardCategorySafety, Bucket("Safety")},
		{"OP-02", StandardCategoryOperation, Bucket("Operation")},
		{"DS-01", StandardCategoryDiscipline, Bucket("Discipline")},
		{"RW-LIAB", StandardCategoryReward, Bucket("Reward")},
	}
	for _, c := range cases {
		if got := ResolveBucket(c.code, c.category); got != c.want {
			t.Fatalf("ResolveBucket(%s, %s) = %s, want %s", c.code, c.category, got, c.want)
		}
	}
}

func TestMergedCodesShareOneCounter(t *testing.T) {
	// GA-1 and KA-1 are different standards but the same escalation chain.
	if ResolveBucket("GA-1", StandardCategorySafety) != ResolveBucket("KA-1", StandardCategorySafety) {
		t.Fatal("merged liability codes must resolve to the same bucket")
	}
}
