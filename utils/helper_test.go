package utils

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	start, end, err := MonthRange(2026, time.February, "")
	if err != nil {
		t.Fatalf("MonthRange: %v", err)
	}
	if start.Day() != 1 || start.Month() != time.February {
		t.Fatalf("start = %s, want Feb 1", start)
	}
	if end.Month() != time.March || end.Day() != 1 {
		t.Fatalf("end = %s, want Mar 1", end)
	}
	if loc := start.Location().String(); loc != DefaultTimezone {
		t.Fatalf("location = %s, want %s", loc, DefaultTimezone)
	}
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, c := range cases {
		got, err := LastDayOfMonth(c.year, c.month, "")
		if err != nil {
			t.Fatalf("LastDayOfMonth(%d, %s): %v", c.year, c.month, err)
		}
		if got.Day() != c.day || got.Month() != c.month {
			t.Fatalf("LastDayOfMonth(%d, %s) = %s, want day %d", c.year, c.month, got, c.day)
		}
	}
}

func TestConvertToDateDropsClock(t *testing.T) {
	in := time.Date(2026, 5, 20, 23, 45, 0, 0, time.UTC)
	got, err := ConvertToDate(in, "UTC")
	if err != nil {
		t.Fatalf("ConvertToDate: %v", err)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Day() != 20 {
		t.Fatalf("got %s, want 2026-05-20 00:00", got)
	}
}
