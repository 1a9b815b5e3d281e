package utils

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var DefaultTimezone = "Asia/Yangon"

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Println("Error loading location:", err)
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location)
	return dateOnly, nil
}

// MonthRange returns [first instant, last instant) of the given month in the given timezone.
func MonthRange(year int, month time.Month, timezone string) (time.Time, time.Time, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, location)
	end := start.AddDate(0, 1, 0)
	return start, end, nil
}

// LastDayOfMonth returns the last calendar day of the month at midnight in the given timezone.
func LastDayOfMonth(year int, month time.Month, timezone string) (time.Time, error) {
	start, end, err := MonthRange(year, month, timezone)
	if err != nil {
		return time.Time{}, err
	}
	_ = start
	return end.AddDate(0, 0, -1), nil
}
