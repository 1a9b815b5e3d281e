package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// assessment engine failures, surfaced to the API layer as typed errors
	ErrorUnknownOrInactiveStandard = errors.New("unknown or inactive standard code")
	ErrorAlreadyDeleted            = errors.New("assessment record is already deleted")
	ErrorNotDeleted                = errors.New("assessment record is not deleted")
	ErrorInvalidChecklist          = errors.New("invalid fault checklist")
	ErrorInvalidEventDate          = errors.New("invalid event date")
	ErrorRewardRecordManaged       = errors.New("reward records are managed by reward synchronization")
	ErrorRecalculationLock         = errors.New("could not obtain recalculation lock")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
