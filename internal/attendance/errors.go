package attendance

import (
	"errors"
	"fmt"
)

// ErrPrimaryUnavailable marks failures of the primary store. It never reaches API callers.
var ErrPrimaryUnavailable = errors.New("primary store unavailable")

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateSubmissionError reports a second check-in for the same name on the same day.
// Clients match on the "already recorded" wording.
type DuplicateSubmissionError struct {
	Name  string
	Day   string
	Today bool
}

func (e *DuplicateSubmissionError) Error() string {
	if e.Today {
		return fmt.Sprintf("Attendance for %s is already recorded for today.", e.Name)
	}
	return fmt.Sprintf("Attendance for %s is already recorded for %s.", e.Name, e.Day)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsDuplicate reports whether err is a DuplicateSubmissionError.
func IsDuplicate(err error) bool {
	var d *DuplicateSubmissionError
	return errors.As(err, &d)
}
