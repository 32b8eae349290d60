package booking

import (
	"errors"
	"fmt"
)

// ErrOutsideAvailability rejects a booking whose date-time is not covered by
// any published availability window of the establishment.
var ErrOutsideAvailability = errors.New("requested time is outside the establishment's published availability")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// UserNotFoundError aborts an invitation batch when one invitee id does not
// resolve. The whole batch is discarded; partial guest lists never persist.
type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("invited user %q not found", e.UserID)
}
