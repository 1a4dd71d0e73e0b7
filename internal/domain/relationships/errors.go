package relationships

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists     = errors.New("relationship already exists")
	ErrNotFound          = errors.New("relationship not found")
	ErrAlreadyBlocked    = errors.New("a block exists between these users")
	ErrInvalidTransition = errors.New("invalid relationship transition")
	ErrTransientStore    = errors.New("relationship store temporarily unavailable")
	ErrUnknownStatus     = errors.New("unknown follow status")
)

// checkStatus rejects a follow status read from storage that is not one of
// the known states.
func checkStatus(s FollowStatus) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return nil
}
