package records

import (
	"fmt"

	"github.com/google/uuid"
)

// FetchError reports a failed read of one collection for one user. It matches
// both ErrFetch and the underlying cause under errors.Is.
type FetchError struct {
	Entity string
	UserID uuid.UUID
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for user %s: %v", e.Entity, e.UserID, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

func fetchErr(entity string, userID uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Entity: entity, UserID: userID, Err: err}
}
