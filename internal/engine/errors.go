package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when submitting to an engine that has stopped.
var ErrStopped = errors.New("engine stopped")

// CollaboratorError reports a failure in the roster or journal after a
// command was applied. The match state is not affected.
type CollaboratorError struct {
	// Collaborator is "roster" or "journal".
	Collaborator string

	// MatchID identifies the affected match.
	MatchID string

	Err error
}

// Error implements the error interface.
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s (match=%s): %v", e.Collaborator, e.MatchID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaboratorError reports whether err came from a collaborator.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
