package gitrepo

import "fmt"

// InvalidRefError reports a ref that does not resolve in the repository.
type InvalidRefError struct {
	Ref string
	Err error
}

func (e *InvalidRefError) Error() string {
	return fmt.Sprintf("invalid ref: %s", e.Ref)
}

func (e *InvalidRefError) Unwrap() error { return e.Err }

// UnavailableError reports that the repository cannot be queried at all:
// not inside a working repository, git binary missing, or a command timeout.
// It is surfaced as-is and never retried here.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	return "repository unavailable: " + e.Reason
}

func (e *UnavailableError) Unwrap() error { return e.Err }
