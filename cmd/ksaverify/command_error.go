package main

import "fmt"

const (
	exitFail  = 1
	exitUsage = 2
)

// ExitError carries a process exit code out of a command.
//
// A nil Err means the command already reported its outcome and only the
// code matters, as with a failed verdict.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}
