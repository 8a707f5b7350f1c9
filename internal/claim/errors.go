package claim

import "errors"

// Flow failures the CLI maps to distinct exit codes.
var (
	// ErrNavigation covers pages that never load or load without the
	// structure the flow depends on.
	ErrNavigation = errors.New("navigation failed")

	// ErrControlNotFound means the page rendered but the element the
	// flow needs is gone, usually because the site changed its markup.
	ErrControlNotFound = errors.New("claim control not found")
)

// StepError tags a failure with the flow step it happened in.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }
