package main

import (
	"errors"

	"coinclaw/internal/claim"
	"coinclaw/internal/session"
)

// Exit codes are part of the contract with cron wrappers and notifiers:
// 0 means the reward is claimed (now or earlier today), 1 means no valid
// session, 2 means the site changed underneath us.
const (
	exitFailure    = 1
	exitFlowBroken = 2
)

// ExitCodeError wraps an error with a specific process exit code, for
// the few cases the sentinel mapping below cannot express.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func exitCodeFor(err error) int {
	var coded *ExitCodeError
	if errors.As(err, &coded) {
		return coded.Code
	}
	switch {
	case errors.Is(err, session.ErrLoginFailed):
		return exitFailure
	case errors.Is(err, claim.ErrControlNotFound),
		errors.Is(err, claim.ErrNavigation),
		errors.Is(err, session.ErrNavigation):
		return exitFlowBroken
	}
	return exitFailure
}
