package main

import "errors"

// exitCodeError carries a process exit status through cobra. An empty
// err means the output already explains the status.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error { return e.err }

// exitCritical is returned when a reported diagnostic is critical.
var exitCritical = &exitCodeError{code: 2}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		return ec.code
	}
	return 1
}
