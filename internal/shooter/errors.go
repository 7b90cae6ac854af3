package shooter

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a response body that could not be understood.
var ErrMalformedResponse = errors.New("malformed response")

// SubmitError reports a submission that did not produce a queued job. Reason is
// the user-facing text.
type SubmitError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *SubmitError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return DefaultFailureMessage
}

func (e *SubmitError) Unwrap() error { return e.Err }

// PollError reports a transport failure during a status check. It is never
// retried.
type PollError struct {
	TaskID string
	Err    error
}

func (e *PollError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("status check for %s failed", e.TaskID)
	}
	return e.Err.Error()
}

func (e *PollError) Unwrap() error { return e.Err }
