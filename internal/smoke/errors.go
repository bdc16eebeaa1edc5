package smoke

import (
	"errors"
	"fmt"
	"time"
)

// ErrTemplateMissing reports that the template required to materialize the
// container env file does not exist. The runner refuses to start any docker
// work without it.
var ErrTemplateMissing = errors.New("env template missing")

// ToolchainError describes a failed docker invocation.
type ToolchainError struct {
	// Step names the runner phase that failed (build, run).
	Step string
	// Command is the full command line that failed.
	Command string
	// Output is the combined stdout and stderr of the failed command.
	Output string
	// Err is the underlying execution error.
	Err error
}

func (e *ToolchainError) Error() string {
	return fmt.Sprintf("docker %s failed: %v", e.Step, e.Err)
}

func (e *ToolchainError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that an endpoint did not become ready within its
// deadline. LastErr carries the most recent probe failure so the root cause
// survives into the final error.
type TimeoutError struct {
	// URL is the endpoint that never became ready.
	URL string
	// Deadline is the total time the endpoint was given.
	Deadline time.Duration
	// LastErr is the failure observed on the final attempt.
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("%s not ready after %s: %v", e.URL, e.Deadline, e.LastErr)
	}
	return fmt.Sprintf("%s not ready after %s", e.URL, e.Deadline)
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}
