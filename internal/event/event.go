// Package event defines the test outcome values delivered by the runner.
package event

import (
	"errors"
	"fmt"
)

// Status is the terminal classification of one test execution.
type Status string

const (
	// StatusPassed indicates the test completed successfully.
	StatusPassed Status = "passed"
	// StatusFailed indicates the test ran and its assertions failed.
	StatusFailed Status = "failed"
	// StatusSkipped indicates the test was not executed.
	StatusSkipped Status = "skipped"
	// StatusBroken indicates the test aborted outside its assertions (setup error, panic).
	StatusBroken Status = "broken"
)

var (
	errNameRequired  = errors.New("test name is required")
	errUnknownStatus = errors.New("unknown status")
	errNegativeValue = errors.New("value must be non-negative")
	errUnexpectedErr = errors.New("error summary only valid for failed or broken outcomes")
)

// Valid reports whether s is one of the four terminal statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusBroken:
		return true
	default:
		return false
	}
}

// Failed reports whether the status represents an unsuccessful execution
// that carries an error summary.
func (s Status) Failed() bool {
	return s == StatusFailed || s == StatusBroken
}

// TestOutcome is the terminal result of one test execution. Retried tests
// collapse to a single outcome with RetryCount recording the re-executions.
type TestOutcome struct {
	CaseID       string `json:"case_id,omitempty"`
	Name         string `json:"name"`
	Status       Status `json:"status"`
	DurationMS   int64  `json:"duration_ms"`
	RetryCount   int    `json:"retry_count,omitempty"`
	ErrorSummary string `json:"error_summary,omitempty"`
}

// Validate checks the outcome against the event model constraints.
func (o *TestOutcome) Validate() error {
	if o.Name == "" {
		return errNameRequired
	}

	if !o.Status.Valid() {
		return fmt.Errorf("%w: %q", errUnknownStatus, o.Status)
	}

	if o.DurationMS < 0 {
		return fmt.Errorf("duration_ms: %w", errNegativeValue)
	}

	if o.RetryCount < 0 {
		return fmt.Errorf("retry_count: %w", errNegativeValue)
	}

	if o.ErrorSummary != "" && !o.Status.Failed() {
		return fmt.Errorf("%w: status is %q", errUnexpectedErr, o.Status)
	}

	return nil
}
