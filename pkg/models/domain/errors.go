package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration      = errors.New("improper configuration")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidObservation = errors.New("invalid observation")
	ErrProcessExecution   = errors.New("process execution failed")
	ErrAggregation        = errors.New("invalid aggregation parameters")
	ErrUnexpectedResponse = errors.New("unexpected estimation response")
)

// MetricMissingError reports a record that lacks a metric being aggregated.
type MetricMissingError struct {
	Metric string
	Index  int
}

func (e *MetricMissingError) Error() string {
	return fmt.Sprintf("%s: metric %q is missing from input at index %d", ErrAggregation, e.Metric, e.Index)
}

func (e *MetricMissingError) Is(target error) bool {
	return target == ErrAggregation
}

// ProcessError wraps a failed plugin invocation.
type ProcessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", ErrProcessExecution, e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessExecution
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
