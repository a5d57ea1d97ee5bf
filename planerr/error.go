// Package planerr provides structured error types for the patch plan engine.
//
// This package defines standard error codes and a structured Error type
// that includes the pipeline stage, the implicated patch or record
// identifiers, and cause chains. It integrates with Go's standard errors
// package for error wrapping and unwrapping.
package planerr

import (
	"fmt"
	"strings"
)

// Standard error codes used across pipeline stages for consistent reporting.
const (
	// ErrCodeIngestion indicates a malformed or incomplete input record.
	// Fatal: the run aborts before scoring.
	ErrCodeIngestion = "INGESTION_ERROR"

	// ErrCodeCyclicDependency indicates the derived dependency edges form
	// a cycle. Fatal: the run aborts before scheduling.
	ErrCodeCyclicDependency = "CYCLIC_DEPENDENCY"

	// ErrCodeUnschedulablePatch indicates a patch whose full target set
	// never frees up. Non-fatal: scheduling continues for independent
	// patches and the patch is reported in the plan's unscheduled list.
	ErrCodeUnschedulablePatch = "UNSCHEDULABLE_PATCH"

	// ErrCodeAssembly indicates a patch reached the assembler without a
	// slot or tier. Fatal, and always an internal invariant violation.
	ErrCodeAssembly = "ASSEMBLY_ERROR"
)

// Error is a structured error for pipeline operations.
// It records which stage failed, a standard error code, and the
// record/patch identifiers implicated, so no failure is ever a bare
// generic message.
type Error struct {
	// Stage is the pipeline stage that produced the error
	// (e.g., "ingest", "depgraph", "schedule", "assemble").
	Stage string

	// Code is one of the standard error code constants.
	Code string

	// Message is a human-readable error description.
	Message string

	// IDs lists the record or patch identifiers implicated.
	IDs []string

	// Details carries additional context as key-value pairs.
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// New creates a new structured pipeline error.
//
// Example:
//
//	err := planerr.New("ingest", planerr.ErrCodeIngestion, "record has no affected targets", "CVE-2024-0001")
func New(stage, code, message string, ids ...string) *Error {
	return &Error{
		Stage:   stage,
		Code:    code,
		Message: message,
		IDs:     ids,
	}
}

// WithCause attaches an underlying error and returns the same instance
// for chaining.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches additional context and returns the same instance
// for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Error implements the error interface.
// It formats the error as: "stage [code]: message (ids): cause".
//
// Examples:
//   - "depgraph [CYCLIC_DEPENDENCY]: prerequisite cycle detected (CVE-1, CVE-2)"
//   - "ingest [INGESTION_ERROR]: base severity out of range (CVE-9): got 12.0"
func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s [%s]", e.Stage, e.Code))

	msg := e.Message
	if len(e.IDs) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.IDs, ", "))
	}
	if msg != "" {
		parts = append(parts, msg)
	}

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause error, enabling errors.Is and
// errors.As on wrapped errors.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error equality for errors.Is.
// Two Error values match when they share the same Stage and Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Stage == t.Stage && e.Code == t.Code
}

// As implements error type assertion for errors.As.
func (e *Error) As(target any) bool {
	t, ok := target.(**Error)
	if !ok {
		return false
	}
	*t = e
	return true
}

// IsFatal reports whether the error aborts the whole run.
// Unschedulable patches are the only non-fatal case: they are collected
// and surfaced alongside the partial plan.
func (e *Error) IsFatal() bool {
	return e.Code != ErrCodeUnschedulablePatch
}
