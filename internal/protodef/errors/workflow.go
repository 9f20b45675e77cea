package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies workflow failures so that callers can tell
// "already done", "not allowed yet" and "prerequisite missing" apart.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindValidation
	KindExternalService
	KindPartialFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation_failed"
	case KindExternalService:
		return "external_service_failure"
	case KindPartialFailure:
		return "partial_failure"
	}
	return "unknown"
}

type WorkflowError struct {
	Kind    Kind
	Summary string
	// Completed lists the steps that were persisted before a partial failure.
	Completed []string
	err       error
}

func (e *WorkflowError) Error() string {
	msg := e.Summary
	if len(e.Completed) > 0 {
		msg = fmt.Sprintf("%s (completed: %s)", msg, strings.Join(e.Completed, ", "))
	}
	if e.err != nil {
		return msg + ": " + e.err.Error()
	}
	return msg
}

func (e *WorkflowError) Unwrap() error {
	return e.err
}

func newWorkflowError(kind Kind, summary string, errs ...error) *WorkflowError {
	if len(errs) > 1 {
		panic("only 1 sub err")
	}
	e := &WorkflowError{Kind: kind, Summary: summary}
	if len(errs) == 1 {
		e.err = errs[0]
	}
	return e
}

func NewNotFound(summary string, errs ...error) *WorkflowError {
	return newWorkflowError(KindNotFound, summary, errs...)
}

func NewConflict(summary string, errs ...error) *WorkflowError {
	return newWorkflowError(KindConflict, summary, errs...)
}

func NewForbidden(summary string, errs ...error) *WorkflowError {
	return newWorkflowError(KindForbidden, summary, errs...)
}

func NewValidation(summary string, errs ...error) *WorkflowError {
	return newWorkflowError(KindValidation, summary, errs...)
}

func NewExternalService(summary string, errs ...error) *WorkflowError {
	return newWorkflowError(KindExternalService, summary, errs...)
}

// NewPartialFailure reports a multi-step operation that stopped after some steps were persisted.
func NewPartialFailure(summary string, completed []string, err error) *WorkflowError {
	e := newWorkflowError(KindPartialFailure, summary, err)
	e.Completed = append([]string(nil), completed...)
	return e
}

// KindOf returns the kind of the outermost WorkflowError in the chain.
func KindOf(err error) Kind {
	var we *WorkflowError
	if stderrors.As(err, &we) {
		return we.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
