package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tesseract/internal/ir"
	"github.com/roach88/tesseract/internal/resolver"
)

// OutcomeError is the logged outcome of a failure that carries no resolver code.
const OutcomeError = "ERROR"

// RuntimeError represents an engine failure outside the resolver itself.
//
// Resolver failures (unknown names, cross-hierarchy conflicts, ...) are
// returned as *resolver.ResolveError unchanged; RuntimeError covers the
// machinery around them.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ResolutionID identifies the affected log record, if any.
	ResolutionID string

	// Details contains additional context.
	Details map[string]string

	err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoStore indicates an operation needs the resolution log but none is configured.
	ErrCodeNoStore RuntimeErrorCode = "NO_STORE"

	// ErrCodeLogWrite indicates a resolution could not be appended to the log.
	ErrCodeLogWrite RuntimeErrorCode = "LOG_WRITE_FAILED"

	// ErrCodeCorruptLog indicates a logged request could not be decoded.
	ErrCodeCorruptLog RuntimeErrorCode = "CORRUPT_LOG"

	// ErrCodeInvalidQuery indicates a resolved query violates a structural invariant.
	ErrCodeInvalidQuery RuntimeErrorCode = "INVALID_QUERY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ResolutionID != "" {
		msg += fmt.Sprintf(" (resolution=%s)", e.ResolutionID)
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error { return e.err }

func runtimeCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNoStore returns true if err reports a missing resolution log.
func IsNoStore(err error) bool { return runtimeCode(err) == ErrCodeNoStore }

// IsLogWriteError returns true if err reports a failed log append.
func IsLogWriteError(err error) bool { return runtimeCode(err) == ErrCodeLogWrite }

// IsCorruptLog returns true if err reports an undecodable log record.
func IsCorruptLog(err error) bool { return runtimeCode(err) == ErrCodeCorruptLog }

// IsInvalidQuery returns true if err reports a resolved query breaking an invariant.
func IsInvalidQuery(err error) bool { return runtimeCode(err) == ErrCodeInvalidQuery }

func newNoStoreError(op string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNoStore,
		Message: op + " requires a resolution log",
	}
}

func newLogWriteError(id string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeLogWrite,
		Message:      "append resolution",
		ResolutionID: id,
		err:          cause,
	}
}

func newCorruptLogError(id string, cause error) *RuntimeError {
	return &RuntimeError{
		Code:         ErrCodeCorruptLog,
		Message:      "decode logged request",
		ResolutionID: id,
		err:          cause,
	}
}

func newInvalidQueryError(cube string, violations []string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidQuery,
		Message: fmt.Sprintf("query on cube %q: %s", cube, strings.Join(violations, "; ")),
		Details: map[string]string{"violations": fmt.Sprintf("%d", len(violations))},
	}
}

// OutcomeOf maps a resolution error to the outcome recorded in the log:
// ir.OutcomeOK for nil, the resolver code for resolver errors, the runtime
// code for engine errors and OutcomeError otherwise.
func OutcomeOf(err error) string {
	if err == nil {
		return ir.OutcomeOK
	}
	if code := resolver.CodeOf(err); code != "" {
		return string(code)
	}
	if code := runtimeCode(err); code != "" {
		return string(code)
	}
	return OutcomeError
}
