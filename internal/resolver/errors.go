package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tesseract/internal/schema"
)

// ResolveError is a terminal validation failure of a request.
//
// Every stage of resolution fails with a ResolveError and no partial query is
// returned. The structured fields carry enough context (entity kind,
// offending names) for the caller to build a user-facing message.
type ResolveError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the entity kind of an InvalidEntityName error.
	Kind schema.EntityKind

	// Names lists the offending identifiers.
	Names []string

	// Context names the directive a MissingMeasures error was found in.
	Context string

	// Details contains additional context, such as the conflicting hierarchies.
	Details map[string]string

	err error
}

// ErrorCode categorizes resolve errors.
type ErrorCode string

const (
	// ErrCodeNotAuthorized indicates the request failed the authorization predicate.
	ErrCodeNotAuthorized ErrorCode = "NOT_AUTHORIZED"

	// ErrCodeInvalidEntityName indicates a name that does not exist in the cube.
	ErrCodeInvalidEntityName ErrorCode = "INVALID_ENTITY_NAME"

	// ErrCodeCrossHierarchy indicates two hierarchies of one dimension were requested.
	ErrCodeCrossHierarchy ErrorCode = "CROSS_HIERARCHY_CONFLICT"

	// ErrCodeMissingMeasures indicates a directive names measures that were not requested.
	ErrCodeMissingMeasures ErrorCode = "MISSING_MEASURES"

	// ErrCodeCubeNotFound indicates the requested cube does not exist.
	ErrCodeCubeNotFound ErrorCode = "CUBE_NOT_FOUND"

	// ErrCodeInvalidRequest indicates a malformed directive.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ResolveError) Unwrap() error { return e.err }

// CodeOf returns the code of a ResolveError anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotAuthorized reports whether err is a NotAuthorized failure.
func IsNotAuthorized(err error) bool { return CodeOf(err) == ErrCodeNotAuthorized }

// IsInvalidEntityName reports whether err is an InvalidEntityName failure.
func IsInvalidEntityName(err error) bool { return CodeOf(err) == ErrCodeInvalidEntityName }

// IsCrossHierarchyConflict reports whether err is a CrossHierarchyConflict failure.
func IsCrossHierarchyConflict(err error) bool { return CodeOf(err) == ErrCodeCrossHierarchy }

// IsMissingMeasures reports whether err is a MissingMeasures failure.
func IsMissingMeasures(err error) bool { return CodeOf(err) == ErrCodeMissingMeasures }

// IsCubeNotFound reports whether err is a CubeNotFound failure.
func IsCubeNotFound(err error) bool { return CodeOf(err) == ErrCodeCubeNotFound }

// NewNotAuthorized creates a NotAuthorized error for the cube.
func NewNotAuthorized(cube string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeNotAuthorized,
		Message: fmt.Sprintf("not authorized to query cube %q", cube),
		Names:   []string{cube},
	}
}

// NewInvalidEntityName creates an InvalidEntityName error.
func NewInvalidEntityName(kind schema.EntityKind, name string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeInvalidEntityName,
		Message: fmt.Sprintf("%s %q does not exist", kind, name),
		Kind:    kind,
		Names:   []string{name},
	}
}

// NewCrossHierarchyConflict creates a CrossHierarchyConflict error naming both
// hierarchies of the dimension and the level that pulled in each.
func NewCrossHierarchyConflict(dimension string, first, second *schema.Level) *ResolveError {
	return &ResolveError{
		Code: ErrCodeCrossHierarchy,
		Message: fmt.Sprintf(
			"Multiple Hierarchies from the same Dimension are being requested: dimension %q, hierarchy %q (level %q) and hierarchy %q (level %q)",
			dimension, first.Hierarchy().Name, first.Name, second.Hierarchy().Name, second.Name),
		Names: []string{first.Name, second.Name},
		Details: map[string]string{
			"dimension":  dimension,
			"hierarchy1": first.Hierarchy().Name,
			"hierarchy2": second.Hierarchy().Name,
		},
	}
}

// NewMissingMeasures creates a MissingMeasures error. Names are reported as given.
func NewMissingMeasures(context string, names []string) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeMissingMeasures,
		Message: fmt.Sprintf("%s references measures not in the request: %s", context, strings.Join(names, ", ")),
		Context: context,
		Names:   names,
	}
}

// NewCubeNotFound creates a CubeNotFound error wrapping the schema lookup error.
func NewCubeNotFound(cube string, cause error) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeCubeNotFound,
		Message: fmt.Sprintf("cube %q does not exist", cube),
		Names:   []string{cube},
		err:     cause,
	}
}

// NewInvalidRequest creates an InvalidRequest error.
func NewInvalidRequest(format string, args ...any) *ResolveError {
	return &ResolveError{
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf(format, args...),
	}
}
