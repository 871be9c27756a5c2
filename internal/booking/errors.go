package booking

import (
    "errors"
    "fmt"
    "sort"
    "strings"
)

// Typed domain errors surfaced by aggregate operations.  The HTTP layer
// maps them to status codes; the engine itself never retries and never
// swallows them.
var (
    // ErrAvailabilityConflict means the requested slot is no longer free
    // (outside the service schedule or overlapping a committed line).
    ErrAvailabilityConflict = errors.New("slot not available")
    // ErrCapacityExceeded means the service's capacity at the slot is
    // exhausted.  It is a specialization of an availability conflict kept
    // distinct for messaging.
    ErrCapacityExceeded = errors.New("service capacity exceeded")
    // ErrNotFound means the referenced reservation, line or related entity
    // does not exist.
    ErrNotFound = errors.New("not found")
    // ErrForbidden means the acting user does not own the touched
    // resource.  Ownership is judged with the explicit acting-user id;
    // role decisions belong to the caller.
    ErrForbidden = errors.New("forbidden")
    // ErrInvalidState means the operation is not valid for the entity's
    // current status, such as confirming an empty cart.
    ErrInvalidState = errors.New("invalid state")
    // ErrUniqueViolation is returned by Store implementations when an
    // insert hits a unique constraint (reservation code, cart singleton,
    // enrollment uniqueness).  Aggregate operations translate it into a
    // retry or a domain error; it escapes only when the caller supplied
    // the conflicting value, such as an explicit reservation code.
    ErrUniqueViolation = errors.New("unique constraint violation")
)

// ValidationError reports malformed or missing input fields.  It is
// raised before any store access.
type ValidationError struct {
    Fields map[string]string
}

// Error lists the offending fields in a stable order.
func (e *ValidationError) Error() string {
    if len(e.Fields) == 0 {
        return "invalid input"
    }
    names := make([]string, 0, len(e.Fields))
    for f := range e.Fields {
        names = append(names, f)
    }
    sort.Strings(names)
    parts := make([]string, 0, len(names))
    for _, f := range names {
        parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
    }
    return "invalid input: " + strings.Join(parts, "; ")
}

// fieldErrors accumulates field problems and converts to a
// *ValidationError only when at least one was recorded.
type fieldErrors map[string]string

func (f fieldErrors) add(field, problem string) { f[field] = problem }

func (f fieldErrors) err() error {
    if len(f) == 0 {
        return nil
    }
    return &ValidationError{Fields: f}
}
