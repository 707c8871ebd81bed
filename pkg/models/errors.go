package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core error taxonomy. Callers match with
// errors.Is; the richer typed errors below wrap these.
var (
	ErrValidation            = errors.New("validation error")
	ErrIdentityConflict      = errors.New("identity conflict")
	ErrDuplicateInteraction  = errors.New("duplicate interaction")
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
	ErrNotFound              = errors.New("not found")
)

// ValidationError reports a rejected input record. It is raised before the
// record reaches the engine; invalid records are never classified.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IdentityConflictError reports an identifier already bound to a different
// customer. Conflicts are surfaced for manual review, never auto-merged.
type IdentityConflictError struct {
	Identifier Identifier
	BoundTo    string
	Requested  string
}

func (e *IdentityConflictError) Error() string {
	return fmt.Sprintf("identifier %s:%s already bound to customer %s",
		e.Identifier.Type, e.Identifier.Value, e.BoundTo)
}

func (e *IdentityConflictError) Unwrap() error { return ErrIdentityConflict }
