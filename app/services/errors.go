// Package services holds the business rules. Every exported operation takes
// the calling rbac.Principal and re-checks the capability its route is gated
// on, so services are safe to call without the HTTP layer.
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shashiranjanraj/littlelemon/pkg/rbac"
)

var (
	// ErrNotFound is wrapped by every "X not found" error.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller lacks the capability. It
	// carries no detail about what was missing.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means the operation lost a race it could not retry past.
	ErrConflict = errors.New("conflict")
)

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// ValidationError lists offending fields, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// BusinessRuleError is a well-formed request the current state refuses.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string { return e.Message }

func authorize(p rbac.Principal, caps ...rbac.Capability) error {
	if !p.HasAny(caps...) {
		return ErrForbidden
	}
	return nil
}
