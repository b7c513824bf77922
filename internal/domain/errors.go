package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound      = errors.New("tenant not found")
	ErrStoreConfigNotFound = errors.New("no active store config")
	ErrSessionNotFound     = errors.New("import session not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrUnsupportedFile     = errors.New("only CSV or XLSX files are allowed")
)

// ConnectionConfigError is returned when a directory record cannot be
// turned into a usable connection, e.g. an empty database name.
type ConnectionConfigError struct {
	Slug   string
	Reason string
}

func (e *ConnectionConfigError) Error() string {
	return fmt.Sprintf("tenant %q has an unusable connection config: %s", e.Slug, e.Reason)
}

// SlugConflictError is returned when a tenant slug is already registered.
type SlugConflictError struct {
	Slug string
}

func (e *SlugConflictError) Error() string {
	return fmt.Sprintf("slug %q is already in use", e.Slug)
}

// StoreConfigConflictError is returned when more than one store config row
// is marked active for the same tenant. The schema expects at most one;
// multiple rows are an error state to surface, not an ambiguity to resolve
// by silent first-match.
type StoreConfigConflictError struct {
	CNPJ  string
	Count int
}

func (e *StoreConfigConflictError) Error() string {
	return fmt.Sprintf("%d active store configs for store %q, expected at most 1", e.Count, e.CNPJ)
}

// AuthenticationError is returned when a marketplace login or token
// refresh is rejected.
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("marketplace %s failed: %v", e.Op, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx marketplace response so synchronous
// callers can re-surface the upstream status and body.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("marketplace returned %d: %s", e.Status, e.Body)
}

// RowValidationError collects every constraint a single import row
// violated. It is recorded per row, never propagated to the caller.
type RowValidationError struct {
	SKU        string
	Violations []string
}

func (e *RowValidationError) Error() string {
	return "Validation Error: " + strings.Join(e.Violations, "; ")
}

// MissingReferenceError is returned when a product row references an
// entity that does not exist in the tenant database. Creating the product
// with a guessed id would corrupt the catalog, so the row fails instead.
type MissingReferenceError struct {
	Kind string
	Name string
}

func (e *MissingReferenceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("no %s reference available", e.Kind)
	}
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

// TransitionError is returned when a token lifecycle event is not allowed
// from the current state.
type TransitionError struct {
	Event   TokenEvent
	Current TokenState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}
