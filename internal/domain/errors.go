// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist or was already swept.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a unique-constraint violation on an upsert-style write.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates a request with an invalid enum value or
// out-of-range field. Writes carrying it never reach storage.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState indicates a reference to a parent row that does not
// exist, or a state transition the entity's lifecycle does not allow.
var ErrInvalidState = errors.New("invalid state")
