// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the backend rejected the request payload.
// Not retryable; the payload must change.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized indicates the bearer token is missing, expired, or invalid.
// The session must be invalidated when this surfaces.
var ErrUnauthorized = errors.New("unauthorized")

// ErrTransient indicates a network or server failure that may succeed on a
// manual retry.
var ErrTransient = errors.New("transient error")

// ErrMutationPending indicates a mutation for the same ticket is already in
// flight and the new one was rejected.
var ErrMutationPending = errors.New("mutation already in flight for this ticket")
