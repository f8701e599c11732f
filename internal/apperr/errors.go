// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrConfig marks a missing or invalid setting; the operation was not attempted.
	ErrConfig = errors.New("configuration error")
	// ErrEnumeration marks a tree that could not be listed; nothing was written.
	ErrEnumeration = errors.New("enumeration error")
	// ErrBusy is returned when a sync batch is already in flight.
	ErrBusy = errors.New("sync already in progress")
	// ErrNothingToCommit is the publisher's "clean tree" outcome.
	ErrNothingToCommit = errors.New("nothing to commit")
)
