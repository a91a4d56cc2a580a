package cpr

import "errors"

var (
	// ErrConfiguration covers unknown preconditioner kinds, missing required
	// configuration sub-blocks, and unsupported feature combinations. Always
	// fatal at construction, never retried.
	ErrConfiguration = errors.New("cpr: invalid configuration")

	// ErrUnsupported reports that a requested capability cannot be supplied
	// by the operator at hand, e.g. well coupling without a well hook.
	ErrUnsupported = errors.New("cpr: unsupported operation")
)
