package core

import "errors"

// Engine error taxonomy. Every operation either completes or rejects with
// one of these; the engine never retries on its own.
var (
	ErrNotFound         = errors.New("task not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStoreUnavailable = errors.New("store unavailable")
)
