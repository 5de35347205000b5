// Package model provides the backend interface and its two variants.
package model

import "context"

// Backend is either the local model server or the managed cloud model.
// It is selected once at startup and threaded through the runtime.
type Backend interface {
	// Send runs one inference round. Tools may be nil.
	Send(ctx context.Context, req *Request) (*Response, error)

	// Name returns the model identifier.
	Name() string

	// IsLocal returns true if this is the local backend.
	IsLocal() bool

	// WithModel returns a backend of the same variant bound to another model.
	WithModel(model string) Backend
}
