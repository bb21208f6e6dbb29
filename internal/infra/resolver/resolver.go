// Package resolver turns candidates into playable handles.
package resolver

import (
	"context"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// Gateway is the interface for resolution backends. A gateway makes exactly
// one attempt per call: no internal retry, no panic. A timeout on ctx is
// reported as an ordinary error.
type Gateway interface {
	// Resolve turns a candidate into a playable handle or fails.
	Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error)

	// Name returns the gateway name (used in config and logs).
	Name() string
}

// Func adapts a plain function to the Gateway interface.
type Func func(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error)

// Resolve calls fn.
func (fn Func) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	return fn(ctx, c)
}

// Name returns the adapter name.
func (fn Func) Name() string {
	return "func"
}
