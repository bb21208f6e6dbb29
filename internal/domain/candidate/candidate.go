// Package candidate provides the Candidate and Resolved domain entities.
package candidate

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Candidate represents an unresolved playlist entry. It is an opaque
// descriptor (typically a URI) that may or may not turn out to be playable.
// Immutable once created.
type Candidate struct {
	URI     string    // Descriptor, e.g. "https://...", "file:///...", "spotify:track:..."
	Label   string    // Display label for logging (defaults to URI)
	AddedAt time.Time // Time when loaded into the store
}

// New creates a candidate from a URI with the URI as its label.
func New(uri string) Candidate {
	return Candidate{URI: uri, Label: uri, AddedAt: time.Now()}
}

// NewLabeled creates a candidate with an explicit display label.
func NewLabeled(uri, label string) Candidate {
	if label == "" {
		label = uri
	}
	return Candidate{URI: uri, Label: label, AddedAt: time.Now()}
}

// FromURIs converts a list of URIs into candidates.
func FromURIs(uris []string) []Candidate {
	cs := make([]Candidate, len(uris))
	for i, u := range uris {
		cs[i] = New(u)
	}
	return cs
}

// Resolved represents a playable handle produced by a resolver. The handle
// itself is opaque to the scheduler; only the label and the release hook
// matter to it. Ownership transfers to whoever receives it from Next; the
// scheduler releases handles it drops (prefetch drain, stale generations).
type Resolved struct {
	ID        string    // Correlation ID for logging
	Candidate Candidate // Source candidate
	Handle    any       // Backend-specific playable handle

	releaseOnce sync.Once
	release     func()
}

// NewResolved wraps a backend handle. release may be nil when the handle
// holds no resources.
func NewResolved(c Candidate, handle any, release func()) *Resolved {
	return &Resolved{
		ID:        uuid.New().String(),
		Candidate: c,
		Handle:    handle,
		release:   release,
	}
}

// Release frees backend resources tied to the handle. Safe to call more
// than once.
func (r *Resolved) Release() {
	r.releaseOnce.Do(func() {
		if r.release != nil {
			r.release()
		}
	})
}

// Label returns the display label of the source candidate.
func (r *Resolved) Label() string {
	return r.Candidate.Label
}
