package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// releaseTracker resolves everything and counts how many handles get
// released.
type releaseTracker struct {
	released atomic.Int32
}

func (r *releaseTracker) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	return candidate.NewResolved(c, nil, func() { r.released.Add(1) }), nil
}

func (r *releaseTracker) Name() string { return "release_tracker" }

func TestPrefetcher_FillsToDepth(t *testing.T) {
	gw := &releaseTracker{}
	s, err := New(gw, candidate.FromURIs([]string{"a", "b", "c"}), Options{Mode: ModeOrdered, Loop: true, MaxFail: 1})
	require.NoError(t, err)

	p := NewPrefetcher(s, 2)
	defer p.Close()

	require.Eventually(t, func() bool { return p.Buffered() == 2 },
		time.Second, 10*time.Millisecond, "buffer fills to depth")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	item := p.Next(ctx)
	require.NotNil(t, item)
	assert.Equal(t, "a", item.Candidate.URI)
	item.Release()
}

func TestPrefetcher_ReloadDrainsBufferedItems(t *testing.T) {
	gw := &releaseTracker{}
	s, err := New(gw, candidate.FromURIs([]string{"a", "b", "c"}), Options{Mode: ModeOrdered, Loop: true, MaxFail: 1})
	require.NoError(t, err)

	p := NewPrefetcher(s, 2)
	defer p.Close()

	require.Eventually(t, func() bool { return p.Buffered() == 2 },
		time.Second, 10*time.Millisecond)

	s.Reload(candidate.FromURIs([]string{"x", "y"}), true)

	assert.Eventually(t, func() bool { return gw.released.Load() >= 2 },
		time.Second, 10*time.Millisecond, "buffered items from the old list are released")

	// Deliveries resume from the new list.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Eventually(t, func() bool {
		item := p.Next(ctx)
		if item == nil {
			return false
		}
		defer item.Release()
		return item.Candidate.URI == "x" || item.Candidate.URI == "y"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPrefetcher_CloseReleasesBuffer(t *testing.T) {
	gw := &releaseTracker{}
	s, err := New(gw, candidate.FromURIs([]string{"a", "b"}), Options{Mode: ModeOrdered, Loop: true, MaxFail: 1})
	require.NoError(t, err)

	p := NewPrefetcher(s, 2)
	require.Eventually(t, func() bool { return p.Buffered() == 2 },
		time.Second, 10*time.Millisecond)

	p.Close()
	assert.GreaterOrEqual(t, gw.released.Load(), int32(2))
}

func TestPrefetcher_NextHonorsContext(t *testing.T) {
	gw := &releaseTracker{}
	// Empty list: nothing will ever be buffered.
	s, err := New(gw, nil, Options{Mode: ModeOrdered, Loop: true, MaxFail: 1})
	require.NoError(t, err)

	p := NewPrefetcher(s, 1)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.Nil(t, p.Next(ctx))
}
