package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
	"github.com/osa030/rotor/internal/infra/resolver"
)

// Options holds scheduler configuration. Zero durations fall back to the
// defaults below.
type Options struct {
	Mode           Mode
	Loop           bool
	MaxFail        int           // Consecutive failures before the cooldown gate closes
	PrefetchDepth  int           // Resolved items buffered ahead of the consumer
	ResolveTimeout time.Duration // Bound on a single resolution attempt
	Cooldown       time.Duration // Window during which pulls short-circuit after threshold failures
}

const (
	defaultResolveTimeout = 10 * time.Second
	defaultCooldown       = time.Second
)

// Hooks are optional lifecycle callbacks. All of them run outside the
// scheduler lock and may call Reload.
type Hooks struct {
	// OnLoop fires when a pass is exhausted and looping is enabled, before
	// the queue is replenished.
	OnLoop func()
	// OnDone fires exactly once when the playlist is exhausted and looping
	// is disabled.
	OnDone func()
	// OnFail fires exactly once per failure streak, on the failure that
	// reaches MaxFail. A non-empty return value is fed to Reload as a
	// fallback playlist.
	OnFail func() []string
}

// Scheduler feeds a downstream consumer with resolved playable items, one
// per Next call. A single consumer pulls at a time; Reload may race with
// pulls from an administrative path.
type Scheduler struct {
	mu    sync.Mutex
	store *store
	gov   *governor

	opts    Options
	hooks   Hooks
	accepts func(candidate.Candidate) bool
	gateway resolver.Gateway

	generation uint64 // reload counter, used to spot stale prefetched items
	drainFn    func() // registered by the prefetcher

	stopped      atomic.Bool
	shuttingDown atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler over the given candidates. Configuration errors
// are fatal here, never at pull time.
func New(gw resolver.Gateway, candidates []candidate.Candidate, opts Options) (*Scheduler, error) {
	if gw == nil {
		return nil, errors.New("resolver gateway is required")
	}
	if !opts.Mode.valid() {
		return nil, errors.Newf("invalid scheduler mode: %d", opts.Mode)
	}
	if opts.MaxFail < 1 {
		return nil, errors.Newf("max_fail must be >= 1, got %d", opts.MaxFail)
	}
	if opts.PrefetchDepth < 0 {
		return nil, errors.Newf("prefetch_depth must be >= 0, got %d", opts.PrefetchDepth)
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = defaultResolveTimeout
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaultCooldown
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:   newStore(opts.Mode, candidates),
		gov:     newGovernor(opts.MaxFail, opts.Cooldown),
		opts:    opts,
		gateway: gw,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SetHooks installs the lifecycle hooks. Must be called before the first
// pull.
func (s *Scheduler) SetHooks(h Hooks) {
	s.hooks = h
}

// SetAccepts installs the acceptance predicate, applied to each candidate
// before resolution. The predicate must not mutate scheduler state. Must be
// called before the first pull.
func (s *Scheduler) SetAccepts(fn func(candidate.Candidate) bool) {
	s.accepts = fn
}

// Next yields the next resolved item, or nil when nothing is available
// right now (cooldown, exhaustion, shutdown, all candidates failing). It
// never returns an error: resolution failures are absorbed by moving on to
// the next candidate.
func (s *Scheduler) Next() *candidate.Resolved {
	if s.shuttingDown.Load() {
		return nil
	}
	if s.stopped.Load() && !s.opts.Loop {
		return nil
	}

	// Explicit bound: one full pass (plus the current pass remainder) in
	// ordered/shuffle mode; the source length in random mode, where
	// failures do not shrink the queue.
	budget := s.attemptBudget()

	for attempt := 0; attempt < budget; attempt++ {
		if s.shuttingDown.Load() {
			return nil
		}

		s.mu.Lock()
		cooling := s.gov.coolingDown()
		s.mu.Unlock()
		if cooling {
			zlog.Debug().Msg("sched: cooling down, no resolution attempted")
			return nil
		}

		cand, ok := s.selectCandidate()
		if !ok {
			return nil
		}

		if s.accepts != nil && !s.accepts(cand) {
			zlog.Debug().Msgf("sched: candidate rejected by filter: %s", cand.Label)
			continue
		}

		ctx, cancelAttempt := context.WithTimeout(s.ctx, s.opts.ResolveTimeout)
		item, err := s.gateway.Resolve(ctx, cand)
		cancelAttempt()
		if err != nil {
			s.noteFailure(cand, err)
			continue
		}

		s.mu.Lock()
		s.gov.recordSuccess()
		s.mu.Unlock()
		zlog.Debug().Msgf("sched: resolved candidate: label=%s id=%s", item.Label(), item.ID)
		return item
	}

	return nil
}

// Reload atomically swaps the candidate list and starts a fresh pass. The
// stopped flag is cleared: the playlist is considered freshly started. With
// drainQueued, buffered prefetch items tied to the old list are released
// and a refill is kicked off immediately. Safe to call while a pull is in
// flight.
func (s *Scheduler) Reload(cs []candidate.Candidate, drainQueued bool) {
	s.mu.Lock()
	s.store.replace(cs)
	s.generation++
	gen := s.generation
	drain := s.drainFn
	s.mu.Unlock()

	s.stopped.Store(false)
	zlog.Info().Msgf("sched: reloaded candidates: count=%d generation=%d drain=%v", len(cs), gen, drainQueued)

	if drainQueued && drain != nil {
		drain()
	}
}

// Remaining returns a snapshot copy of the current working queue.
func (s *Scheduler) Remaining() []candidate.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.remaining()
}

// Shutdown stops the scheduler permanently: subsequent pulls return nil
// immediately and any in-flight resolution is cancelled. Idempotent.
func (s *Scheduler) Shutdown() {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	zlog.Info().Msg("sched: shutting down")
}

// Generation returns the reload counter. It increments on every Reload.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Status is a point-in-time snapshot of scheduler state for inspection.
type Status struct {
	Mode         string `json:"mode"`
	Loop         bool   `json:"loop"`
	Generation   uint64 `json:"generation"`
	QueueLen     int    `json:"queue_len"`
	SourceLen    int    `json:"source_len"`
	Failures     int    `json:"consecutive_failures"`
	CoolingDown  bool   `json:"cooling_down"`
	Stopped      bool   `json:"stopped"`
	ShuttingDown bool   `json:"shutting_down"`
}

// GetStatus returns a snapshot of the scheduler state.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Mode:         s.opts.Mode.String(),
		Loop:         s.opts.Loop,
		Generation:   s.generation,
		QueueLen:     len(s.store.remaining()),
		SourceLen:    s.store.sourceLen(),
		Failures:     s.gov.consecutiveFailures(),
		CoolingDown:  s.gov.coolingDown(),
		Stopped:      s.stopped.Load(),
		ShuttingDown: s.shuttingDown.Load(),
	}
}

// setDrainFn registers the prefetcher's drain-and-refill callback, invoked
// by Reload when drainQueued is set.
func (s *Scheduler) setDrainFn(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainFn = fn
}

func (s *Scheduler) attemptBudget() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var budget int
	if s.opts.Mode == ModeRandom {
		budget = s.store.sourceLen()
	} else {
		budget = len(s.store.queue) + s.store.sourceLen()
	}
	if budget < 1 {
		budget = 1
	}
	return budget
}

// selectCandidate asks the store for the next candidate, replenishing an
// exhausted pass first. Lifecycle hooks run outside the lock because they
// are allowed to call Reload.
func (s *Scheduler) selectCandidate() (candidate.Candidate, bool) {
	s.mu.Lock()
	if s.store.exhausted() {
		if s.opts.Mode == ModeRandom {
			// Empty source list; looping semantics do not apply.
			s.mu.Unlock()
			return candidate.Candidate{}, false
		}
		loop := s.opts.Loop
		s.mu.Unlock()

		if !loop {
			if s.stopped.CompareAndSwap(false, true) {
				zlog.Info().Msg("sched: playlist exhausted, stopped")
				if h := s.hooks.OnDone; h != nil {
					h()
				}
			}
			return candidate.Candidate{}, false
		}

		if h := s.hooks.OnLoop; h != nil {
			h()
		}

		s.mu.Lock()
		if s.store.exhausted() {
			s.store.replenish()
		}
	}

	c, ok := s.store.next()
	s.mu.Unlock()
	return c, ok
}

// noteFailure feeds the governor and, exactly once per streak, asks the
// fallback hook for a replacement playlist. The failure counter is not
// reset by the fallback; only a success resets it.
func (s *Scheduler) noteFailure(c candidate.Candidate, err error) {
	s.mu.Lock()
	hitThreshold := s.gov.recordFailure()
	streak := s.gov.consecutiveFailures()
	s.mu.Unlock()

	zlog.Warn().Msgf("sched: resolution failed: candidate=%s consecutive=%d error=%v", c.Label, streak, err)

	if !hitThreshold {
		return
	}
	zlog.Warn().Msgf("sched: failure threshold reached: max_fail=%d cooldown=%v", s.opts.MaxFail, s.opts.Cooldown)
	if s.hooks.OnFail == nil {
		return
	}
	if fallback := s.hooks.OnFail(); len(fallback) > 0 {
		zlog.Info().Msgf("sched: loading fallback playlist: count=%d", len(fallback))
		s.Reload(candidate.FromURIs(fallback), true)
	}
}
