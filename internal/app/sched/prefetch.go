package sched

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

const defaultPollInterval = 200 * time.Millisecond

// Prefetcher keeps up to depth resolved items buffered ahead of the
// downstream consumer. Reload with drainQueued releases everything buffered
// from the old list and kicks an immediate refill.
type Prefetcher struct {
	sched *Scheduler
	depth int
	out   chan *candidate.Resolved
	kick  chan struct{}

	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPrefetcher wraps the scheduler with a prefetch buffer of the given
// depth (>= 1) and starts filling it.
func NewPrefetcher(s *Scheduler, depth int) *Prefetcher {
	if depth < 1 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Prefetcher{
		sched:        s,
		depth:        depth,
		out:          make(chan *candidate.Resolved, depth),
		kick:         make(chan struct{}, 1),
		pollInterval: defaultPollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.setDrainFn(p.drainAndKick)

	p.wg.Add(1)
	go p.fill()

	return p
}

// Next blocks until a prefetched item is available or ctx ends. Returns nil
// on cancellation or after Close.
func (p *Prefetcher) Next(ctx context.Context) *candidate.Resolved {
	select {
	case item := <-p.out:
		return item
	case <-ctx.Done():
		return nil
	case <-p.ctx.Done():
		return nil
	}
}

// Buffered returns how many resolved items are currently queued.
func (p *Prefetcher) Buffered() int {
	return len(p.out)
}

// Close stops the fill loop and releases everything still buffered.
func (p *Prefetcher) Close() {
	p.cancel()
	p.wg.Wait()
	p.drain()
}

// fill pulls from the scheduler and parks items in the buffer. Items
// resolved against a list that was swapped out mid-resolution are released
// instead of delivered.
func (p *Prefetcher) fill() {
	defer p.wg.Done()

	for {
		if p.ctx.Err() != nil {
			return
		}

		gen := p.sched.Generation()
		item := p.sched.Next()
		if item == nil {
			// Nothing available right now: cooldown, exhaustion, or empty
			// list. Wait for a reload kick or poll again.
			select {
			case <-p.ctx.Done():
				return
			case <-p.kick:
			case <-time.After(p.pollInterval):
			}
			continue
		}

		if p.sched.Generation() != gen {
			zlog.Debug().Msgf("prefetch: dropping stale item: label=%s", item.Label())
			item.Release()
			continue
		}

		select {
		case p.out <- item:
		case <-p.ctx.Done():
			item.Release()
			return
		}
	}
}

// drainAndKick implements the reload drain contract: release buffered items
// from the old list, then refill promptly.
func (p *Prefetcher) drainAndKick() {
	p.drain()
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Prefetcher) drain() {
	for {
		select {
		case item := <-p.out:
			zlog.Debug().Msgf("prefetch: releasing drained item: label=%s", item.Label())
			item.Release()
		default:
			return
		}
	}
}
