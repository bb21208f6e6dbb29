package sched

import (
	"math/rand"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// store holds the authoritative candidate list and the working queue for
// the current pass. Not safe for concurrent use; the scheduler's mutex
// guards all access.
type store struct {
	mode   Mode
	source []candidate.Candidate // authoritative list, replaced wholesale on reload
	queue  []candidate.Candidate // remaining candidates of the current pass (unused in random mode)
}

func newStore(mode Mode, cs []candidate.Candidate) *store {
	s := &store{mode: mode}
	s.replace(cs)
	return s
}

// replace swaps in a new authoritative list and recomputes the working
// queue for a fresh pass.
func (s *store) replace(cs []candidate.Candidate) {
	s.source = make([]candidate.Candidate, len(cs))
	copy(s.source, cs)
	s.replenish()
}

// replenish starts a new pass over the source list. Ordered copies it
// verbatim; shuffle draws an independent permutation. Random mode keeps no
// pass state.
func (s *store) replenish() {
	if s.mode == ModeRandom {
		return
	}
	s.queue = make([]candidate.Candidate, len(s.source))
	copy(s.queue, s.source)
	if s.mode == ModeShuffle {
		rand.Shuffle(len(s.queue), func(i, j int) {
			s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
		})
	}
}

// next yields the next candidate under the selection policy. Ordered and
// shuffle consume from the front of the queue; random draws without
// consuming.
func (s *store) next() (candidate.Candidate, bool) {
	if s.mode == ModeRandom {
		if len(s.source) == 0 {
			return candidate.Candidate{}, false
		}
		return s.source[rand.Intn(len(s.source))], true
	}
	if len(s.queue) == 0 {
		return candidate.Candidate{}, false
	}
	c := s.queue[0]
	s.queue = s.queue[1:]
	return c, true
}

// exhausted reports whether the current pass has run out. Random mode is
// exhausted only when the source list is empty.
func (s *store) exhausted() bool {
	if s.mode == ModeRandom {
		return len(s.source) == 0
	}
	return len(s.queue) == 0
}

// remaining returns a snapshot copy of the current working queue. Random
// mode reports the full source list.
func (s *store) remaining() []candidate.Candidate {
	src := s.queue
	if s.mode == ModeRandom {
		src = s.source
	}
	out := make([]candidate.Candidate, len(src))
	copy(out, src)
	return out
}

func (s *store) sourceLen() int {
	return len(s.source)
}
