// Package sched provides the pull-based playlist scheduler.
package sched

import "github.com/cockroachdb/errors"

// Mode represents the candidate selection policy. The policy is fixed for
// the scheduler's lifetime.
type Mode int

const (
	// ModeOrdered pops candidates in insertion order; replenishment copies
	// the source list verbatim.
	ModeOrdered Mode = iota
	// ModeShuffle draws one fresh permutation of the source list per pass.
	ModeShuffle
	// ModeRandom draws a uniformly random candidate on every pull without
	// consuming it; only an empty source list counts as "no candidates".
	ModeRandom
)

// ParseMode parses a mode name. Unknown names are a configuration error.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ordered":
		return ModeOrdered, nil
	case "shuffle":
		return ModeShuffle, nil
	case "random":
		return ModeRandom, nil
	default:
		return 0, errors.Newf("unknown scheduler mode: %q", s)
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOrdered:
		return "ordered"
	case ModeShuffle:
		return "shuffle"
	case ModeRandom:
		return "random"
	default:
		return "unknown"
	}
}

func (m Mode) valid() bool {
	return m == ModeOrdered || m == ModeShuffle || m == ModeRandom
}
