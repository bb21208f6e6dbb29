package filter

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence. Returns immediately on the first
// rejection.
func (c *Chain) Execute(cand candidate.Candidate) Result {
	for _, f := range c.filters {
		result := f.Check(cand)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Accepts adapts the chain to the scheduler's acceptance predicate shape.
func (c *Chain) Accepts(cand candidate.Candidate) bool {
	result := c.Execute(cand)
	if !result.Accepted {
		zlog.Debug().Msgf("filter: candidate rejected: label=%s code=%s", cand.Label, result.Code)
	}
	return result.Accepted
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
