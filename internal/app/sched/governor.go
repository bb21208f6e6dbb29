package sched

import "time"

// governor tracks consecutive resolution failures and gates new attempts
// behind a cooldown window once the threshold is reached. Not safe for
// concurrent use; the scheduler's mutex guards all access.
type governor struct {
	maxFail  int
	cooldown time.Duration

	failures    int
	lastFailure time.Time
}

func newGovernor(maxFail int, cooldown time.Duration) *governor {
	return &governor{maxFail: maxFail, cooldown: cooldown}
}

// recordFailure counts a failure and reports whether this exact failure
// reached the threshold. The threshold crossing fires at most once per
// streak: later failures of the same streak return false.
func (g *governor) recordFailure() bool {
	g.failures++
	g.lastFailure = time.Now()
	return g.failures == g.maxFail
}

// recordSuccess resets the streak regardless of prior state.
func (g *governor) recordSuccess() {
	g.failures = 0
	g.lastFailure = time.Time{}
}

// coolingDown reports whether new resolution attempts are currently gated.
// The gate opens again once the cooldown window elapses, even though the
// streak count is preserved until a success.
func (g *governor) coolingDown() bool {
	if g.failures < g.maxFail {
		return false
	}
	return time.Since(g.lastFailure) < g.cooldown
}

// consecutiveFailures returns the current failure streak length.
func (g *governor) consecutiveFailures() int {
	return g.failures
}
