package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGovernor_ThresholdFiresExactlyOnce(t *testing.T) {
	g := newGovernor(3, time.Minute)

	assert.False(t, g.recordFailure())
	assert.False(t, g.recordFailure())
	assert.True(t, g.recordFailure(), "third failure reaches the threshold")
	assert.False(t, g.recordFailure(), "threshold crossing fires only once per streak")
	assert.Equal(t, 4, g.consecutiveFailures())
}

func TestGovernor_SuccessResetsStreak(t *testing.T) {
	g := newGovernor(2, time.Minute)

	g.recordFailure()
	g.recordFailure()
	assert.True(t, g.coolingDown())

	g.recordSuccess()
	assert.Equal(t, 0, g.consecutiveFailures())
	assert.False(t, g.coolingDown())

	// A fresh streak can reach the threshold again.
	g.recordFailure()
	assert.True(t, g.recordFailure())
}

func TestGovernor_CooldownElapses(t *testing.T) {
	g := newGovernor(1, 30*time.Millisecond)

	g.recordFailure()
	assert.True(t, g.coolingDown())

	time.Sleep(50 * time.Millisecond)
	assert.False(t, g.coolingDown(), "gate opens once the window elapses")
	assert.Equal(t, 1, g.consecutiveFailures(), "streak survives the window until a success")
}

func TestGovernor_BelowThresholdNeverCools(t *testing.T) {
	g := newGovernor(3, time.Minute)
	g.recordFailure()
	g.recordFailure()
	assert.False(t, g.coolingDown())
}
