// Package filter provides the acceptance chain applied to candidates
// before resolution is attempted.
package filter

import "github.com/osa030/rotor/internal/domain/candidate"

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g. "scheme_not_allowed", "uri_denied"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for candidate filters. Check must be free of side
// effects on scheduler state: a filter may keep its own bookkeeping but must
// not reach back into the queue.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check performs the filter check.
	Check(c candidate.Candidate) Result
}

// registry holds registered filter factories. registryOrder keeps
// registration order so chains built from config are deterministic.
var (
	registry      = make(map[string]func() Filter)
	registryOrder []string
)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	if _, exists := registry[name]; !exists {
		registryOrder = append(registryOrder, name)
	}
	registry[name] = factory
}

// GetRegistered returns all registered filter factories in registration
// order.
func GetRegistered() []func() Filter {
	factories := make([]func() Filter, len(registryOrder))
	for i, name := range registryOrder {
		factories[i] = registry[name]
	}
	return factories
}
