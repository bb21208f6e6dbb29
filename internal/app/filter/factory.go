package filter

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/infra/config"
)

// NewChainFromConfig builds a chain of the enabled filters in registration
// order. A filter whose settings fail validation is a fatal configuration
// error.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	for name := range cfg.Filters {
		if _, exists := registry[name]; !exists {
			return nil, errors.Newf("unknown filter: %s", name)
		}
	}

	chain := NewChain()
	for _, name := range registryOrder {
		fcfg, ok := cfg.Filters[name]
		if !ok || !fcfg.Enabled {
			continue
		}

		f := registry[name]()
		if err := f.ValidateConfig(fcfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}

		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s", f.Name())
	}

	return chain, nil
}
