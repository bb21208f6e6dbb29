package resolver

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/infra/config"
)

// NewMuxFromConfig builds a scheme-routing mux from configuration.
func NewMuxFromConfig(ctx context.Context, cfg *config.Config) (*Mux, error) {
	if len(cfg.Resolvers) == 0 {
		return nil, errors.New("no resolvers configured")
	}

	mux := NewMux()
	for i, rc := range cfg.Resolvers {
		var gw Gateway
		var err error
		zlog.Debug().Msgf("creating resolver: index=%d type=%s schemes=%v", i+1, rc.Type, rc.Schemes)
		switch rc.Type {
		case "http":
			gw, err = NewHTTPProbe(http.DefaultClient, rc.Settings)

		case "file":
			gw, err = NewFileProbe(rc.Settings)

		case "spotify":
			gw, err = NewSpotifyResolver(ctx, rc.Settings)

		default:
			return nil, errors.Newf("unsupported resolver type: %s (resolver index %d)", rc.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create resolver (index %d, type %s)", i, rc.Type)
		}

		for _, scheme := range rc.Schemes {
			mux.Handle(scheme, gw)
		}
	}

	return mux, nil
}
