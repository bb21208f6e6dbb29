package resolver

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// Mux routes candidates to gateways by URI scheme. Candidates with no
// scheme (bare paths) go to the gateway registered for "file".
type Mux struct {
	gateways map[string]Gateway
}

// NewMux creates an empty mux.
func NewMux() *Mux {
	return &Mux{gateways: make(map[string]Gateway)}
}

// Handle registers a gateway for a URI scheme. Later registrations for the
// same scheme win.
func (m *Mux) Handle(scheme string, gw Gateway) {
	m.gateways[strings.ToLower(scheme)] = gw
	zlog.Info().Msgf("resolver: registered gateway: scheme=%s gateway=%s", scheme, gw.Name())
}

// Resolve dispatches to the gateway registered for the candidate's scheme.
func (m *Mux) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	scheme := SchemeOf(c.URI)
	gw, ok := m.gateways[scheme]
	if !ok {
		return nil, errors.Newf("no gateway for scheme %q (candidate %s)", scheme, c.Label)
	}
	return gw.Resolve(ctx, c)
}

// Name returns the mux name.
func (m *Mux) Name() string {
	return "mux"
}

// SchemeOf extracts the lowercase scheme of a URI-like descriptor.
// "spotify:track:x" yields "spotify", "/path/song.ogg" yields "file".
func SchemeOf(uri string) string {
	i := strings.Index(uri, ":")
	if i <= 0 {
		return "file"
	}
	scheme := strings.ToLower(uri[:i])
	// Windows-style or relative paths are not schemes.
	if strings.ContainsAny(scheme, "/\\.") {
		return "file"
	}
	return scheme
}
