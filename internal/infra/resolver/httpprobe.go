package resolver

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// HTTPProbeConfig represents the configuration for the HTTP prober.
type HTTPProbeConfig struct {
	Method       string   `yaml:"method" mapstructure:"method" default:"HEAD" validate:"oneof=HEAD GET"`
	ContentTypes []string `yaml:"content_types" mapstructure:"content_types"`
	UserAgent    string   `yaml:"user_agent" mapstructure:"user_agent" default:"rotor/1.0"`
}

// StreamInfo is the playable handle produced by the HTTP prober.
type StreamInfo struct {
	URL           string
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser // nil for HEAD probes
}

// HTTPProbe resolves http/https candidates by probing the URL. A HEAD probe
// verifies reachability; a GET probe additionally hands the open response
// body to the consumer, released via the handle's release hook.
type HTTPProbe struct {
	client *http.Client
	config *HTTPProbeConfig
}

// NewHTTPProbe creates an HTTP prober from a settings map.
func NewHTTPProbe(client *http.Client, settings map[string]any) (*HTTPProbe, error) {
	var config HTTPProbeConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if client == nil {
		client = http.DefaultClient
	}
	zlog.Debug().Msgf("http probe config: %+v", config)
	return &HTTPProbe{client: client, config: &config}, nil
}

// Resolve probes the candidate URL. The supplied ctx carries the attempt
// timeout; exceeding it fails the attempt like any other error.
func (p *HTTPProbe) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	req, err := http.NewRequestWithContext(ctx, p.config.Method, c.URI, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "bad probe URL %q", c.URI)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "probe failed for %s", c.Label)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, errors.Newf("probe for %s returned status %d", c.Label, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !p.contentTypeAllowed(ct) {
		resp.Body.Close()
		return nil, errors.Newf("probe for %s returned unplayable content type %q", c.Label, ct)
	}

	info := &StreamInfo{
		URL:           resp.Request.URL.String(),
		ContentType:   ct,
		ContentLength: resp.ContentLength,
	}

	var release func()
	if p.config.Method == http.MethodGet {
		info.Body = resp.Body
		release = func() { resp.Body.Close() }
	} else {
		resp.Body.Close()
	}

	return candidate.NewResolved(c, info, release), nil
}

// Name returns the gateway name.
func (p *HTTPProbe) Name() string {
	return "http_probe"
}

func (p *HTTPProbe) contentTypeAllowed(ct string) bool {
	if len(p.config.ContentTypes) == 0 {
		return true
	}
	for _, prefix := range p.config.ContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}
