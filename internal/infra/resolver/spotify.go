package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/rotor/internal/domain/candidate"
)

// SpotifyConfig represents the configuration for the Spotify resolver.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" mapstructure:"refresh_token" validate:"required"`
	Market       string `yaml:"market" mapstructure:"market" validate:"omitempty,len=2" default:"JP"`
}

// SpotifyTrack is the playable handle produced by the Spotify resolver.
type SpotifyTrack struct {
	ID       string
	Name     string
	Artists  []string
	Duration time.Duration
	URL      string
}

// SpotifyResolver resolves spotify track URIs and open.spotify.com URLs by
// looking the track up and checking market playability.
type SpotifyResolver struct {
	client *spotify.Client
	market string
}

// NewSpotifyResolver creates a Spotify resolver from a settings map.
func NewSpotifyResolver(ctx context.Context, settings map[string]any) (*SpotifyResolver, error) {
	var config SpotifyConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)
	token := &oauth2.Token{RefreshToken: config.RefreshToken}
	httpClient := auth.Client(ctx, token)

	zlog.Info().Msgf("spotify resolver initialized: market=%s", config.Market)
	return &SpotifyResolver{
		client: spotify.New(httpClient),
		market: config.Market,
	}, nil
}

// Resolve looks up the track and verifies it is playable in the configured
// market. One API call per attempt; retry is the scheduler's concern.
func (r *SpotifyResolver) Resolve(ctx context.Context, c candidate.Candidate) (*candidate.Resolved, error) {
	id := extractTrackID(c.URI)
	if id == "" {
		return nil, errors.Newf("no track ID in %q", c.URI)
	}

	opts := []spotify.RequestOption{}
	if r.market != "" {
		opts = append(opts, spotify.Market(r.market))
	}

	t, err := r.client.GetTrack(ctx, spotify.ID(id), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up track %s", c.Label)
	}

	if t.IsPlayable != nil && !*t.IsPlayable {
		return nil, errors.Newf("track %s is not playable in market %s", c.Label, r.market)
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	handle := &SpotifyTrack{
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artists,
		Duration: t.TimeDuration(),
		URL:      t.ExternalURLs["spotify"],
	}
	return candidate.NewResolved(c, handle, nil), nil
}

// Name returns the gateway name.
func (r *SpotifyResolver) Name() string {
	return "spotify"
}

// extractTrackID pulls the track ID out of a spotify: URI or an
// open.spotify.com URL. Anything else is assumed to already be an ID.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}
	return input
}
