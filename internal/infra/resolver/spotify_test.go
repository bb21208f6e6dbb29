package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spotify URI", "spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"open URL", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"open URL with query", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123", "4uLU6hMCjMI75M1A2tKUQC"},
		{"open URL trailing slash", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC/", "4uLU6hMCjMI75M1A2tKUQC"},
		{"bare ID passthrough", "4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"surrounding whitespace", "  spotify:track:abc  ", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTrackID(tt.input))
		})
	}
}

func TestNewSpotifyResolver_SettingsValidation(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
	}{
		{"empty settings", nil},
		{"missing secret", map[string]any{
			"client_id":     "id",
			"refresh_token": "tok",
		}},
		{"bad market", map[string]any{
			"client_id":     "id",
			"client_secret": "secret",
			"refresh_token": "tok",
			"market":        "JPN",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpotifyResolver(context.Background(), tt.settings)
			assert.Error(t, err)
		})
	}
}

func TestNewSpotifyResolver_DefaultMarket(t *testing.T) {
	r, err := NewSpotifyResolver(context.Background(), map[string]any{
		"client_id":     "id",
		"client_secret": "secret",
		"refresh_token": "tok",
	})
	assert.NoError(t, err)
	assert.Equal(t, "JP", r.market)
}
