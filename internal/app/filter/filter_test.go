package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/rotor/internal/domain/candidate"
)

func TestSchemeFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		allowed      []string
		uri          string
		wantAccepted bool
		wantCode     string
	}{
		{
			name:         "scheme allowed",
			allowed:      []string{"https", "file"},
			uri:          "https://radio.example/stream.mp3",
			wantAccepted: true,
		},
		{
			name:         "scheme not allowed",
			allowed:      []string{"https"},
			uri:          "spotify:track:abc123",
			wantAccepted: false,
			wantCode:     "scheme_not_allowed",
		},
		{
			name:         "bare path counts as file",
			allowed:      []string{"file"},
			uri:          "/music/song.ogg",
			wantAccepted: true,
		},
		{
			name:         "allowlist is case insensitive",
			allowed:      []string{"HTTPS"},
			uri:          "https://radio.example/a.mp3",
			wantAccepted: true,
		},
		{
			name:         "unconfigured accepts everything",
			allowed:      nil,
			uri:          "gopher://whatever",
			wantAccepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSchemeFilter()
			if tt.allowed != nil {
				require.NoError(t, f.ValidateConfig(map[string]any{"allowed": tt.allowed}))
			}

			result := f.Check(candidate.New(tt.uri))
			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, tt.wantCode, result.Code)
			}
		})
	}
}

func TestSchemeFilter_ValidateConfig(t *testing.T) {
	f := NewSchemeFilter()
	assert.Error(t, f.ValidateConfig(map[string]any{}), "allowed list is required")
	assert.Error(t, f.ValidateConfig(map[string]any{"allowed": []string{}}), "allowed list must not be empty")
}

func TestDenylistFilter_Check(t *testing.T) {
	tests := []struct {
		name          string
		patterns      []string
		caseSensitive bool
		uri           string
		wantAccepted  bool
	}{
		{
			name:         "no match",
			patterns:     []string{"badhost"},
			uri:          "https://radio.example/a.mp3",
			wantAccepted: true,
		},
		{
			name:         "substring match rejects",
			patterns:     []string{"badhost"},
			uri:          "https://badhost.example/a.mp3",
			wantAccepted: false,
		},
		{
			name:         "case insensitive by default",
			patterns:     []string{"BADHOST"},
			uri:          "https://badhost.example/a.mp3",
			wantAccepted: false,
		},
		{
			name:          "case sensitive respects case",
			patterns:      []string{"BADHOST"},
			caseSensitive: true,
			uri:           "https://badhost.example/a.mp3",
			wantAccepted:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDenylistFilter()
			require.NoError(t, f.ValidateConfig(map[string]any{
				"patterns":       tt.patterns,
				"case_sensitive": tt.caseSensitive,
			}))

			result := f.Check(candidate.New(tt.uri))
			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "uri_denied", result.Code)
			}
		})
	}
}

func TestChain_ShortCircuitsOnFirstRejection(t *testing.T) {
	scheme := NewSchemeFilter()
	require.NoError(t, scheme.ValidateConfig(map[string]any{"allowed": []string{"https"}}))

	deny := NewDenylistFilter()
	require.NoError(t, deny.ValidateConfig(map[string]any{"patterns": []string{"blocked"}}))

	chain := NewChain()
	chain.Add(scheme)
	chain.Add(deny)

	assert.True(t, chain.Accepts(candidate.New("https://ok.example/a.mp3")))

	result := chain.Execute(candidate.New("file:///music/a.mp3"))
	assert.False(t, result.Accepted)
	assert.Equal(t, "scheme_not_allowed", result.Code, "first filter rejects first")

	result = chain.Execute(candidate.New("https://blocked.example/a.mp3"))
	assert.False(t, result.Accepted)
	assert.Equal(t, "uri_denied", result.Code)
}

func TestChain_EmptyAcceptsEverything(t *testing.T) {
	chain := NewChain()
	assert.True(t, chain.Accepts(candidate.New("anything:at:all")))
}

func TestRegistry_KnownFilters(t *testing.T) {
	names := make([]string, 0)
	for _, factory := range GetRegistered() {
		names = append(names, factory().Name())
	}
	assert.Contains(t, names, "scheme_filter")
	assert.Contains(t, names, "denylist_filter")
}
