package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rotord.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
playlist:
  path: /var/lib/rotor/playlist.m3u
resolvers:
  - type: http
    schemes: [http, https]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8097", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.True(t, cfg.Playlist.Watch)
	assert.Equal(t, "ordered", cfg.Scheduler.Mode)
	assert.True(t, cfg.Scheduler.Loop)
	assert.Equal(t, 2, cfg.Scheduler.PrefetchDepth)
	assert.Equal(t, 3, cfg.Scheduler.MaxFail)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.ResolveTimeout())
	assert.Equal(t, time.Second, cfg.Scheduler.Cooldown())
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  token: hunter2
playlist:
  path: /tmp/list.m3u
  fallback_path: /tmp/fallback.m3u
scheduler:
  mode: shuffle
  prefetch_depth: 4
  max_fail: 5
  resolve_timeout_ms: 2500
  cooldown_ms: 500
filters:
  scheme:
    enabled: true
    settings:
      allowed: [https]
resolvers:
  - type: file
    schemes: [file]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "hunter2", cfg.Server.Token)
	assert.Equal(t, "/tmp/fallback.m3u", cfg.Playlist.FallbackPath)
	assert.Equal(t, "shuffle", cfg.Scheduler.Mode)
	assert.Equal(t, 4, cfg.Scheduler.PrefetchDepth)
	assert.Equal(t, 5, cfg.Scheduler.MaxFail)
	assert.Equal(t, 2500*time.Millisecond, cfg.Scheduler.ResolveTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.Cooldown())
	assert.True(t, cfg.IsFilterEnabled("scheme"))
	assert.Equal(t, []any{"https"}, cfg.FilterSettings("scheme")["allowed"])
	assert.False(t, cfg.IsFilterEnabled("denylist"))
	assert.Nil(t, cfg.FilterSettings("denylist"))
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing playlist path",
			content: `
resolvers:
  - type: http
    schemes: [https]
`,
		},
		{
			name: "no resolvers",
			content: `
playlist:
  path: /tmp/list.m3u
`,
		},
		{
			name: "resolver without schemes",
			content: `
playlist:
  path: /tmp/list.m3u
resolvers:
  - type: http
`,
		},
		{
			name: "invalid scheduler mode",
			content: `
playlist:
  path: /tmp/list.m3u
scheduler:
  mode: roundrobin
resolvers:
  - type: http
    schemes: [https]
`,
		},
		{
			name: "invalid log level",
			content: `
playlist:
  path: /tmp/list.m3u
log:
  level: trace
resolvers:
  - type: http
    schemes: [https]
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DuplicateSchemeRejected(t *testing.T) {
	path := writeConfig(t, `
playlist:
  path: /tmp/list.m3u
resolvers:
  - type: http
    schemes: [https]
  - type: file
    schemes: [file, https]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claimed by both")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ROTOR_ADMIN_TOKEN", "env-token")
	t.Setenv("SPOTIFY_CLIENT_ID", "env-client")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "env-refresh")

	path := writeConfig(t, `
server:
  token: file-token
playlist:
  path: /tmp/list.m3u
resolvers:
  - type: spotify
    schemes: [spotify]
    settings:
      client_id: file-client
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Server.Token)
	assert.Equal(t, "env-client", cfg.Resolvers[0].Settings["client_id"])
	assert.Equal(t, "env-secret", cfg.Resolvers[0].Settings["client_secret"])
	assert.Equal(t, "env-refresh", cfg.Resolvers[0].Settings["refresh_token"])
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "playlist: [unclosed"))
	assert.Error(t, err)
}
