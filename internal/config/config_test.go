package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-dev/webpilot/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.New()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Server.ListenAddr)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Network.ElementTimeout)
	assert.Equal(t, time.Second, cfg.Network.CandidateTimeout)
	assert.Equal(t, 30*time.Second, cfg.Network.ChallengeWait)
	assert.Equal(t, "screenshots", cfg.Screenshot.Dir)
	assert.True(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "empty listen addr",
			mutate:  func(c *config.Config) { c.Server.ListenAddr = "" },
			wantErr: "listen_addr",
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *config.Config) { c.Server.RequestTimeout = 0 },
			wantErr: "request_timeout",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *config.Config) { c.Server.RateLimit = -1 },
			wantErr: "rate_limit",
		},
		{
			name:    "zero navigation timeout",
			mutate:  func(c *config.Config) { c.Network.NavigationTimeout = 0 },
			wantErr: "navigation_timeout",
		},
		{
			name: "candidate timeout exceeds element timeout",
			mutate: func(c *config.Config) {
				c.Network.CandidateTimeout = 20 * time.Second
				c.Network.ElementTimeout = 10 * time.Second
			},
			wantErr: "candidate_timeout",
		},
		{
			name:    "zero window size",
			mutate:  func(c *config.Config) { c.Browser.WindowWidth = 0 },
			wantErr: "window_width",
		},
		{
			name:    "empty screenshot dir",
			mutate:  func(c *config.Config) { c.Screenshot.Dir = "" },
			wantErr: "screenshot.dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewFromViper_FileOverrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("server.listen_addr", ":9000")
	v.Set("browser.headless", false)
	v.Set("network.challenge_wait", "45s")

	cfg, err := config.NewFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Network.ChallengeWait)
}

func TestNewFromViper_EnvCredentials(t *testing.T) {
	t.Setenv("GITHUBS_USERNAME", "alice")
	t.Setenv("GITHUBS_PASSWORD", "gh-secret")
	t.Setenv("REDDIT_USERNAME", "bob")
	t.Setenv("REDDIT_PASSWORD", "rd-secret")

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Demo.GitHubUsername)
	assert.Equal(t, "gh-secret", cfg.Demo.GitHubPassword)
	assert.Equal(t, "bob", cfg.Demo.RedditUsername)
	assert.Equal(t, "rd-secret", cfg.Demo.RedditPassword)
}

func TestNewFromViper_EnvPrefixOverride(t *testing.T) {
	t.Setenv("WEBPILOT_SERVER_LISTEN_ADDR", ":7777")

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.ListenAddr)
}

func TestNewFromViper_InvalidRejected(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("server.listen_addr", "")

	_, err := config.NewFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
