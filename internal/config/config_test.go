package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{"GRAPHQL_ENDPOINT": "https://api.example.com/graphql"}))
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, zerolog.InfoLevel, cfg.App.LogLevel)
	assert.True(t, cfg.App.RequireBearer)
	assert.Equal(t, 30*time.Second, cfg.GraphQL.Timeout)
	assert.Equal(t, 2, cfg.GraphQL.MaxRetries)
	assert.Empty(t, cfg.DB.DSN)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "catalogview:errors", cfg.Redis.Channel)
	assert.Equal(t, PagingCfg{DefaultSize: 10, MaxSize: 100, SelectListSize: 10000}, cfg.Paging)
	assert.Equal(t, SessionCfg{IdleTTL: 30 * time.Minute, ReapEvery: time.Minute}, cfg.Sessions)
	assert.False(t, cfg.Dev())
}

func TestFromViperOverrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"APP_ENV":             "dev",
		"LOG_LEVEL":           "DEBUG",
		"GRAPHQL_ENDPOINT":    "http://localhost:5000/graphql",
		"GRAPHQL_TIMEOUT_SEC": "5",
		"PAGE_SIZE_DEFAULT":   "25",
		"SESSION_IDLE_TTL":    "2h",
		"REQUIRE_BEARER":      "false",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Dev())
	assert.Equal(t, zerolog.DebugLevel, cfg.App.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.GraphQL.Timeout)
	assert.Equal(t, 25, cfg.Paging.DefaultSize)
	assert.Equal(t, 2*time.Hour, cfg.Sessions.IdleTTL)
	assert.False(t, cfg.App.RequireBearer)
}

func TestFromViperRejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"missing endpoint", map[string]any{}, "GRAPHQL_ENDPOINT is required"},
		{"relative endpoint", map[string]any{"GRAPHQL_ENDPOINT": "/graphql"}, "absolute URL"},
		{"bad level", map[string]any{"GRAPHQL_ENDPOINT": "http://x/graphql", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"default above max", map[string]any{"GRAPHQL_ENDPOINT": "http://x/graphql", "PAGE_SIZE_DEFAULT": 500}, "PAGE_SIZE_DEFAULT"},
		{"negative retries", map[string]any{"GRAPHQL_ENDPOINT": "http://x/graphql", "GRAPHQL_MAX_RETRIES": -1}, "GRAPHQL_MAX_RETRIES"},
		{"zero ttl", map[string]any{"GRAPHQL_ENDPOINT": "http://x/graphql", "SESSION_IDLE_TTL": "0s"}, "SESSION_IDLE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(newViper(tt.values))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
