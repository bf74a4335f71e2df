package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "pixelfan.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Providers.Count)
	assert.Equal(t, 40, cfg.RateLimit.GlobalHourlyLimit)
	assert.Equal(t, 24, cfg.RateLimit.PerCallerDailyLimit)
	assert.Equal(t, 55, cfg.Scheduler.TaskTimeoutSeconds)
	assert.Equal(t, 4.0, cfg.AI.OutboundRPS)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	// Encode a fixture the way an operator would write it.
	fixture := map[string]interface{}{
		"database": map[string]interface{}{"path": "test.db"},
		"providers": map[string]interface{}{
			"count":         3,
			"enhance_index": 2,
			"slots": map[string]interface{}{
				"1": map[string]string{"name": "DALL-E 3", "key": "sk-one"},
				"2": map[string]string{"name": "Gemini 2.0 Flash", "key": "sk-two"},
				"3": map[string]string{"name": "Stable Diffusion XL", "key": "sk-three"},
			},
		},
		"rate_limit": map[string]interface{}{
			"global_hourly_limit":    10,
			"per_caller_daily_limit": 5,
			"allowlist":              []string{"10.0.0.1"},
		},
		"filter": map[string]interface{}{
			"blocked_terms": []string{"xyz-blocked"},
		},
	}

	path := filepath.Join(t.TempDir(), "pixelfan.toml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, toml.NewEncoder(f).Encode(fixture))
	require.NoError(t, f.Close())

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Providers.Count)
	assert.Equal(t, 2, cfg.Providers.EnhanceIndex)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.RateLimit.Allowlist)
	assert.Equal(t, []string{"xyz-blocked"}, cfg.Filter.BlockedTerms)

	slot, ok := cfg.Providers.Slot(2)
	require.True(t, ok)
	assert.Equal(t, "Gemini 2.0 Flash", slot.Name)
	assert.Equal(t, "sk-two", slot.Key)

	// Defaults still apply to sections the file omits.
	assert.Equal(t, 55, cfg.Scheduler.TaskTimeoutSeconds)
}

func TestSlotMissing(t *testing.T) {
	cfg := &Config{}
	_, ok := cfg.Providers.Slot(1)
	assert.False(t, ok)

	cfg.Providers.Slots = map[string]SlotConfig{"1": {Name: "only name"}}
	slot, ok := cfg.Providers.Slot(1)
	assert.True(t, ok)
	assert.Empty(t, slot.Key)
}

func TestValidateRejectsBadValues(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	base, err := LoadWithViper(v)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"negative provider count", func(c *Config) { c.Providers.Count = -1 }},
		{"zero global limit", func(c *Config) { c.RateLimit.GlobalHourlyLimit = 0 }},
		{"zero caller limit", func(c *Config) { c.RateLimit.PerCallerDailyLimit = 0 }},
		{"zero task timeout", func(c *Config) { c.Scheduler.TaskTimeoutSeconds = 0 }},
		{"negative outbound rps", func(c *Config) { c.AI.OutboundRPS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
