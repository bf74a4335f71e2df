// Package config loads and validates the pixelfan configuration.
//
// Configuration is read from a TOML file plus PIXELFAN_* environment
// variables, with env vars taking precedence. The provider slot table is
// flat on purpose: a count and per-slot name/key pairs, so operators can
// add a provider by appending a slot without touching any other section.
package config

import "strconv"

// Config represents the core pixelfan configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" toml:"database"`
	Server    ServerConfig    `mapstructure:"server" toml:"server"`
	Providers ProvidersConfig `mapstructure:"providers" toml:"providers"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" toml:"rate_limit"`
	Filter    FilterConfig    `mapstructure:"filter" toml:"filter"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" toml:"scheduler"`
	Storage   StorageConfig   `mapstructure:"storage" toml:"storage"`
	AI        AIConfig        `mapstructure:"ai" toml:"ai"`
}

// DatabaseConfig configures the SQLite blob store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// ServerConfig configures the HTTP front door
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

// SlotConfig is one configured provider slot.
// A slot is usable only when both Name and Key are present; a slot with
// exactly one of the two is skipped at registry load with a warning.
type SlotConfig struct {
	Name string `mapstructure:"name" toml:"name"` // display name, also drives kind detection
	Key  string `mapstructure:"key" toml:"key"`   // opaque credential, never logged
}

// ProvidersConfig configures the provider slot table
type ProvidersConfig struct {
	Count        int                   `mapstructure:"count" toml:"count"`                 // slots are read 1..count
	EnhanceIndex int                   `mapstructure:"enhance_index" toml:"enhance_index"` // 1-based slot used for prompt enhancement; out of range = none
	Slots        map[string]SlotConfig `mapstructure:"slots" toml:"slots"`                 // keyed by 1-based slot index as a string
}

// Slot returns the slot configured at the given 1-based index.
// The second return is false when the slot is absent entirely.
func (pc *ProvidersConfig) Slot(index int) (SlotConfig, bool) {
	if pc.Slots == nil {
		return SlotConfig{}, false
	}
	slot, ok := pc.Slots[strconv.Itoa(index)]
	return slot, ok
}

// RateLimitConfig configures the admission rate limiter
type RateLimitConfig struct {
	GlobalHourlyLimit   int      `mapstructure:"global_hourly_limit" toml:"global_hourly_limit"`       // ceiling over the 1-hour global window
	PerCallerDailyLimit int      `mapstructure:"per_caller_daily_limit" toml:"per_caller_daily_limit"` // ceiling over the 24-hour per-caller window
	Allowlist           []string `mapstructure:"allowlist" toml:"allowlist"`                           // caller ids that bypass both ceilings
}

// FilterConfig configures the content filter
type FilterConfig struct {
	BlockedTerms []string `mapstructure:"blocked_terms" toml:"blocked_terms"`
}

// SchedulerConfig configures the fan-out executor
type SchedulerConfig struct {
	TaskTimeoutSeconds int `mapstructure:"task_timeout_seconds" toml:"task_timeout_seconds"` // per-task dispatch ceiling
}

// AIConfig configures the outbound provider client
type AIConfig struct {
	OutboundRPS float64 `mapstructure:"outbound_rps" toml:"outbound_rps"` // smoothing ceiling on provider API calls; 0 disables
}

// StorageConfig configures result blob delivery
type StorageConfig struct {
	CDNDomain string `mapstructure:"cdn_domain" toml:"cdn_domain"` // domain prefixed onto stored image keys for public URLs
}
