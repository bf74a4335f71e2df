package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "pixelfan.db")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Provider defaults: no slots configured out of the box.
	// enhance_index 0 is deliberately out of the 1-based range, so
	// enhancement degrades to pass-through until an operator sets it.
	v.SetDefault("providers.count", 0)
	v.SetDefault("providers.enhance_index", 0)

	// Rate limit defaults
	v.SetDefault("rate_limit.global_hourly_limit", 40)    // all callers, 1-hour window
	v.SetDefault("rate_limit.per_caller_daily_limit", 24) // per caller, 24-hour window
	v.SetDefault("rate_limit.allowlist", []string{})

	// Content filter defaults
	v.SetDefault("filter.blocked_terms", []string{})

	// Scheduler defaults
	v.SetDefault("scheduler.task_timeout_seconds", 55)

	// Outbound client defaults. The smoothing ceiling spreads a fan-out's
	// provider calls instead of firing them in one instant.
	v.SetDefault("ai.outbound_rps", 4.0)

	// Storage defaults
	v.SetDefault("storage.cdn_domain", "")
}
