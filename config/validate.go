package config

import (
	"github.com/pixelfan/pixelfan/errors"
)

// Validate checks the configuration for values the process cannot run with.
// Degraded-but-runnable configurations (empty slots, missing enhance index)
// are deliberately not errors; the registry logs and continues for those.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Providers.Count < 0 {
		return errors.Newf("providers.count must not be negative: %d", c.Providers.Count)
	}
	if c.RateLimit.GlobalHourlyLimit <= 0 {
		return errors.Newf("rate_limit.global_hourly_limit must be positive: %d", c.RateLimit.GlobalHourlyLimit)
	}
	if c.RateLimit.PerCallerDailyLimit <= 0 {
		return errors.Newf("rate_limit.per_caller_daily_limit must be positive: %d", c.RateLimit.PerCallerDailyLimit)
	}
	if c.Scheduler.TaskTimeoutSeconds <= 0 {
		return errors.Newf("scheduler.task_timeout_seconds must be positive: %d", c.Scheduler.TaskTimeoutSeconds)
	}
	if c.AI.OutboundRPS < 0 {
		return errors.Newf("ai.outbound_rps must not be negative: %g", c.AI.OutboundRPS)
	}
	return nil
}
