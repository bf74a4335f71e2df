package commands

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/pixelfan/pixelfan/config"
	"github.com/pixelfan/pixelfan/errors"
)

// ConfigCmd inspects the effective configuration.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration as TOML after merging defaults,
config files, and PIXELFAN_* environment variables. Provider keys are
redacted.`,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Never print credentials.
	redacted := *cfg
	redacted.Providers.Slots = make(map[string]config.SlotConfig, len(cfg.Providers.Slots))
	for idx, slot := range cfg.Providers.Slots {
		if slot.Key != "" {
			slot.Key = "[redacted]"
		}
		redacted.Providers.Slots[idx] = slot
	}

	return toml.NewEncoder(os.Stdout).Encode(redacted)
}
