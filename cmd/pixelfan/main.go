package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pixelfan/pixelfan/cmd/pixelfan/commands"
	"github.com/pixelfan/pixelfan/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pixelfan",
	Short: "pixelfan - multi-provider image generation orchestrator",
	Long: `pixelfan fans a single prompt out across every configured AI image
provider concurrently and makes the per-provider progress observable
through a polling API.

Available commands:
  serve    - Start the HTTP API server
  config   - Show the effective configuration
  version  - Print the build version`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
