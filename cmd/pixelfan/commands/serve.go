package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixelfan/pixelfan/admission"
	"github.com/pixelfan/pixelfan/ai"
	"github.com/pixelfan/pixelfan/config"
	"github.com/pixelfan/pixelfan/errors"
	"github.com/pixelfan/pixelfan/internal/httpclient"
	"github.com/pixelfan/pixelfan/job"
	"github.com/pixelfan/pixelfan/logger"
	"github.com/pixelfan/pixelfan/registry"
	"github.com/pixelfan/pixelfan/scheduler"
	"github.com/pixelfan/pixelfan/server"
	"github.com/pixelfan/pixelfan/service"
	"github.com/pixelfan/pixelfan/storage"
)

// ServeCmd starts the HTTP API server.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the pixelfan HTTP API server",
	Long: `Start the HTTP API server. Generation requests fan out across all
configured providers; clients poll job status until it is terminal.`,
	RunE: runServe,
}

var serveDBPath string

func init() {
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Custom database path (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if serveDBPath != "" {
		cfg.Database.Path = serveDBPath
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	kv, err := storage.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer kv.Close()

	providers, err := registry.Load(&cfg.Providers)
	if err != nil {
		return errors.Wrap(err, "failed to load provider registry")
	}

	jobStore := job.NewStore(kv)
	images := storage.NewImageStore(kv, cfg.Storage.CDNDomain)

	client := ai.NewClient(ai.ClientConfig{
		TimeoutSeconds:    cfg.Scheduler.TaskTimeoutSeconds,
		RequestsPerSecond: cfg.AI.OutboundRPS,
		HTTPClient:        httpclient.NewEgressClient(time.Duration(cfg.Scheduler.TaskTimeoutSeconds) * time.Second),
	})
	table := ai.NewTable(client.GenerateImage)
	enhancer := ai.NewEnhancer(providers, client.Chat)

	filter := admission.NewContentFilter(cfg.Filter.BlockedTerms)
	limiter := admission.NewRateLimiter(kv, &cfg.RateLimit)

	taskTimeout := time.Duration(cfg.Scheduler.TaskTimeoutSeconds) * time.Second
	executor := scheduler.NewExecutor(jobStore, images, table, taskTimeout)

	svc := service.New(providers, filter, limiter, jobStore, executor, enhancer)
	srv := server.New(svc, images, &cfg.Server)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Infow("pixelfan ready",
		"port", cfg.Server.Port,
		logger.FieldCount, providers.Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infow("Shutting down", "signal", sig.String())
	}

	if err := srv.Shutdown(); err != nil {
		logger.Errorw("Shutdown error", logger.FieldError, err)
	}
	executor.Wait()
	return nil
}
