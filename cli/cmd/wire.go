package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/adapter"
	"github.com/meshkit-io/chisel/adapter/redis"
	"github.com/meshkit-io/chisel/adapter/webhook"
	"github.com/meshkit-io/chisel/cli/config"
	"github.com/meshkit-io/chisel/inputs"
	"github.com/meshkit-io/chisel/journal"
	"github.com/meshkit-io/chisel/log"
	"github.com/meshkit-io/chisel/metrics"
	"github.com/meshkit-io/chisel/pipeline"
	"github.com/meshkit-io/chisel/stage"
	"github.com/meshkit-io/chisel/store"
	"github.com/meshkit-io/chisel/workspace"
)

// loadConfig resolves the effective config: file (explicit --config is
// required to exist, the default path may be absent), then flag
// overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.IsSet("config") {
		cfg, err = config.Load(c.String("config"))
	} else {
		cfg, err = config.LoadOrDefault(c.String("config"))
	}
	if err != nil {
		return nil, err
	}

	if root := c.String("runs-root"); root != "" {
		cfg.RunsRoot = root
	}
	return cfg, nil
}

// initLogger initializes the process log facility. With a configured
// log file it appends there and mirrors to stdout; without one it logs
// to stdout only.
func initLogger(cfg *config.Config) (*log.Logger, error) {
	if cfg.LogFile == "" {
		return log.L(), nil
	}
	return log.Init(cfg.LogFile)
}

// buildOrchestrator wires the pipeline from config.
func buildOrchestrator(cfg *config.Config, collector *metrics.Collector, logger *log.Logger) *pipeline.Orchestrator {
	return pipeline.New(pipeline.Config{
		Allocator: workspace.NewAllocator(cfg.RunsRoot),
		Edit:      stage.Command{Python: cfg.Python, Script: cfg.EditScript, Workdir: cfg.ScriptsWorkdir},
		Repaint:   stage.Command{Python: cfg.Python, Script: cfg.RepaintScript, Workdir: cfg.ScriptsWorkdir},
		Resolver:  inputs.NewResolver(cfg.FetchTimeout.Duration),
		Collector: collector,
		Logger:    logger,
	})
}

// buildStore creates the configured archive store, or nil when uploads
// are disabled.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "":
		return nil, nil
	case "fs":
		return store.NewFSStore(cfg.Storage.Path)
	case "s3":
		bucket, prefix := store.ParseS3Path(cfg.Storage.Path)
		return store.NewS3Store(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// buildAdapter creates the configured notification adapter, or nil when
// notifications are disabled.
func buildAdapter(cfg *config.Config) (adapter.Adapter, error) {
	retries := func(def int) int {
		if cfg.Adapter.Retries != nil {
			return *cfg.Adapter.Retries
		}
		return def
	}

	switch cfg.Adapter.Type {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries(webhook.DefaultRetries),
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries(redis.DefaultRetries),
		})
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Adapter.Type)
	}
}

// openJournal opens the configured request journal, or nil when
// journaling is disabled.
func openJournal(cfg *config.Config) (*journal.Journal, error) {
	if cfg.JournalFile == "" {
		return nil, nil
	}
	return journal.Open(cfg.JournalFile)
}
