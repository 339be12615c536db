package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/meshkit-io/chisel/handler"
	"github.com/meshkit-io/chisel/metrics"
	"github.com/meshkit-io/chisel/types"
)

const shutdownGrace = 10 * time.Second

// ServeCommand hosts the job handler over HTTP.
var ServeCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve the job handler over HTTP",
	Flags: append(CommonFlags(),
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "Listen address",
		},
	),
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if addr := c.String("listen"); addr != "" {
		cfg.ListenAddr = addr
	}
	logger, err := initLogger(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jnl, err := openJournal(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if jnl != nil {
		defer jnl.Close()
	}
	ad, err := buildAdapter(cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if ad != nil {
		defer ad.Close()
	}
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if st != nil {
		defer st.Close()
	}

	collector := metrics.NewCollector()
	hcfg := handler.Config{
		Orchestrator: buildOrchestrator(cfg, collector, logger),
		Journal:      jnl,
		Store:        st,
		Logger:       logger,
	}
	if ad != nil {
		hcfg.Adapters = append(hcfg.Adapters, ad)
	}

	mux := http.NewServeMux()
	mux.Handle("/", handler.New(hcfg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status  string           `json:"status"`
			Version string           `json:"version"`
			Metrics metrics.Snapshot `json:"metrics"`
		}{Status: "ok", Version: types.Version, Metrics: collector.Snapshot()})
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", map[string]any{"addr": cfg.ListenAddr, "runs_root": cfg.RunsRoot})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return cli.Exit(err.Error(), 2)
		}
	case <-ctx.Done():
		logger.Info("shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}
	return nil
}
