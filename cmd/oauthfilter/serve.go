package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rhuss/oauthfilter/pkg/config"
	"github.com/rhuss/oauthfilter/pkg/debug"
	transporthttp "github.com/rhuss/oauthfilter/pkg/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server.

Routes:
  GET /healthz    liveness probe
  GET /readyz     store health check
  GET /metrics    Prometheus metrics (path configurable)
  *   /whoami     JSON echo of the resolved identity
  *   /protected  same echo, 401 unless a token strategy matched

With the memory store and storage.memory.watch enabled, the fixture file
is reloaded whenever it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
		debug.Log("config", "configuration loaded",
			"storage", cfg.Storage.Type,
			"oauth1", cfg.OAuth.OAuth1Enabled,
			"oauth2", cfg.OAuth.OAuth2Enabled,
			"categories", debug.Categories(),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve runs the server, and the fixture watcher when enabled, until ctx
// is done or one of them fails.
func serve(ctx context.Context, cfg *config.Config) error {
	store, mem, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Storage.Type, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing store", "error", err)
		}
	}()

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		Resolver:      newResolver(cfg.OAuth, store),
		Health:        store,
		Realm:         cfg.OAuth.Realm,
		LookupTimeout: cfg.OAuth.LookupTimeout,
		MetricsPath:   metricsPath,
	})

	srv := transporthttp.NewServer(router,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithReadTimeout(cfg.Server.ReadTimeout),
		transporthttp.WithWriteTimeout(cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(slog.Default()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if mem != nil && cfg.Storage.Memory.Watch {
		g.Go(func() error {
			return mem.Watch(gctx, cfg.Storage.Memory.Fixtures)
		})
	}

	return g.Wait()
}
