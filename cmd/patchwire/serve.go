package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/patchwire/internal/config"
	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/middleware"
	"github.com/vango-dev/patchwire/pkg/render"
	"github.com/vango-dev/patchwire/pkg/server"
	"github.com/vango-dev/patchwire/pkg/signature"
	"github.com/vango-dev/patchwire/pkg/snapshot"
)

func serveCmd(g *globals) *cobra.Command {
	var (
		addr    string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo components over HTTP and WebSocket",
		Long: `Start the component server with the demo counter registered.

Routes:
  POST   /components/{name}          mount a component
  POST   /components/{name}/update   send state, writes and calls
  DELETE /components/{name}/{id}     discard an instance
  GET    /ws                         WebSocket channel
  GET    /metrics                    Prometheus metrics

Configuration is read from patchwire.json or patchwire.yaml in the
--config directory and from PATCHWIRE_* environment variables.

Examples:
  PATCHWIRE_SECRET=... patchwire serve
  patchwire serve --addr 0.0.0.0:9000 --backend badger`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configDir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.Snapshot.Backend = backend
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "Snapshot backend: memory, badger or s3")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	signer, err := signature.NewSigner([]byte(cfg.Secret))
	if err != nil {
		return errors.New("P003").Wrap(err)
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}

	metrics := middleware.NewMetrics()
	tp := otel.GetTracerProvider()
	renderer, err := render.New(render.Config{
		Signer:         signer,
		Store:          store,
		Mode:           cfg.Mode(),
		Metrics:        metrics,
		TracerProvider: tp,
	})
	if err != nil {
		_ = store.Close()
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Error("closing snapshot store", "error", err)
		}
	}()

	registry := component.NewRegistry()
	if err := registerDemo(registry); err != nil {
		return err
	}

	srv, err := server.New(&server.Config{
		Addr:           cfg.Server.Addr,
		Registry:       registry,
		Renderer:       renderer,
		Metrics:        metrics,
		TracerProvider: tp,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    cfg.ReadTimeout(),
		WriteTimeout:   cfg.WriteTimeout(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out)
	info(out, "listening on http://%s", cfg.Server.Addr)
	info(out, "wire mode %s, snapshots in %s", cfg.Mode(), cfg.Snapshot.Backend)
	info(out, "components: %v", registry.Names())

	if err := srv.Run(); err != nil {
		return errors.New("P023").Wrap(err)
	}
	return nil
}

// openStore opens the configured snapshot backend.
func openStore(cfg *config.Config, logger *slog.Logger) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case "badger":
		store, err := snapshot.OpenBadger(snapshot.BadgerConfig{
			Dir:    cfg.Snapshot.Dir,
			Logger: logger.With("component", "badger"),
		})
		if err != nil {
			return nil, errors.New("P061").WithDetail("badger at " + cfg.Snapshot.Dir).Wrap(err)
		}
		return store, nil
	case "s3":
		client := snapshot.NewS3Client(cfg.Snapshot.Region, cfg.Snapshot.Endpoint)
		return snapshot.NewS3Store(client, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix), nil
	default:
		return snapshot.NewMemoryStore(), nil
	}
}
