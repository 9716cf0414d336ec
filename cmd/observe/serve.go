package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/observe/internal/config"
	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/pkg/observe"
	"github.com/vango-dev/observe/pkg/snapshot"
	"github.com/vango-dev/observe/pkg/stream"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		host       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an observable array over HTTP and WebSocket",
		Long: `Start a server holding one observable array. Clients mutate it by
POSTing operations to /array/ops and follow its changes on /ws.

Settings come from observe.json in the current directory, or the file
given with --config. A missing file means defaults.

Examples:
  observe serve
  observe serve --port=9000
  observe serve --config=deploy/observe.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.ConfigFileName, "Path to the config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logger := cfg.NewLogger(cmd.ErrOrStderr())

	tel, err := newTelemetry(cfg, cmd.ErrOrStderr())
	if err != nil {
		return errors.FromError(err, "O020")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	var opts []observe.Option
	if tel.hook != nil {
		opts = append(opts, observe.WithNotifyHook(tel.hook))
	}
	arr := observe.NewObservableArray(cfg.Initial, opts...)
	if d := cfg.ThrottleDuration(); d > 0 {
		if err := arr.Extend(observe.Extenders{"throttle": d}); err != nil {
			return errors.FromError(err, "O014")
		}
	}

	srv := stream.New(arr,
		stream.WithLogger(logger),
		stream.WithQueueSize(cfg.Server.QueueSize),
		stream.WithWriteTimeout(cfg.WriteTimeout()),
		stream.WithMetricsHandler(tel.metricsHandler),
	)
	defer srv.Close()

	var sink *snapshot.Sink
	if cfg.HasSnapshot() {
		client, err := snapshot.NewS3Client(snapshot.ClientConfig{
			Region:    cfg.Snapshot.Region,
			Endpoint:  cfg.Snapshot.Endpoint,
			PathStyle: cfg.Snapshot.PathStyle,
		})
		if err != nil {
			return errors.New("O030").Wrap(err)
		}
		sink = snapshot.New(client, cfg.Snapshot.Bucket, cfg.SnapshotKey(), snapshot.WithLogger(logger))
	}

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		if stderrors.Is(err, syscall.EADDRINUSE) {
			return errors.New("O021").
				Wrap(err).
				WithSuggestion("Stop the other process or pick another port with --port.")
		}
		return errors.FromError(err, "O020")
	}

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if sink != nil {
		sub := sink.Attach(arr)
		defer sub.Dispose()
		g.Go(func() error {
			return sink.Run(gctx)
		})
		logger.Info("snapshots enabled", "bucket", cfg.Snapshot.Bucket, "key", cfg.SnapshotKey())
	}

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.FromError(err, "O020")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	out := cmd.OutOrStdout()
	success(out, "Serving %d items on http://%s", arr.Len(), ln.Addr())
	info(out, "WebSocket: ws://%s/ws", ln.Addr())

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n  Shutting down...")
	return nil
}
