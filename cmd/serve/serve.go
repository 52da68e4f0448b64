// Package serve runs the push worker.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the push worker",
	Long: `Start the HTTP endpoint the message queue pushes events to.

Each push is dispatched to the EFT, CAS settlement or business identifier
pipeline. The worker acknowledges every delivery; failures are reported by
email. SIGINT or SIGTERM stops accepting requests and waits for in-flight
messages up to server.shutdown_timeout_seconds.`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}
	cfg := c.GetConfig()

	listen := cfg.Server.Addr
	if addr != "" {
		listen = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, c.GetServer().HTTPServer(listen), cfg.ShutdownTimeout(), c.GetLogger())
}

// run serves until ctx is cancelled, then shuts the server down gracefully.
func run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger logging.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Worker listening", logging.F("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("worker stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
