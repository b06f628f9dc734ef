package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hejijunhao/octo2sent/internal/server"
)

func newServeCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve as an Azure Functions custom handler",
		Long: "Serve listens on FUNCTIONS_CUSTOMHANDLER_PORT and runs one invocation per\n" +
			"timer trigger request from the Functions host.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.port, "port", "", "listen port (overrides FUNCTIONS_CUSTOMHANDLER_PORT)")
	cmd.Flags().StringVar(&o.sinks, "output", "", "comma-separated sinks: sentinel, stdout, file (overrides OCTO2SENT_OUTPUT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Server.Port),
		Handler:           server.New(a.pipeline, a.connCfg, a.params, a.logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("custom handler listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
