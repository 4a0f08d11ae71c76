package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := buildDependencies(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}

			if a.cfg.Log.Format == "json" {
				gin.SetMode(gin.ReleaseMode)
			}

			server := &http.Server{
				Addr:              a.cfg.Server.Addr(),
				Handler:           deps.handler(a.logger),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			return runServer(ctx, server, a.logger)
		},
	}
}

// runServer は ctx がキャンセルされるまでサーバーを動かし、終了時にグレースフルシャットダウンする
func runServer(ctx context.Context, server *http.Server, logger *zap.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
