package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mall-parking/internal/logging"
	"mall-parking/internal/parking"
	"mall-parking/internal/server"
)

var withShell bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the HTTP API. With --shell the operator shell reads stdin alongside it.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&withShell, "shell", false, "Also run the operator shell on stdin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logging.Error(context.Background(), "shutdown error", logging.Err(err))
		}
	}()

	handler := server.NewHandler(a.lot, a.reports, a.store, a.cfg.OTelServiceName)
	srv := server.NewServer(a.cfg.Addr(), a.cfg.OTelServiceName, handler)

	serverDone := make(chan error, 1)
	go func() {
		logging.Info(ctx, "listening", "url", srv.GetAddress())
		serverDone <- srv.Start()
	}()

	shellDone := make(chan struct{})
	if withShell {
		go func() {
			defer close(shellDone)
			parking.NewShell(a.lot, os.Stdin, os.Stdout, a.telemetry).Run(ctx)
		}()
	}

	select {
	case err := <-serverDone:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-shellDone:
		logging.Info(ctx, "shell exited")
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
