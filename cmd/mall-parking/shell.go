package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mall-parking/internal/logging"
	"mall-parking/internal/parking"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the operator shell on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.close(); err != nil {
				logging.Error(ctx, "shutdown error", logging.Err(err))
			}
		}()

		parking.NewShell(a.lot, os.Stdin, os.Stdout, a.telemetry).Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
