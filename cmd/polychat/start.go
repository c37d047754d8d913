package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandevgo/polychat/pkg/log"
	"github.com/sandevgo/polychat/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polychat services",
	Long:  `Initializes storage, model backends and the interactive chat loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// A clean 'exit' from the chat loop shuts everything down the
		// same way a signal does.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting polychat")

		services := NewServices(ctx, cancel)

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("polychat has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
