package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "polychat",
	Short: "Multimodal chat with local and hosted models",
	Long:  `polychat is a multimodal chat application for local and hosted language models, with PDF-grounded answers, image questions and voice input.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
