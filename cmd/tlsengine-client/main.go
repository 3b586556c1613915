package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"go.sablewire.io/engine/cli"
	"go.sablewire.io/engine/utils/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := false
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			debug = true
		}
	}
	logger, err := log.New(debug)
	if err != nil {
		color.New(color.FgRed).Fprintf(color.Error, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	viper.SetEnvPrefix("TLSENGINE")
	viper.AutomaticEnv()

	if err := cli.Root(ctx, logger).Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(color.Error, "%v\n", err)
		os.Exit(1)
	}
}
