// Package cli wires the sample client command. The engine itself never
// opens sockets; everything network-shaped lives here.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultHost = "localhost"
	defaultPort = 4433
)

var errColor = color.New(color.FgRed, color.Bold)

// Root builds the tlsengine-client command.
func Root(ctx context.Context, logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tlsengine-client",
		Short:        "Simple TLS client: connects to a port and pipes stdin through the engine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			host := viper.GetString("host")
			port := viper.GetInt("port")

			if connect := viper.GetString("connect"); connect != "" {
				h, p, err := splitConnect(connect)
				if err != nil {
					return err
				}
				host, port = h, p
			}
			if port <= 0 {
				return fmt.Errorf("port must be positive, got %d", port)
			}

			return run(cmd.Context(), logger, host, port, viper.GetBool("dump"))
		},
	}
	cmd.SetContext(ctx)

	cmd.Flags().String("host", defaultHost, "server host to connect to")
	cmd.Flags().Int("port", defaultPort, "server port to connect to")
	cmd.Flags().String("connect", "", "host:port shorthand, overrides --host/--port")
	cmd.Flags().Bool("dump", false, "print a YAML session summary on exit")
	cmd.Flags().Bool("debug", false, "enable debug logging")
	bindFlags(cmd.Flags())

	return cmd
}

func bindFlags(fs *pflag.FlagSet) {
	if err := viper.BindPFlags(fs); err != nil {
		errColor.Fprintf(color.Error, "failed to bind flags: %v\n", err)
	}
}

func splitConnect(connect string) (string, int, error) {
	idx := strings.LastIndex(connect, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("no port found in %q", connect)
	}
	port, err := strconv.Atoi(connect[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %v", connect, err)
	}
	return connect[:idx], port, nil
}
