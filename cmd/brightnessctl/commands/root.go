package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/brightnessd/internal/utils"
	"github.com/jmylchreest/brightnessd/pkg/client"
)

// Define a custom type for context keys to avoid collisions
type loggerContextKey struct{}

// NewRootCommand creates the root command. socket is the default control
// socket; the --socket and --api flags override it.
func NewRootCommand(logger *slog.Logger, socket, version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "brightnessctl",
		Short:         "Control the brightnessd indicator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Add global flags
	cmd.PersistentFlags().String("socket", "", "Path to brightnessd socket")
	cmd.PersistentFlags().String("api", "", "brightnessd HTTP API base URL, e.g. http://127.0.0.1:9124 (used instead of the socket)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	// Build the client once flags are parsed, unless one was injected.
	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if c.Flags().Changed("log-format") {
			level, _ := c.Flags().GetString("log-level")
			format, _ := c.Flags().GetString("log-format")
			logger = utils.SetupLogger(level, format)
			utils.SetAsDefaultLogger(logger)
		} else if c.Flags().Changed("log-level") {
			level, _ := c.Flags().GetString("log-level")
			utils.SetLevel(level)
		}
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if _, ok := ctx.Value(ClientContextKey).(client.ClientInterface); ok {
			return nil
		}
		c.SetContext(context.WithValue(ctx, ClientContextKey, newClient(c, logger, socket)))
		return nil
	}

	// Add commands
	cmd.AddCommand(newVersionCommand(version, commit, buildDate))
	cmd.AddCommand(
		newIncreaseCommand(),
		newDecreaseCommand(),
		newSetCommand(),
		newScrollCommand(),
		newRefreshCommand(),
		newStatusCommand(),
		newPingCommand(),
		newActionsCommand(),
		newInvokeCommand(),
		newLogLevelCommand(),
		newWatchCommand(),
		newTUICommand(),
	)

	if logger != nil {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		cmd.SetContext(context.WithValue(parent, loggerContextKey{}, logger))
	}

	return cmd
}

func newClient(cmd *cobra.Command, logger *slog.Logger, socket string) client.ClientInterface {
	if logger == nil {
		logger = slog.Default()
	}
	if api, _ := cmd.Flags().GetString("api"); api != "" {
		return client.NewHTTP(logger, api)
	}
	if s, _ := cmd.Flags().GetString("socket"); s != "" {
		socket = s
	}
	return client.New(logger, socket)
}

// clientFromCmd returns the client stored by the root command.
func clientFromCmd(cmd *cobra.Command) (client.ClientInterface, error) {
	if ctx := cmd.Context(); ctx != nil {
		if c, ok := ctx.Value(ClientContextKey).(client.ClientInterface); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no brightnessd client configured")
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Client:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)

			// Try to query the daemon for its version
			c, err := clientFromCmd(cmd)
			if err != nil {
				return
			}
			v, err := c.Version()
			if err != nil {
				getLoggerFromCmd(cmd).Debug("Daemon version unavailable", "error", err)
				fmt.Printf("\nDaemon: not reachable\n")
				return
			}
			fmt.Printf("\nDaemon:\n")
			fmt.Printf("  Version:    %s\n", v.Version)
			fmt.Printf("  Commit:     %s\n", v.Commit)
			fmt.Printf("  Build Date: %s\n", v.BuildDate)
		},
	}
}
