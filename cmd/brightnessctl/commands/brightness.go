package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const (
	increaseAction = "increase-brightness"
	decreaseAction = "decrease-brightness"
)

func newIncreaseCommand() *cobra.Command {
	return newActionCommand("increase", "Step the brightness up", increaseAction)
}

func newDecreaseCommand() *cobra.Command {
	return newActionCommand("decrease", "Step the brightness down", decreaseAction)
}

// newActionCommand wraps a fixed key action as a command.
func newActionCommand(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.Invoke(action); err != nil {
				return fmt.Errorf("failed to %s brightness: %w", use, err)
			}
			return printStatus(cmd, false)
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <level>",
		Short: "Set the brightness to a percentage (0-100)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil || level < 0 || level > 100 {
				return fmt.Errorf("invalid level %q: must be an integer between 0 and 100", args[0])
			}
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.SetLevel(level); err != nil {
				return fmt.Errorf("failed to set brightness: %w", err)
			}
			pterm.Success.Printf("Brightness set to %d%%\n", level)
			return nil
		},
	}
}

func newScrollCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "scroll <up|down|left|right>",
		Short:     "Send a scroll gesture to the indicator",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "left", "right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.Scroll(args[0]); err != nil {
				return fmt.Errorf("failed to scroll: %w", err)
			}
			return printStatus(cmd, false)
		},
	}
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-read the brightness from the power daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.Refresh(); err != nil {
				return fmt.Errorf("failed to refresh: %w", err)
			}
			return printStatus(cmd, false)
		},
	}
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the indicator state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parseable, _ := cmd.Flags().GetBool("parseable")
			return printStatus(cmd, parseable)
		},
	}
	cmd.Flags().BoolP("parseable", "p", false, "Output in parseable key=value format")
	return cmd
}

func printStatus(cmd *cobra.Command, parseable bool) error {
	c, err := clientFromCmd(cmd)
	if err != nil {
		return err
	}
	s, err := c.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if parseable {
		fmt.Println(StatusParseable(s))
		return nil
	}
	return pterm.DefaultTable.WithHasHeader(false).WithData(StatusTableData(s)).Render()
}

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.Ping(); err != nil {
				return fmt.Errorf("daemon not reachable: %w", err)
			}
			pterm.Success.Println("pong")
			return nil
		},
	}
}

func newActionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the key actions the daemon accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			actions, err := c.Actions()
			if err != nil {
				return fmt.Errorf("failed to list actions: %w", err)
			}
			for _, a := range actions {
				fmt.Println(a)
			}
			return nil
		},
	}
}

func newInvokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <action>",
		Short: "Invoke a key action by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.Invoke(args[0]); err != nil {
				return fmt.Errorf("failed to invoke %s: %w", args[0], err)
			}
			pterm.Success.Printf("Invoked %s\n", args[0])
			return nil
		},
	}
}

func newLogLevelCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "log-level <level>",
		Short:     "Change the daemon log level",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"debug", "info", "warn", "error"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			if err := c.SetLogLevel(args[0]); err != nil {
				return fmt.Errorf("failed to set log level: %w", err)
			}
			pterm.Success.Printf("Daemon log level set to %s\n", args[0])
			return nil
		},
	}
}
