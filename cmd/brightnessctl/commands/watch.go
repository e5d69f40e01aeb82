package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/brightnessd/internal/events"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream indicator events from the daemon HTTP API",
		Long: "Stream indicator events from the daemon's WebSocket endpoint. " +
			"Requires --api since the control socket has no event stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _ := cmd.Flags().GetString("api")
			if api == "" {
				return fmt.Errorf("watch needs the HTTP API, pass --api")
			}
			types, _ := cmd.Flags().GetStringSlice("types")
			count, _ := cmd.Flags().GetInt("count")

			target, err := streamURL(api, types)
			if err != nil {
				return err
			}
			getLoggerFromCmd(cmd).Debug("Connecting to event stream", "url", target)

			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), target, nil)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", target, err)
			}
			defer conn.Close()

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigs)
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-sigs:
					conn.Close()
				case <-cmd.Context().Done():
					conn.Close()
				case <-done:
				}
			}()

			return watchEvents(conn, os.Stdout, count)
		},
	}
	cmd.Flags().StringSlice("types", nil, "Only stream these event types (e.g. brightness.level_refreshed)")
	cmd.Flags().IntP("count", "n", 0, "Exit after this many events (0 streams until interrupted)")
	return cmd
}

// streamURL turns the API base URL into the WebSocket endpoint URL.
func streamURL(api string, types []string) (string, error) {
	u, err := url.Parse(strings.TrimRight(api, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid API URL %q: %w", api, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid API URL %q: unsupported scheme %q", api, u.Scheme)
	}
	u.Path += "/api/v1/ws"
	if len(types) > 0 {
		q := u.Query()
		q.Set("types", strings.Join(types, ","))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// watchEvents prints events until the connection closes or count events
// have been read.
func watchEvents(conn *websocket.Conn, out io.Writer, count int) error {
	for n := 0; count == 0 || n < count; n++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream closed: %w", err)
		}
		var e events.Event
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("invalid event: %w", err)
		}
		fmt.Fprintln(out, FormatEvent(e))
	}
	return nil
}

// FormatEvent renders an event as a single line.
func FormatEvent(e events.Event) string {
	return fmt.Sprintf("%s %-28s %s", e.Timestamp.Local().Format(time.TimeOnly), e.Type, string(e.Data))
}
