package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/brightnessd/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API has no browser UI; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the request to a WebSocket and streams events to it. The
// optional "types" query parameter is a comma separated list of event types
// to receive, e.g. ?types=brightness.level_refreshed.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := ParseTypes(r.URL.Query().Get("types"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws: upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
			return
		}

		client := hub.NewClient(conn, types...)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}

// ParseTypes splits a comma separated list of event types.
func ParseTypes(s string) []events.EventType {
	var types []events.EventType
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			types = append(types, events.EventType(part))
		}
	}
	return types
}
