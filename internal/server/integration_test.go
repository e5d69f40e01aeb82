package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/controller"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// setupIntegrationTest runs the whole daemon core on a memory backend: the
// loop, the controller with its widget, and the server with the HTTP API on
// a random port.
func setupIntegrationTest(t *testing.T) (*Server, *brightness.MemoryService, string) {
	t.Helper()

	cfg := setupTestConfig(t)
	cfg.API.ListenAddress = "127.0.0.1:0"
	cfg.API.RateLimit = 0
	logger := testLogger()

	ctx, cancel := context.WithCancel(context.Background())
	l := loop.New(logger)
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	svc := brightness.NewMemoryService(50, 1)
	settings := config.NewSettings(filepath.Join(t.TempDir(), config.SettingsFilename), l, logger)

	bus := events.NewBus()

	server := New(logger, cfg, nil, BuildInfo{Version: "test"})
	server.SetEventBus(bus)
	c := controller.New(controller.Options{
		Loop:     l,
		Service:  svc,
		Settings: settings,
		Registry: server,
		Bus:      bus,
		Timeout:  time.Second,
		Logger:   logger,
	})
	server.SetControl(c)

	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	var err error
	require.NoError(t, l.Invoke(ctx, func() { err = c.Enable() }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Invoke(context.Background(), c.Disable) })

	return server, svc, cfg.Server.UnixSocket
}

func TestIntegration_SocketDrivesWidget(t *testing.T) {
	_, svc, socketPath := setupIntegrationTest(t)

	require.Eventually(t, func() bool {
		resp := socketRequest(t, socketPath, map[string]any{"action": "status"})
		return resp["known"] == true
	}, 2*time.Second, 10*time.Millisecond)

	resp := socketRequest(t, socketPath, map[string]any{
		"action": "invoke",
		"data":   map[string]any{"name": "increase-brightness"},
	})
	require.Equal(t, "ok", resp["status"], resp["error"])
	require.Eventually(t, func() bool { return svc.Level() == 51 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		resp := socketRequest(t, socketPath, map[string]any{"action": "status"})
		return resp["level"] == float64(51)
	}, 2*time.Second, 10*time.Millisecond)

	resp = socketRequest(t, socketPath, map[string]any{
		"action": "set",
		"data":   map[string]any{"level": 20},
	})
	require.Equal(t, "ok", resp["status"], resp["error"])
	require.Eventually(t, func() bool { return svc.Level() == 20 }, 2*time.Second, 10*time.Millisecond)

	resp = socketRequest(t, socketPath, map[string]any{"action": "list_actions"})
	assert.Equal(t, []any{"decrease-brightness", "increase-brightness"}, resp["actions"])
}

func TestIntegration_HTTPDrivesWidget(t *testing.T) {
	server, svc, _ := setupIntegrationTest(t)
	base := fmt.Sprintf("http://%s", server.HTTPAddr())

	resp, err := http.Post(base+"/api/v1/actions/increase-brightness", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return svc.Level() == 51 }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPut, base+"/api/v1/level", strings.NewReader(`{"level": 75}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Eventually(t, func() bool { return svc.Level() == 75 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/v1/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var body map[string]any
		if json.NewDecoder(resp.Body).Decode(&body) != nil {
			return false
		}
		return body["level"] == float64(75) && body["slider"] == 0.75
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Post(base+"/api/v1/actions/nope", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_EventStream(t *testing.T) {
	server, _, socketPath := setupIntegrationTest(t)

	require.Eventually(t, func() bool {
		resp := socketRequest(t, socketPath, map[string]any{"action": "status"})
		return resp["known"] == true
	}, 2*time.Second, 10*time.Millisecond)

	url := fmt.Sprintf("ws://%s/api/v1/ws?types=%s,%s", server.HTTPAddr(), events.LevelRefreshed, events.ActionInvoked)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	next := func() events.Event {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var evt events.Event
		require.NoError(t, json.Unmarshal(msg, &evt))
		return evt
	}

	// the current level is replayed on connect
	evt := next()
	require.Equal(t, events.LevelRefreshed, evt.Type)
	var data events.LevelData
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, 50, data.Level)

	resp := socketRequest(t, socketPath, map[string]any{
		"action": "invoke",
		"data":   map[string]any{"name": "increasedisplaybrightness"},
	})
	require.Equal(t, "ok", resp["status"], resp["error"])

	var types []events.EventType
	for range 2 {
		evt := next()
		types = append(types, evt.Type)
		if evt.Type == events.LevelRefreshed {
			require.NoError(t, json.Unmarshal(evt.Data, &data))
		}
	}
	assert.ElementsMatch(t, []events.EventType{events.ActionInvoked, events.LevelRefreshed}, types)
	assert.Equal(t, 51, data.Level)
}
