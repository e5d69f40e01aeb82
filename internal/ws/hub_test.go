package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/brightnessd/internal/events"
)

const waitFor = 2 * time.Second

type fixture struct {
	t      *testing.T
	hub    *Hub
	bus    *events.Bus
	server *httptest.Server
	cancel context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus()
	hub := NewHub(logger, bus)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	server := httptest.NewServer(Handler(hub, logger))
	t.Cleanup(server.Close)

	return &fixture{t: t, hub: hub, bus: bus, server: server, cancel: cancel}
}

// dial connects with an optional ?types= filter and waits until the hub has
// registered the client.
func (f *fixture) dial(types string) *websocket.Conn {
	f.t.Helper()
	before := f.hub.ClientCount()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	if types != "" {
		url += "?types=" + types
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(f.t, err)
	assert.Equal(f.t, http.StatusSwitchingProtocols, resp.StatusCode)
	f.t.Cleanup(func() { conn.Close() })

	require.Eventually(f.t, func() bool { return f.hub.ClientCount() > before }, waitFor, 5*time.Millisecond)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var e events.Event
	require.NoError(t, json.Unmarshal(msg, &e))
	return e
}

func readLevel(t *testing.T, conn *websocket.Conn) int {
	t.Helper()
	e := read(t, conn)
	require.Equal(t, events.LevelRefreshed, e.Type)
	var data events.LevelData
	require.NoError(t, json.Unmarshal(e.Data, &data))
	return data.Level
}

func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no further message expected")
}

func TestHub_StreamsEventsInOrder(t *testing.T) {
	f := newFixture(t)
	conn := f.dial("")

	f.bus.Emit(events.IndicatorEnabled, events.IndicatorData{Attached: true})
	f.bus.Emit(events.LevelRefreshed, events.LevelData{Level: 64, Slider: 0.64})
	f.bus.Emit(events.ActionInvoked, events.ActionData{Name: "decrease-brightness"})

	assert.Equal(t, events.IndicatorEnabled, read(t, conn).Type)
	assert.Equal(t, 64, readLevel(t, conn))
	e := read(t, conn)
	assert.Equal(t, events.ActionInvoked, e.Type)
	assert.JSONEq(t, `{"name":"decrease-brightness"}`, string(e.Data))
}

func TestHub_FansOutToEveryClient(t *testing.T) {
	f := newFixture(t)
	a, b := f.dial(""), f.dial("")
	assert.Equal(t, 2, f.hub.ClientCount())

	f.bus.Emit(events.LevelRefreshed, events.LevelData{Level: 12})
	assert.Equal(t, 12, readLevel(t, a))
	assert.Equal(t, 12, readLevel(t, b))
}

func TestHub_FiltersByType(t *testing.T) {
	f := newFixture(t)
	conn := f.dial("action.invoked,setting.changed")

	f.bus.Emit(events.LevelRefreshed, events.LevelData{Level: 10})
	f.bus.Emit(events.ActionInvoked, events.ActionData{Name: "increase-brightness"})
	f.bus.Emit(events.IndicatorDisabled, nil)
	f.bus.Emit(events.SettingChanged, events.SettingData{Key: "showicon", Value: "false"})

	assert.Equal(t, events.ActionInvoked, read(t, conn).Type)
	assert.Equal(t, events.SettingChanged, read(t, conn).Type)
	assertSilent(t, conn)
}

func TestHub_ReplaysLastLevelOnConnect(t *testing.T) {
	f := newFixture(t)
	witness := f.dial("")

	f.bus.Emit(events.LevelRefreshed, events.LevelData{Level: 20})
	f.bus.Emit(events.LevelRefreshed, events.LevelData{Level: 30})
	f.bus.Emit(events.ActionInvoked, nil)
	// once the witness has everything, the hub has recorded it
	readLevel(t, witness)
	readLevel(t, witness)
	read(t, witness)

	conn := f.dial("")
	assert.Equal(t, 30, readLevel(t, conn))
	assertSilent(t, conn)

	// a filter that excludes levels gets no replay
	assertSilent(t, f.dial("action.invoked"))
}

func TestHub_ClientDisconnect(t *testing.T) {
	f := newFixture(t)
	a := f.dial("")
	f.dial("")
	require.Equal(t, 2, f.hub.ClientCount())

	a.Close()
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, waitFor, 5*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	f := newFixture(t)
	conn := f.dial("")

	f.cancel()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, f.hub.ClientCount())
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, f.hub.ClientCount())
}

func TestNewClient_Filter(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), events.NewBus())

	all := hub.NewClient(nil)
	assert.Equal(t, sendBufferSize, cap(all.send))
	assert.True(t, all.wants(events.ActionInvoked))

	levels := hub.NewClient(nil, events.LevelRefreshed)
	assert.True(t, levels.wants(events.LevelRefreshed))
	assert.False(t, levels.wants(events.ActionInvoked))
}

func TestParseTypes(t *testing.T) {
	assert.Nil(t, ParseTypes(""))
	assert.Equal(t,
		[]events.EventType{events.LevelRefreshed, events.ActionInvoked},
		ParseTypes(" brightness.level_refreshed, ,action.invoked"))
}

func TestHub_StoppedHubRejectsClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)), events.NewBus())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := hub.NewClient(nil)
	assert.False(t, hub.Register(c))
	assert.NotPanics(t, func() { hub.Unregister(c) })
}
