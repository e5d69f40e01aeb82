package client

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newTestServer creates a test HTTP server with the given handler map.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewHTTP(testLogger(), server.URL+"/")
	return server, client
}

func jsonHandler(statusCode int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if body != nil {
			json.NewEncoder(w).Encode(body)
		}
	}
}

// captureBody records the decoded JSON request body and replies 202.
func captureBody(into *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, into)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// === Health and version ===

func TestHTTPClient_Ping(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": jsonHandler(200, map[string]any{"status": "ok"}),
	})

	require.NoError(t, client.Ping())
}

func TestHTTPClient_Version(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/version": jsonHandler(200, map[string]any{
			"version": "1.2.3", "commit": "abc", "build_date": "today",
		}),
	})

	v, err := client.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.Version)
	assert.Equal(t, "abc", v.Commit)
}

// === Status ===

func TestHTTPClient_Status(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/status": jsonHandler(200, map[string]any{
			"level": 64, "known": true, "slider": 0.64, "dragging": false,
		}),
	})

	s, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Level: 64, Known: true, Slider: 0.64}, s)
}

func TestHTTPClient_Status_Unavailable(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/status": jsonHandler(503, map[string]any{"title": "Service Unavailable"}),
	})

	_, err := client.Status()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

// === Commands ===

func TestHTTPClient_SetLevel(t *testing.T) {
	var receivedBody map[string]any
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/level": captureBody(&receivedBody),
	})

	require.NoError(t, client.SetLevel(80))
	assert.Equal(t, float64(80), receivedBody["level"])
}

func TestHTTPClient_Scroll(t *testing.T) {
	var receivedBody map[string]any
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/scroll": captureBody(&receivedBody),
	})

	require.NoError(t, client.Scroll("down"))
	assert.Equal(t, "down", receivedBody["direction"])
}

func TestHTTPClient_Refresh(t *testing.T) {
	called := false
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/refresh": func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusAccepted)
		},
	})

	require.NoError(t, client.Refresh())
	assert.True(t, called)
}

func TestHTTPClient_SetLogLevel(t *testing.T) {
	var receivedBody map[string]any
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"PUT /api/v1/logging/level": captureBody(&receivedBody),
	})

	require.NoError(t, client.SetLogLevel("warn"))
	assert.Equal(t, "warn", receivedBody["level"])
}

// === Actions ===

func TestHTTPClient_Actions(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/actions": jsonHandler(200, map[string]any{
			"actions": []string{"decrease-brightness", "increase-brightness"},
		}),
	})

	actions, err := client.Actions()
	require.NoError(t, err)
	assert.Equal(t, []string{"decrease-brightness", "increase-brightness"}, actions)
}

func TestHTTPClient_Invoke(t *testing.T) {
	var got string
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/actions/{name}": func(w http.ResponseWriter, r *http.Request) {
			got = r.PathValue("name")
			w.WriteHeader(http.StatusAccepted)
		},
	})

	require.NoError(t, client.Invoke("increase-brightness"))
	assert.Equal(t, "increase-brightness", got)
}

func TestHTTPClient_Invoke_Unknown(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/actions/{name}": jsonHandler(404, map[string]any{"title": "Not Found"}),
	})

	err := client.Invoke("dim")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	client := NewHTTP(testLogger(), "http://127.0.0.1:1")
	err := client.Ping()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}
