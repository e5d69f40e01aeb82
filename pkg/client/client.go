package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var dial = net.Dial

// Status is the indicator state reported by brightnessd.
type Status struct {
	Level    int     `json:"level"`
	Known    bool    `json:"known"`
	Slider   float64 `json:"slider"`
	Dragging bool    `json:"dragging"`
}

// Version is the build information reported by brightnessd.
type Version struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// ClientInterface defines the methods for interacting with brightnessd
// Used for testability and mocking in CLI
type ClientInterface interface {
	Ping() error
	Version() (Version, error)
	Status() (Status, error)
	Refresh() error
	Scroll(direction string) error
	SetLevel(level int) error
	Actions() ([]string, error)
	Invoke(name string) error
	SetLogLevel(level string) error
}

// Client represents a connection to brightnessd
type Client struct {
	logger *slog.Logger
	socket string
}

var _ ClientInterface = (*Client)(nil)

// New creates a new client
func New(logger *slog.Logger, socket string) *Client {
	if socket == "" {
		// Use XDG runtime directory
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			socket = filepath.Join(dir, "brightnessd.sock")
			logger.Debug("Using XDG runtime directory for socket", "dir", dir, "socket", socket)
		} else {
			uid := os.Getuid()
			socket = filepath.Join("/run/user", fmt.Sprintf("%d", uid), "brightnessd.sock")
			logger.Debug("Using /run/user for socket", "uid", uid, "socket", socket)
		}
	} else {
		logger.Debug("Using provided socket path", "socket", socket)
	}

	return &Client{
		logger: logger,
		socket: socket,
	}
}

// Socket returns the socket path the client connects to.
func (c *Client) Socket() string {
	return c.socket
}

// request sends one action to brightnessd and decodes the reply into resp.
// Every request carries a fresh id which the server echoes back.
func (c *Client) request(action string, data map[string]any, resp any) error {
	id := uuid.NewString()
	req := map[string]any{"action": action, "id": id}
	if data != nil {
		req["data"] = data
	}

	c.logger.Debug("Connecting to socket", "socket", c.socket)
	conn, err := dial("unix", c.socket)
	if err != nil {
		c.logger.Error("Failed to connect to socket", "error", err, "socket", c.socket)
		return fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	c.logger.Debug("Encoding request", "request", req)
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		c.logger.Error("Failed to encode request", "error", err)
		return fmt.Errorf("failed to encode request: %w", err)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(conn).Decode(&raw); err != nil {
		c.logger.Error("Failed to decode response", "error", err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	c.logger.Debug("Received response", "response", string(raw))

	var envelope struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Error != "" {
		c.logger.Error("Server returned error", "error", envelope.Error)
		return fmt.Errorf("server error: %s", envelope.Error)
	}
	if envelope.ID != "" && envelope.ID != id {
		return fmt.Errorf("response id %s does not match request %s", envelope.ID, id)
	}

	if resp != nil {
		if err := json.Unmarshal(raw, resp); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Ping checks that the daemon is answering.
func (c *Client) Ping() error {
	return c.request("ping", nil, nil)
}

// Version returns the daemon's build information.
func (c *Client) Version() (Version, error) {
	var v Version
	err := c.request("version", nil, &v)
	return v, err
}

// Status returns the indicator state.
func (c *Client) Status() (Status, error) {
	var s Status
	err := c.request("status", nil, &s)
	return s, err
}

// Refresh asks the indicator to resync with the brightness service.
func (c *Client) Refresh() error {
	return c.request("refresh", nil, nil)
}

// Scroll delivers a scroll event (up, down, left, right or smooth).
func (c *Client) Scroll(direction string) error {
	return c.request("scroll", map[string]any{"direction": direction}, nil)
}

// SetLevel moves the slider to level, as a released drag would.
func (c *Client) SetLevel(level int) error {
	return c.request("set", map[string]any{"level": level}, nil)
}

// Actions returns the registered key action names.
func (c *Client) Actions() ([]string, error) {
	var resp struct {
		Actions []string `json:"actions"`
	}
	if err := c.request("list_actions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// Invoke runs a key action as if its key was pressed.
func (c *Client) Invoke(name string) error {
	return c.request("invoke", map[string]any{"name": name}, nil)
}

// SetLogLevel changes the daemon's log level.
func (c *Client) SetLogLevel(level string) error {
	return c.request("set_log_level", map[string]any{"level": level}, nil)
}
