package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmylchreest/brightnessd/internal/config"
	errs "github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/http/handlers"
	"github.com/jmylchreest/brightnessd/internal/http/routes"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/keybind"
	"github.com/jmylchreest/brightnessd/internal/utils"
	"github.com/jmylchreest/brightnessd/internal/ws"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// Control is the indicator surface exposed over the socket and HTTP API.
type Control interface {
	Status(ctx context.Context) (indicator.State, error)
	Refresh(ctx context.Context) error
	Scroll(ctx context.Context, dir indicator.Direction) error
	SetLevel(ctx context.Context, level brightness.Level) error
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Server serves the control socket and the optional HTTP API. It is also the
// keybinding registry: key actions are registered on it by name and run when
// a client invokes them.
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	control    Control
	eventBus   *events.Bus
	build      BuildInfo
	socketPath string
	listener   net.Listener
	shutdown   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc
	httpServer *http.Server
	httpAddr   net.Addr

	mu      sync.RWMutex
	actions map[string]func()
}

var _ keybind.Registry = (*Server)(nil)

// New creates a new server instance.
func New(logger *slog.Logger, cfg *config.Config, control Control, build BuildInfo) *Server {
	rootCtx, rootCancel := context.WithCancel(context.Background())

	return &Server{
		logger:     logger,
		cfg:        cfg,
		control:    control,
		build:      build,
		socketPath: cfg.Server.UnixSocket,
		shutdown:   make(chan struct{}),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
		actions:    make(map[string]func()),
	}
}

// SetControl sets the indicator the server drives. The controller usually
// needs the server as its key registry, so it is built after New and handed
// over here, before Start.
func (s *Server) SetControl(control Control) {
	s.control = control
}

// SetEventBus sets the bus that invoked actions are published on and the
// HTTP API streams from. Call it before Start.
func (s *Server) SetEventBus(bus *events.Bus) {
	s.eventBus = bus
}

// Register binds fn to a key action name. Names are unique.
func (s *Server) Register(name string, fn func()) error {
	if name == "" || fn == nil {
		return errs.InvalidInputf("key action needs a name and a handler")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.actions[name]; exists {
		return fmt.Errorf("key action %s is already registered", name)
	}
	s.actions[name] = fn
	s.logger.Debug("Key action registered", "name", name)
	return nil
}

// Unregister removes a key action. Unknown names are ignored.
func (s *Server) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[name]; ok {
		delete(s.actions, name)
		s.logger.Debug("Key action unregistered", "name", name)
	}
}

// Invoke runs the key action registered under name or one of its aliases.
func (s *Server) Invoke(name string) error {
	canonical := keybind.Canonical(name)
	s.mu.RLock()
	fn, ok := s.actions[canonical]
	s.mu.RUnlock()
	if !ok {
		return errs.UnknownActionf("%q", name)
	}
	s.logger.Debug("Invoking key action", "name", canonical)
	fn()
	s.eventBus.Emit(events.ActionInvoked, events.ActionData{Name: canonical})
	return nil
}

// Actions returns the registered key action names, sorted.
func (s *Server) Actions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.actions))
}

// Start begins listening on the socket and, when configured, starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("Starting brightnessd server")

	// Ensure socket directory exists
	sockDir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(sockDir, 0755); err != nil {
		return fmt.Errorf("failed to create socket directory %s: %w", sockDir, err)
	}

	// Remove a socket left behind by a previous run
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove existing socket file %s: %w", s.socketPath, err)
		}
	}

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}
	s.logger.Info("Listening on Unix socket", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections()

	if s.cfg.API.ListenAddress != "" {
		if err := s.startHTTP(); err != nil {
			s.Stop()
			return err
		}
	}

	return nil
}

func (s *Server) startHTTP() error {
	s.logger.Info("Starting HTTP API server", "address", s.cfg.API.ListenAddress)

	router, _ := routes.NewRouter(s.logger, s.build.Version, s.cfg.API.RateLimit, &routes.Handlers{
		HealthCheck: handlers.HealthCheck,
		VersionCheck: (&handlers.VersionHandler{
			Version:   s.build.Version,
			Commit:    s.build.Commit,
			BuildDate: s.build.BuildDate,
		}).VersionCheck,
		Indicator: &handlers.IndicatorHandler{Indicator: s.control, Actions: s},
		Logging:   &handlers.LoggingHandler{Logger: s.logger},
	})

	if s.eventBus != nil {
		wsHub := ws.NewHub(s.logger, s.eventBus)
		s.wg.Go(func() {
			wsHub.Run(s.rootCtx)
		})
		router.Get("/api/v1/ws", ws.Handler(wsHub, s.logger))
	}

	ln, err := net.Listen("tcp", s.cfg.API.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.API.ListenAddress, err)
	}
	s.httpAddr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in HTTP server goroutine", "recover", r)
			}
		}()
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", "error", err)
		}
		s.logger.Info("HTTP server stopped")
	})
	return nil
}

// HTTPAddr returns the address the HTTP API listens on, nil when disabled.
func (s *Server) HTTPAddr() net.Addr {
	return s.httpAddr
}

// Stop gracefully shuts down the server. Calling it again does nothing.
func (s *Server) Stop() {
	s.stopOnce.Do(s.stop)
}

func (s *Server) stop() {
	s.logger.Info("Shutting down brightnessd server")
	s.rootCancel()
	close(s.shutdown)

	if s.listener != nil {
		s.logger.Debug("Closing Unix socket listener")
		s.listener.Close()
	}

	if s.httpServer != nil {
		s.logger.Debug("Shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", "error", err)
		}
	}

	s.wg.Wait()
	s.logger.Info("brightnessd server shut down gracefully")
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in acceptConnections", "recover", r)
		}
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				s.logger.Debug("Socket listener shutting down")
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in connection handler", "recover", r)
		}
	}()

	ctx, cancel := context.WithCancel(s.rootCtx)
	defer cancel()

	go func() {
		select {
		case <-s.shutdown:
			if uc, ok := conn.(*net.UnixConn); ok {
				uc.CloseRead() // unblock the reader
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := bufio.NewReader(conn)

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Client disconnected")
			} else {
				s.logger.Error("Failed to read from connection", "error", err)
			}
			return
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Debug("Failed to unmarshal request", "error", err, "request", string(line))
			s.sendError(conn, "", fmt.Sprintf("invalid JSON request: %s", err))
			continue
		}

		action, _ := req["action"].(string)
		id, _ := req["id"].(string)
		data, _ := req["data"].(map[string]any)

		s.logger.Debug("Received request", "action", action, "id", id, "data", data)
		s.handleRequest(ctx, conn, action, id, data)
	}
}

func (s *Server) handleRequest(ctx context.Context, conn net.Conn, action, id string, data map[string]any) {
	switch action {
	case "ping":
		s.sendResponse(conn, id, map[string]any{"message": "pong"})

	case "health":
		s.sendResponse(conn, id, map[string]any{"health": "ok"})

	case "version":
		s.sendResponse(conn, id, map[string]any{
			"version":    s.build.Version,
			"commit":     s.build.Commit,
			"build_date": s.build.BuildDate,
		})

	case "list_actions":
		s.sendResponse(conn, id, map[string]any{"actions": s.Actions()})

	case "invoke":
		name, _ := data["name"].(string)
		if name == "" {
			s.sendError(conn, id, "missing name for invoke")
			return
		}
		if err := s.Invoke(name); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to invoke %s: %s", name, err))
			return
		}
		s.sendResponse(conn, id, nil)

	case "status":
		st, err := s.control.Status(ctx)
		if err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to read status: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{
			"level":    int(st.Level),
			"known":    st.Known,
			"slider":   st.Slider,
			"dragging": st.Dragging,
		})

	case "refresh":
		if err := s.control.Refresh(ctx); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to refresh: %s", err))
			return
		}
		s.sendResponse(conn, id, nil)

	case "scroll":
		raw, _ := data["direction"].(string)
		dir, err := indicator.ParseDirection(raw)
		if err != nil {
			s.sendError(conn, id, fmt.Sprintf("invalid scroll: %s", err))
			return
		}
		if err := s.control.Scroll(ctx, dir); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to scroll: %s", err))
			return
		}
		s.sendResponse(conn, id, nil)

	case "set":
		v, ok := data["level"].(float64)
		if !ok {
			s.sendError(conn, id, "missing or non-numeric level for set")
			return
		}
		level := brightness.Level(v)
		if float64(level) != v || level != level.Clamp() {
			s.sendError(conn, id, fmt.Sprintf("level %v must be an integer in [%d,%d]", v, brightness.MinLevel, brightness.MaxLevel))
			return
		}
		if err := s.control.SetLevel(ctx, level); err != nil {
			s.sendError(conn, id, fmt.Sprintf("failed to set level: %s", err))
			return
		}
		s.sendResponse(conn, id, map[string]any{"level": int(level)})

	case "set_log_level":
		level, _ := data["level"].(string)
		if level == "" {
			s.sendError(conn, id, "missing level for set_log_level")
			return
		}
		validated := utils.ValidateLogLevel(level)
		if validated != level {
			s.sendError(conn, id, fmt.Sprintf("invalid log level %q; must be debug, info, warn, or error", level))
			return
		}
		utils.SetLevel(validated)
		s.logger.Info("Log level changed via socket", "level", validated)
		s.sendResponse(conn, id, map[string]any{"level": validated})

	default:
		s.logger.Warn("received unknown action", "action", action)
		s.sendError(conn, id, "unknown action: "+action)
	}
}

func (s *Server) sendResponse(conn net.Conn, id string, data map[string]any) {
	response := map[string]any{"status": "ok"}
	if id != "" {
		response["id"] = id
	}
	maps.Copy(response, data)
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send response", "error", err)
	}
}

func (s *Server) sendError(conn net.Conn, id string, message string) {
	s.logger.Debug("Sending error response to client", "id", id, "message", message)
	response := map[string]any{"error": strings.TrimSpace(message)}
	if id != "" {
		response["id"] = id
	}
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Error("Failed to send error response", "error", err)
	}
}
