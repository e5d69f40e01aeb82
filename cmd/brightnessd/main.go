package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/controller"
	"github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/launcher"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/internal/server"
	"github.com/jmylchreest/brightnessd/internal/tray"
	"github.com/jmylchreest/brightnessd/internal/utils"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	v := viper.New()
	flags := newFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if show, _ := flags.GetBool("version"); show {
		fmt.Printf("brightnessd %s (commit %s, built %s)\n", version, commit, buildDate)
		return
	}
	bindFlags(v, flags)

	cfg, err := config.LoadWith(v, config.DaemonConfigFilename, v.GetString("config"))
	if err != nil {
		utils.SetupErrorLogger().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	logger.Info("Starting brightnessd",
		"version", version,
		"commit", commit,
		"buildDate", buildDate,
	)

	if err := run(cfg, logger, v.GetBool("no-tray")); err != nil {
		logger.Error("brightnessd failed", "error", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("brightnessd", pflag.ContinueOnError)
	flags.String("log-level", config.LogLevelInfo, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.LogFormatText, "Log format (text, json)")
	flags.String("config", "", "Path to config file")
	flags.String("backend", config.BackendGSD, "Brightness backend (gsd, sysfs, memory)")
	flags.String("socket", "", "Control socket path")
	flags.String("api-listen", "", "HTTP API listen address, e.g. 127.0.0.1:9124 (disabled when empty)")
	flags.Bool("no-tray", false, "Run without the system tray icon")
	flags.Bool("version", false, "Print version and exit")
	return flags
}

// bindFlags binds flags to viper so that flags take precedence over the
// config file. Flags left at their defaults don't override the file.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.BindPFlag("logging.level", flags.Lookup("log-level"))
	v.BindPFlag("logging.format", flags.Lookup("log-format"))
	v.BindPFlag("config", flags.Lookup("config"))
	v.BindPFlag("service.backend", flags.Lookup("backend"))
	v.BindPFlag("server.unix_socket", flags.Lookup("socket"))
	v.BindPFlag("api.listen_address", flags.Lookup("api-listen"))
	v.BindPFlag("no-tray", flags.Lookup("no-tray"))
}

// newService connects the configured brightness backend. The returned func
// releases it.
func newService(cfg config.ServiceConfig, backlightRoot string, logger *slog.Logger) (brightness.Service, func(), error) {
	switch cfg.Backend {
	case config.BackendGSD:
		svc, err := brightness.ConnectSession(brightness.DBusOptions{
			BusName:    cfg.BusName,
			ObjectPath: cfg.ObjectPath,
			Interface:  cfg.Interface,
			Protocol:   brightness.ParseProtocol(cfg.Protocol),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, func() { _ = svc.Close() }, nil
	case config.BackendSysfs:
		svc, err := brightness.NewSysfsService(backlightRoot, cfg.SysfsDevice, brightness.Level(cfg.Step))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using sysfs backlight", "device", svc.Device())
		return svc, func() {}, nil
	case config.BackendMemory:
		return brightness.NewMemoryService(50, brightness.Level(cfg.Step)), func() {}, nil
	default:
		return nil, nil, errors.InvalidInputf("unknown backend %q", cfg.Backend)
	}
}

func serviceTimeout(seconds float64) time.Duration {
	if seconds <= 0 {
		return config.DefaultServiceTimeout
	}
	return time.Duration(seconds * float64(time.Second))
}

func run(cfg *config.Config, logger *slog.Logger, noTray bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, release, err := newService(cfg.Service, "", logger)
	if err != nil {
		return errors.WrapErrorf(err, "connect %s backend", cfg.Service.Backend)
	}
	defer release()

	// The loop outlives ctx so the indicator can be disabled on shutdown.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	l := loop.New(logger)
	go l.Run(loopCtx)
	defer func() {
		stopLoop()
		<-l.Done()
	}()

	settings := config.NewSettings(cfg.Indicator.SettingsFile, l, logger)
	go func() {
		if err := settings.Watch(ctx); err != nil {
			logger.Warn("Settings file is not watched", "error", err)
		}
	}()

	bus := events.NewBus()
	bus.Subscribe(func(e events.Event) {
		logger.Debug("Event", "type", e.Type, "data", string(e.Data))
	})

	srv := server.New(logger, cfg, nil, server.BuildInfo{Version: version, Commit: commit, BuildDate: buildDate})
	srv.SetEventBus(bus)

	var panel indicator.Panel
	var t *tray.Tray
	if !noTray {
		t = tray.New(tray.Options{Poster: l, Logger: logger, OnQuit: stop})
		panel = t
	}

	ctrl := controller.New(controller.Options{
		Loop:     l,
		Service:  svc,
		Settings: settings,
		Panel:    panel,
		Registry: srv,
		Bus:      bus,
		Launcher: launcher.New(logger),
		Position: cfg.Indicator.Position,
		Timeout:  serviceTimeout(cfg.Service.Timeout),
		Logger:   logger,
	})
	srv.SetControl(ctrl)

	if err := srv.Start(); err != nil {
		return errors.WrapErrorf(err, "start server")
	}
	defer srv.Stop()

	enable := func() {
		var enableErr error
		if err := l.Invoke(ctx, func() { enableErr = ctrl.Enable() }); err != nil {
			logger.Error("Failed to enable indicator", "error", err)
			return
		}
		if enableErr != nil {
			logger.Error("Failed to enable indicator", "error", enableErr)
		}
	}

	if t != nil {
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run(enable)
		stop()
	} else {
		enable()
		<-ctx.Done()
	}

	logger.Info("Shutting down...")
	disableCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Invoke(disableCtx, ctrl.Disable); err != nil {
		logger.Warn("Indicator was not disabled cleanly", "error", err)
	}
	return nil
}
