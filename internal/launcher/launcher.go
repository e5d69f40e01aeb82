// Package launcher opens the desktop surfaces the indicator menu links to.
package launcher

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/browser"

	errs "github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/indicator"
)

// PowerSettingsCommand is the command that opens the desktop power panel.
var PowerSettingsCommand = []string{"gnome-control-center", "power"}

// Launcher starts external programs without waiting for them.
type Launcher struct {
	logger   *slog.Logger
	start    func(name string, args ...string) error
	openFile func(path string) error
}

var _ indicator.Launcher = (*Launcher)(nil)

// New returns a Launcher that uses the desktop's default handlers.
func New(logger *slog.Logger) *Launcher {
	return &Launcher{
		logger:   logger,
		start:    startDetached(logger),
		openFile: browser.OpenFile,
	}
}

// OpenPowerSettings opens the system power settings panel.
func (l *Launcher) OpenPowerSettings() error {
	l.logger.Debug("Opening power settings", "command", PowerSettingsCommand)
	if err := l.start(PowerSettingsCommand[0], PowerSettingsCommand[1:]...); err != nil {
		return fmt.Errorf("failed to open power settings: %w", err)
	}
	return nil
}

// OpenPreferences opens the indicator settings file with the default handler.
// The file is created with defaults first if it does not exist yet.
func (l *Launcher) OpenPreferences(path string) error {
	if path == "" {
		return errs.InvalidInputf("settings path is empty")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
		if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
			return fmt.Errorf("failed to create settings file: %w", err)
		}
	}
	l.logger.Debug("Opening preferences", "path", path)
	if err := l.openFile(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

// startDetached starts the command and reaps it in the background.
func startDetached(logger *slog.Logger) func(name string, args ...string) error {
	return func(name string, args ...string) error {
		cmd := exec.Command(name, args...)
		if err := cmd.Start(); err != nil {
			return err
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				logger.Debug("Launched command exited", "command", name, "error", err)
			}
		}()
		return nil
	}
}
