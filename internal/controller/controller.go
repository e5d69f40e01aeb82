// Package controller owns the indicator's lifecycle: it builds the widget,
// attaches it to the panel, binds the key actions, and tears it all down
// again.
package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/keybind"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// Loop is the event loop the controller runs on.
type Loop interface {
	Post(fn func()) bool
	Invoke(ctx context.Context, fn func()) error
}

// Options configures a Controller.
type Options struct {
	Loop     Loop
	Service  brightness.Service
	Settings *config.Settings
	Panel    indicator.Panel
	Registry keybind.Registry
	Bus      *events.Bus
	Launcher indicator.Launcher
	Position int
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Controller holds everything that exists while the indicator is enabled.
// Enable and Disable must run on the loop; the remaining exported methods
// may be called from any goroutine.
type Controller struct {
	opts   Options
	logger *slog.Logger

	enabled   bool
	widget    *indicator.Widget
	router    *keybind.Router
	observers []int
	attached  bool
	cycles    int
}

// New creates a disabled controller.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Position == 0 {
		opts.Position = config.DefaultPanelPosition
	}
	return &Controller{opts: opts, logger: logger.With("component", "controller")}
}

// Enable loads the settings, builds the widget, attaches it to the panel if
// showicon is set, watches showicon for a restart, and registers the key
// actions. Enabling an enabled controller does nothing.
func (c *Controller) Enable() error {
	if c.enabled {
		return nil
	}

	if err := c.opts.Settings.Load(); err != nil {
		c.logger.Warn("Using current settings, reload failed", "error", err)
	}

	c.widget = indicator.New(indicator.Options{
		Service:  c.opts.Service,
		Poster:   c.opts.Loop,
		Settings: c.opts.Settings,
		Bus:      c.opts.Bus,
		Launcher: c.opts.Launcher,
		Timeout:  c.opts.Timeout,
		Logger:   c.logger,
	})
	c.enabled = true
	c.cycles++

	if c.opts.Settings.GetBool(config.SettingShowIcon) && c.opts.Panel != nil {
		if err := c.opts.Panel.Attach(indicator.Name, c.widget, c.opts.Position); err != nil {
			c.logger.Warn("Failed to attach indicator to panel", "error", err)
		} else {
			c.attached = true
		}
	}

	for _, key := range []config.SettingKey{config.SettingLevel, config.SettingPersist} {
		c.observers = append(c.observers, c.opts.Settings.Connect(key, c.settingChanged))
	}
	c.observers = append(c.observers, c.opts.Settings.Connect(config.SettingShowIcon, func(key config.SettingKey) {
		c.settingChanged(key)
		c.logger.Info("Icon visibility changed, restarting indicator")
		c.Disable()
		if err := c.Enable(); err != nil {
			c.logger.Error("Failed to re-enable indicator", "error", err)
		}
	}))

	router, err := keybind.NewRouter(map[keybind.Action]func(){
		keybind.IncreaseBrightness: c.onLoop(func(w *indicator.Widget) { w.StepUp() }),
		keybind.DecreaseBrightness: c.onLoop(func(w *indicator.Widget) { w.StepDown() }),
	}, c.logger)
	if err != nil {
		c.Disable()
		return errors.WrapErrorf(err, "build key router")
	}
	c.router = router
	if c.opts.Registry != nil {
		if err := c.router.Register(c.opts.Registry); err != nil {
			c.logger.Warn("Key actions not bound", "error", err)
		}
	}

	c.publish(events.IndicatorEnabled)
	c.logger.Debug("Indicator enabled", "attached", c.attached)
	return nil
}

// Disable unregisters the key actions, disconnects the settings observers,
// destroys the widget and drops every reference. It is a no-op when already
// disabled and safe to call from a settings observer.
func (c *Controller) Disable() {
	if !c.enabled {
		return
	}

	if c.router != nil && c.opts.Registry != nil {
		c.router.Unregister(c.opts.Registry)
	}
	for _, id := range c.observers {
		c.opts.Settings.Disconnect(id)
	}
	if c.attached && c.opts.Panel != nil {
		c.opts.Panel.Detach(indicator.Name)
	}
	if c.widget != nil {
		c.widget.Destroy()
	}

	c.router = nil
	c.observers = nil
	c.attached = false
	c.widget = nil
	c.enabled = false

	c.publish(events.IndicatorDisabled)
	c.logger.Debug("Indicator disabled")
}

// Enabled reports whether the indicator is up. Loop only.
func (c *Controller) Enabled() bool {
	return c.enabled
}

// Widget returns the current widget, nil when disabled. Loop only.
func (c *Controller) Widget() *indicator.Widget {
	return c.widget
}

// Attached reports whether the widget is on the panel. Loop only.
func (c *Controller) Attached() bool {
	return c.attached
}

// Cycles counts how many times the indicator has been enabled. Loop only.
func (c *Controller) Cycles() int {
	return c.cycles
}

// Status returns the widget state.
func (c *Controller) Status(ctx context.Context) (indicator.State, error) {
	var s indicator.State
	err := c.withWidget(ctx, func(w *indicator.Widget) { s = w.State() })
	return s, err
}

// Refresh resyncs the widget with the service.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.withWidget(ctx, func(w *indicator.Widget) { w.OnButtonPress() })
}

// Scroll delivers a scroll event to the widget.
func (c *Controller) Scroll(ctx context.Context, dir indicator.Direction) error {
	return c.withWidget(ctx, func(w *indicator.Widget) { w.OnScroll(dir) })
}

// SetLevel moves the slider to level.
func (c *Controller) SetLevel(ctx context.Context, level brightness.Level) error {
	return c.withWidget(ctx, func(w *indicator.Widget) { w.SetLevel(level) })
}

func (c *Controller) withWidget(ctx context.Context, fn func(w *indicator.Widget)) error {
	var found bool
	err := c.opts.Loop.Invoke(ctx, func() {
		if c.widget == nil {
			return
		}
		found = true
		fn(c.widget)
	})
	if err != nil {
		return errors.WrapErrorf(err, "indicator loop")
	}
	if !found {
		return errors.NotFoundf("indicator is disabled")
	}
	return nil
}

// onLoop returns a callback that may be invoked from any goroutine and runs
// fn with whatever widget is current when it reaches the loop.
func (c *Controller) onLoop(fn func(w *indicator.Widget)) func() {
	return func() {
		c.opts.Loop.Post(func() {
			if c.widget != nil {
				fn(c.widget)
			}
		})
	}
}

func (c *Controller) settingChanged(key config.SettingKey) {
	c.opts.Bus.Emit(events.SettingChanged, events.SettingData{
		Key:   string(key),
		Value: c.opts.Settings.GetString(key),
	})
}

func (c *Controller) publish(t events.EventType) {
	c.opts.Bus.Emit(t, events.IndicatorData{Attached: c.attached})
}
