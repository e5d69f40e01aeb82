// Package indicator implements the brightness panel widget: a slider that
// mirrors the brightness service and pushes user changes back to it.
//
// A Widget is owned by the event loop. Every exported method must be called
// on the loop goroutine; remote calls run elsewhere and their completions are
// posted back, where they are dropped if the widget has been destroyed.
package indicator

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// Name is the widget's panel identifier.
const Name = "brightness"

// State is what a view renders.
type State struct {
	Level    brightness.Level `json:"level"`
	Known    bool             `json:"known"`
	Slider   float64          `json:"slider"`
	Dragging bool             `json:"dragging"`
}

// Launcher opens the settings surfaces linked from the menu.
type Launcher interface {
	OpenPowerSettings() error
	OpenPreferences(path string) error
}

// Options configures a Widget.
type Options struct {
	Service  brightness.Service
	Poster   loop.Poster
	Settings *config.Settings
	Bus      *events.Bus
	Launcher Launcher
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Widget is the brightness indicator.
type Widget struct {
	svc      brightness.Service
	poster   loop.Poster
	settings *config.Settings
	bus      *events.Bus
	launcher Launcher
	timeout  time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	level     brightness.Level
	known     bool
	slider    float64
	dragging  bool
	pending   int
	destroyed bool

	views  map[int]func(State)
	nextID int
}

// New builds a widget and starts its initial sync. When the persist setting
// is on, the stored level is pushed to the service and the first read-back
// waits for that call to complete.
func New(opts Options) *Widget {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultServiceTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		svc:      opts.Service,
		poster:   opts.Poster,
		settings: opts.Settings,
		bus:      opts.Bus,
		launcher: opts.Launcher,
		timeout:  timeout,
		logger:   logger.With("component", "indicator"),
		ctx:      ctx,
		cancel:   cancel,
		views:    make(map[int]func(State)),
	}

	if !w.settings.GetBool(config.SettingPersist) {
		w.Refresh(true)
		return w
	}

	stored := w.settings.GetString(config.SettingLevel)
	last, err := brightness.ParseLevel(stored)
	if err != nil {
		w.logger.Warn("Not restoring stored brightness", "level", stored, "error", err)
		w.Refresh(true)
		return w
	}

	w.logger.Debug("Restoring stored brightness", "level", last)
	w.call("set", func(ctx context.Context) (brightness.Level, error) {
		return w.svc.SetPercentage(ctx, last)
	}, func(brightness.Level, error) {
		w.Refresh(true)
	})
	return w
}

// StepUp raises the brightness by one service step unless it is already at
// the maximum.
func (w *Widget) StepUp() {
	w.step("up", func(l brightness.Level) bool { return l < brightness.MaxLevel }, w.svc.StepUp)
}

// StepDown lowers the brightness by one service step unless it is already
// at the minimum.
func (w *Widget) StepDown() {
	w.step("down", func(l brightness.Level) bool { return l > brightness.MinLevel }, w.svc.StepDown)
}

func (w *Widget) step(op string, allowed func(brightness.Level) bool, fn func(context.Context) (brightness.Level, error)) {
	w.call("get", w.svc.GetPercentage, func(l brightness.Level, err error) {
		if err != nil || !allowed(l) {
			return
		}
		w.call(op, fn, func(brightness.Level, error) {
			w.Refresh(true)
		})
	})
}

// Refresh reads the current level and stores it as the last known level.
// The slider follows only when updateSlider is set and the user is not
// dragging it.
func (w *Widget) Refresh(updateSlider bool) {
	w.call("get", w.svc.GetPercentage, func(l brightness.Level, err error) {
		if err != nil {
			return
		}
		w.level = l
		w.known = true
		if err := w.settings.SetString(config.SettingLevel, l.String()); err != nil {
			w.logger.Warn("Failed to store brightness level", "error", err)
		}
		if updateSlider && !w.dragging {
			w.slider = l.Fraction()
		}
		w.publish()
	})
}

// OnScroll steps the brightness for a discrete scroll. Smooth scrolling is
// ignored.
func (w *Widget) OnScroll(dir Direction) {
	switch dir {
	case ScrollDown, ScrollLeft:
		w.StepDown()
	case ScrollUp, ScrollRight:
		w.StepUp()
	}
}

// OnButtonPress resyncs with the service in case the level changed
// elsewhere.
func (w *Widget) OnButtonPress() {
	w.Refresh(true)
}

// OnSliderChanged records a slider movement. While dragging only the local
// value changes; the release, or a change made without dragging, sends the
// value to the service and reads it back without moving the slider.
func (w *Widget) OnSliderChanged(value float64, dragging bool) {
	if w.destroyed {
		return
	}
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}

	w.slider = value
	w.dragging = dragging
	w.render()

	if dragging {
		return
	}

	target := brightness.FromFraction(value)
	w.call("set", func(ctx context.Context) (brightness.Level, error) {
		return w.svc.SetPercentage(ctx, target)
	}, func(brightness.Level, error) {
		w.Refresh(false)
	})
}

// SetLevel moves the slider to level as a single click would.
func (w *Widget) SetLevel(level brightness.Level) {
	w.OnSliderChanged(level.Clamp().Fraction(), false)
}

// State returns the widget's current state.
func (w *Widget) State() State {
	return State{Level: w.level, Known: w.known, Slider: w.slider, Dragging: w.dragging}
}

// Pending returns the number of remote calls whose completion has not run yet.
func (w *Widget) Pending() int {
	return w.pending
}

// Destroyed reports whether Destroy has been called.
func (w *Widget) Destroyed() bool {
	return w.destroyed
}

// Subscribe calls fn with the new state whenever it changes and returns a
// function that removes it.
func (w *Widget) Subscribe(fn func(State)) func() {
	w.nextID++
	id := w.nextID
	w.views[id] = fn
	return func() { delete(w.views, id) }
}

// Destroy marks the widget dead. Completions still in flight are dropped.
func (w *Widget) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.cancel()
	w.views = make(map[int]func(State))
	w.logger.Debug("Widget destroyed", "pending", w.pending)
}

// call runs fn off the loop and hands its result to done on the loop, unless
// the widget is gone by then.
func (w *Widget) call(op string, fn func(context.Context) (brightness.Level, error), done func(brightness.Level, error)) {
	if w.destroyed {
		return
	}
	w.pending++
	loop.Go(w.poster, func() (brightness.Level, error) {
		ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
		defer cancel()
		return fn(ctx)
	}, func(l brightness.Level, err error) {
		w.pending--
		if w.destroyed {
			w.logger.Debug("Dropping completion for destroyed widget", "op", op)
			return
		}
		if err != nil {
			w.logger.Debug("Brightness call failed", "op", op, "error", err)
		}
		done(l, err)
	})
}

func (w *Widget) publish() {
	w.render()
	w.bus.Emit(events.LevelRefreshed, events.LevelData{
		Level:    int(w.level),
		Slider:   w.slider,
		Dragging: w.dragging,
	})
}

func (w *Widget) render() {
	s := w.State()
	for _, fn := range w.views {
		fn(s)
	}
}
