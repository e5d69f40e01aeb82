// Package tray hosts the brightness indicator in the system tray.
package tray

import (
	"fmt"
	"log/slog"

	"fyne.io/systray"

	"github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// Presets are the slider positions offered in the menu.
var Presets = []brightness.Level{0, 25, 50, 75, 100}

// Options configures a Tray.
type Options struct {
	// Poster runs widget calls on the UI loop.
	Poster loop.Poster
	Logger *slog.Logger
	// OnQuit runs when Quit is picked from the menu.
	OnQuit func()
}

// Tray is an indicator.Panel backed by the system tray. The tray has a
// single icon, so it hosts one widget at a time. Attach, Detach and the
// widget's views run on the loop; menu clicks arrive on their own goroutines
// and are posted back.
type Tray struct {
	host   host
	poster loop.Poster
	logger *slog.Logger
	onQuit func()

	name        string
	widget      *indicator.Widget
	unsubscribe func()
	stop        chan struct{}
	label       menuItem
}

var _ indicator.Panel = (*Tray)(nil)

// New creates a tray panel.
func New(opts Options) *Tray {
	return newTray(systrayHost{}, opts)
}

func newTray(h host, opts Options) *Tray {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{
		host:   h,
		poster: opts.Poster,
		logger: logger.With("component", "tray"),
		onQuit: opts.OnQuit,
	}
}

// Run starts the system tray and blocks until Quit. onReady runs once the
// tray can host widgets.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.hide()
		onReady()
	}, func() {
		t.logger.Debug("System tray exited")
	})
}

// Quit stops the system tray.
func (t *Tray) Quit() {
	t.host.Quit()
}

// Attach shows w in the tray. position is accepted for Panel compatibility;
// the tray has no ordering.
func (t *Tray) Attach(name string, w *indicator.Widget, position int) error {
	if t.widget != nil {
		return errors.InvalidInputf("tray already hosts %q", t.name)
	}
	t.name = name
	t.widget = w
	t.resetMenu()

	t.buildMenu(w)
	t.host.SetOnTapped(func() {
		t.post(w, (*indicator.Widget).OnButtonPress)
	})
	t.unsubscribe = w.Subscribe(t.update)
	t.update(w.State())

	t.logger.Debug("Attached widget", "name", name, "position", position)
	return nil
}

// Detach removes the named widget and hides the icon. Only Quit is left in
// the menu.
func (t *Tray) Detach(name string) {
	if t.widget == nil || t.name != name {
		return
	}
	t.unsubscribe()
	t.host.SetOnTapped(func() {})
	t.hide()

	t.name = ""
	t.widget = nil
	t.unsubscribe = nil
	t.label = nil
	t.logger.Debug("Detached widget", "name", name)
}

func (t *Tray) buildMenu(w *indicator.Widget) {
	for _, item := range w.Menu() {
		switch item.Kind {
		case indicator.MenuLabel:
			t.label = t.host.AddMenuItem(item.Label, "")
			t.label.Disable()
		case indicator.MenuSlider:
			for _, p := range Presets {
				it := t.host.AddMenuItem(fmt.Sprintf("%d%%", p), fmt.Sprintf("Set brightness to %d%%", p))
				t.watch(it, func() {
					t.post(w, func(w *indicator.Widget) { w.SetLevel(p) })
				})
			}
			up := t.host.AddMenuItem("Increase", "Increase brightness")
			t.watch(up, func() {
				t.post(w, func(w *indicator.Widget) { w.OnScroll(indicator.ScrollUp) })
			})
			down := t.host.AddMenuItem("Decrease", "Decrease brightness")
			t.watch(down, func() {
				t.post(w, func(w *indicator.Widget) { w.OnScroll(indicator.ScrollDown) })
			})
		case indicator.MenuSeparator:
			t.host.AddSeparator()
		case indicator.MenuAction:
			it := t.host.AddMenuItem(item.Label, "")
			if item.Activate == nil {
				it.Disable()
				continue
			}
			label, activate := item.Label, item.Activate
			t.watch(it, func() {
				if err := activate(); err != nil {
					t.logger.Warn("Menu action failed", "item", label, "error", err)
				}
			})
		}
	}

	t.host.AddSeparator()
	t.addQuit()
}

func (t *Tray) addQuit() {
	quit := t.host.AddMenuItem("Quit", "Quit brightnessd")
	t.watch(quit, t.quit)
}

// resetMenu stops the watchers of the current menu and clears it.
func (t *Tray) resetMenu() {
	if t.stop != nil {
		close(t.stop)
		t.host.ResetMenu()
	}
	t.stop = make(chan struct{})
}

// watch runs fn for every click on it until the menu is torn down.
func (t *Tray) watch(it menuItem, fn func()) {
	stop := t.stop
	go func() {
		for {
			select {
			case <-it.Clicked():
				fn()
			case <-stop:
				return
			}
		}
	}()
}

// post runs fn on the loop if w is still alive by then.
func (t *Tray) post(w *indicator.Widget, fn func(*indicator.Widget)) {
	t.poster.Post(func() {
		if w.Destroyed() {
			return
		}
		fn(w)
	})
}

func (t *Tray) update(s indicator.State) {
	pct := percent(s)
	if t.label != nil {
		t.label.SetTitle("Brightness " + pct)
	}
	t.host.SetTitle(pct)
	t.host.SetTooltip("Brightness " + pct)
	t.host.SetIcon(Icon(s.Level, s.Known))
}

// hide blanks the icon while no widget is attached. The tray item itself
// stays registered, so Quit remains reachable from its menu.
func (t *Tray) hide() {
	t.resetMenu()
	t.addQuit()
	t.host.SetIcon(BlankIcon())
	t.host.SetTitle("")
	t.host.SetTooltip("")
}

func (t *Tray) quit() {
	t.logger.Info("Quit requested from tray")
	if t.onQuit != nil {
		t.onQuit()
	}
	t.host.Quit()
}

func percent(s indicator.State) string {
	if !s.Known {
		return "--"
	}
	return fmt.Sprintf("%d%%", s.Level)
}
