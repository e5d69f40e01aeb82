package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/events"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

const waitFor = 2 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

type fakePanel struct {
	mu       sync.Mutex
	attached map[string]int
	attaches int
	detaches int
	fail     bool
}

func (p *fakePanel) Attach(name string, _ *indicator.Widget, position int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("panel is gone")
	}
	if p.attached == nil {
		p.attached = make(map[string]int)
	}
	p.attached[name] = position
	p.attaches++
	return nil
}

func (p *fakePanel) Detach(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attached, name)
	p.detaches++
}

type fakeRegistry struct {
	mu        sync.Mutex
	bindings  map[string]func()
	registers int
}

func (r *fakeRegistry) Register(name string, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindings == nil {
		r.bindings = make(map[string]func())
	}
	if _, ok := r.bindings[name]; ok {
		return fmt.Errorf("%s already bound", name)
	}
	r.bindings[name] = fn
	r.registers++
	return nil
}

func (r *fakeRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
}

func (r *fakeRegistry) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for n := range r.bindings {
		out = append(out, n)
	}
	return out
}

func (r *fakeRegistry) press(name string) {
	r.mu.Lock()
	fn := r.bindings[name]
	r.mu.Unlock()
	fn()
}

type harness struct {
	t        *testing.T
	loop     *loop.Loop
	svc      *brightness.MemoryService
	settings *config.Settings
	panel    *fakePanel
	registry *fakeRegistry
	bus      *events.Bus
	c        *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := loop.New(quietLogger())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	h := &harness{
		t:        t,
		loop:     l,
		svc:      brightness.NewMemoryService(50, 1),
		settings: config.NewSettings(filepath.Join(t.TempDir(), config.SettingsFilename), l, quietLogger()),
		panel:    &fakePanel{},
		registry: &fakeRegistry{},
		bus:      events.NewBus(),
	}
	h.c = New(Options{
		Loop:     l,
		Service:  h.svc,
		Settings: h.settings,
		Panel:    h.panel,
		Registry: h.registry,
		Bus:      h.bus,
		Timeout:  time.Second,
		Logger:   quietLogger(),
	})
	return h
}

func (h *harness) do(fn func()) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(h.t, h.loop.Invoke(ctx, fn))
}

func (h *harness) enable() {
	h.t.Helper()
	var err error
	h.do(func() { err = h.c.Enable() })
	require.NoError(h.t, err)
	h.settle()
}

func (h *harness) settle() {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		idle := true
		h.do(func() {
			if w := h.c.Widget(); w != nil {
				idle = w.Pending() == 0
			}
		})
		return idle
	}, waitFor, 5*time.Millisecond)
}

func TestController_Enable(t *testing.T) {
	h := newHarness(t)
	h.enable()

	h.do(func() {
		assert.True(t, h.c.Enabled())
		assert.True(t, h.c.Attached())
		assert.NotNil(t, h.c.Widget())
	})
	assert.Equal(t, map[string]int{indicator.Name: config.DefaultPanelPosition}, h.panel.attached)
	assert.ElementsMatch(t, []string{"increase-brightness", "decrease-brightness"}, h.registry.names())

	s, err := h.c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, brightness.Level(50), s.Level)
}

func TestController_EnableHiddenIcon(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.settings.SetBool(config.SettingShowIcon, false))
	h.enable()

	h.do(func() { assert.False(t, h.c.Attached()) })
	assert.Zero(t, h.panel.attaches)
	assert.Len(t, h.registry.names(), 2, "key actions work without an icon")
}

func TestController_PanelFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.panel.fail = true
	h.enable()

	h.do(func() {
		assert.True(t, h.c.Enabled())
		assert.False(t, h.c.Attached())
	})
}

func TestController_EnableTwiceIsNoop(t *testing.T) {
	h := newHarness(t)
	h.enable()
	h.enable()

	h.do(func() { assert.Equal(t, 1, h.c.Cycles()) })
	assert.Equal(t, 1, h.panel.attaches)
	assert.Equal(t, 2, h.registry.registers)
}

func TestController_DisableTwice(t *testing.T) {
	h := newHarness(t)
	h.enable()

	h.do(func() {
		h.c.Disable()
		assert.NotPanics(t, h.c.Disable)
		assert.False(t, h.c.Enabled())
		assert.Nil(t, h.c.Widget())
	})
	assert.Empty(t, h.registry.names())
	assert.Empty(t, h.panel.attached)
	assert.Equal(t, 1, h.panel.detaches)
}

func TestController_DisableBeforeEnable(t *testing.T) {
	h := newHarness(t)
	h.do(func() { assert.NotPanics(t, h.c.Disable) })
	assert.Zero(t, h.panel.detaches)
}

func TestController_KeyActionsStep(t *testing.T) {
	h := newHarness(t)
	h.enable()

	h.registry.press("increase-brightness")
	require.Eventually(t, func() bool { return h.svc.Level() == 51 }, waitFor, 5*time.Millisecond)

	h.registry.press("decrease-brightness")
	h.registry.press("decrease-brightness")
	require.Eventually(t, func() bool { return h.svc.Level() == 49 }, waitFor, 5*time.Millisecond)
}

func TestController_ShowIconToggleRestartsOnce(t *testing.T) {
	h := newHarness(t)
	h.enable()

	var old *indicator.Widget
	h.do(func() { old = h.c.Widget() })

	require.NoError(t, h.settings.SetBool(config.SettingShowIcon, false))
	require.Eventually(t, func() bool {
		var cycles int
		h.do(func() { cycles = h.c.Cycles() })
		return cycles == 2
	}, waitFor, 5*time.Millisecond)
	h.settle()

	// Give a duplicate restart, if any, time to show up.
	time.Sleep(50 * time.Millisecond)
	h.do(func() {
		assert.Equal(t, 2, h.c.Cycles())
		assert.True(t, h.c.Enabled())
		assert.False(t, h.c.Attached())
		assert.NotSame(t, old, h.c.Widget())
	})
	assert.True(t, old.Destroyed())
	assert.Equal(t, 1, h.panel.detaches)

	names := h.registry.names()
	assert.ElementsMatch(t, []string{"increase-brightness", "decrease-brightness"}, names, "re-registered, not duplicated")
	assert.Equal(t, 4, h.registry.registers)

	h.registry.press("increase-brightness")
	require.Eventually(t, func() bool { return h.svc.Level() == 51 }, waitFor, 5*time.Millisecond)

	require.NoError(t, h.settings.SetBool(config.SettingShowIcon, true))
	require.Eventually(t, func() bool {
		var attached bool
		h.do(func() { attached = h.c.Attached() })
		return attached
	}, waitFor, 5*time.Millisecond)
	h.do(func() { assert.Equal(t, 3, h.c.Cycles()) })
}

func TestController_UnrelatedSettingDoesNotRestart(t *testing.T) {
	h := newHarness(t)
	h.enable()

	require.NoError(t, h.settings.SetBool(config.SettingPersist, true))
	time.Sleep(50 * time.Millisecond)
	h.do(func() { assert.Equal(t, 1, h.c.Cycles()) })
}

func TestController_DisabledCallsFail(t *testing.T) {
	h := newHarness(t)

	_, err := h.c.Status(context.Background())
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(h.c.Refresh(context.Background())))
}

func TestController_StoppedLoopIsLocal(t *testing.T) {
	l := loop.New(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	c := New(Options{
		Loop:     l,
		Service:  brightness.NewMemoryService(50, 1),
		Settings: config.NewSettings(filepath.Join(t.TempDir(), config.SettingsFilename), l, quietLogger()),
		Logger:   quietLogger(),
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loop.ErrStopped)
	assert.False(t, errors.IsRemoteCallFailed(err), "a stopped loop is not a failed remote call")
	assert.False(t, errors.IsServiceUnavailable(err))

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	err = c.Refresh(ctx)
	require.Error(t, err)
	assert.False(t, errors.IsRemoteCallFailed(err))
}

func TestController_SetLevelAndScroll(t *testing.T) {
	h := newHarness(t)
	h.enable()

	require.NoError(t, h.c.SetLevel(context.Background(), 20))
	require.Eventually(t, func() bool { return h.svc.Level() == 20 }, waitFor, 5*time.Millisecond)

	require.NoError(t, h.c.Scroll(context.Background(), indicator.ScrollUp))
	require.Eventually(t, func() bool { return h.svc.Level() == 21 }, waitFor, 5*time.Millisecond)
	h.settle()

	s, err := h.c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, brightness.Level(21), s.Level)
	assert.InDelta(t, 0.21, s.Slider, 1e-9)
}

func TestController_Events(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var types []events.EventType
	unsub := h.bus.Subscribe(func(e events.Event) {
		if e.Type == events.LevelRefreshed || e.Type == events.SettingChanged {
			return
		}
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})
	defer unsub()

	h.enable()
	h.do(h.c.Disable)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.EventType{events.IndicatorEnabled, events.IndicatorDisabled}, types)
}

func TestController_SettingChangedEvents(t *testing.T) {
	h := newHarness(t)
	h.enable()
	h.settle()

	var mu sync.Mutex
	var keys []string
	unsub := h.bus.Subscribe(func(e events.Event) {
		if e.Type != events.SettingChanged {
			return
		}
		var data map[string]string
		if json.Unmarshal(e.Data, &data) != nil || data["key"] != string(config.SettingPersist) {
			return
		}
		mu.Lock()
		keys = append(keys, data["key"]+"="+data["value"])
		mu.Unlock()
	})
	defer unsub()

	require.NoError(t, h.settings.SetBool(config.SettingPersist, true))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(keys) == 1
	}, waitFor, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"persist=true"}, keys)
}
