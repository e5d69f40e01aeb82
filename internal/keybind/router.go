// Package keybind maps the global brightness key actions to handlers and
// registers them with a keybinding registry.
package keybind

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// Action identifies a global key action.
type Action string

const (
	IncreaseBrightness Action = "increase-brightness"
	DecreaseBrightness Action = "decrease-brightness"
)

// aliases are the historical key names still accepted on input.
var aliases = map[string]Action{
	"increasedisplaybrightness": IncreaseBrightness,
	"decreasedisplaybrightness": DecreaseBrightness,
}

// Actions returns every known action in a stable order.
func Actions() []Action {
	return []Action{IncreaseBrightness, DecreaseBrightness}
}

// ParseAction resolves a name or alias to an Action.
func ParseAction(name string) (Action, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, a := range Actions() {
		if string(a) == n {
			return a, nil
		}
	}
	if a, ok := aliases[n]; ok {
		return a, nil
	}
	return "", errors.UnknownActionf("%q", name)
}

// Canonical returns the action name for name, or name unchanged if it is
// not a key action.
func Canonical(name string) string {
	if a, err := ParseAction(name); err == nil {
		return string(a)
	}
	return name
}

// Registry is the global keybinding facility.
type Registry interface {
	Register(name string, fn func()) error
	Unregister(name string)
}

// Router is a validated action table.
type Router struct {
	handlers map[Action]func()
	logger   *slog.Logger
}

// NewRouter requires exactly one non-nil handler for every action and no
// handler for anything else.
func NewRouter(handlers map[Action]func(), logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}

	known := make(map[Action]bool, len(Actions()))
	for _, a := range Actions() {
		known[a] = true
	}

	var unknown []string
	for a := range handlers {
		if !known[a] {
			unknown = append(unknown, string(a))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.UnknownActionf("%s", strings.Join(unknown, ", "))
	}

	table := make(map[Action]func(), len(handlers))
	for _, a := range Actions() {
		fn, ok := handlers[a]
		if !ok || fn == nil {
			return nil, errors.InvalidInputf("no handler for action %q", a)
		}
		table[a] = fn
	}

	return &Router{handlers: table, logger: logger}, nil
}

// Register adds every action to reg. If one fails, those already added are
// removed again.
func (r *Router) Register(reg Registry) error {
	var done []Action
	for _, a := range Actions() {
		if err := reg.Register(string(a), r.handlers[a]); err != nil {
			for _, d := range done {
				reg.Unregister(string(d))
			}
			return fmt.Errorf("register %s: %w", a, err)
		}
		done = append(done, a)
	}
	r.logger.Debug("Registered key actions", "count", len(done))
	return nil
}

// Unregister removes every action from reg.
func (r *Router) Unregister(reg Registry) {
	for _, a := range Actions() {
		reg.Unregister(string(a))
	}
	r.logger.Debug("Unregistered key actions")
}
