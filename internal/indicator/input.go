package indicator

import (
	"strings"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// Direction is a scroll direction reported by the panel.
type Direction int

const (
	ScrollUp Direction = iota
	ScrollDown
	ScrollLeft
	ScrollRight
	ScrollSmooth
)

var directionNames = map[Direction]string{
	ScrollUp:     "up",
	ScrollDown:   "down",
	ScrollLeft:   "left",
	ScrollRight:  "right",
	ScrollSmooth: "smooth",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "unknown"
}

// ParseDirection parses "up", "down", "left", "right" or "smooth".
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, errors.InvalidInputf("scroll direction %q", s)
}

// MenuItemKind is the type of a menu entry.
type MenuItemKind int

const (
	MenuLabel MenuItemKind = iota
	MenuSlider
	MenuSeparator
	MenuAction
)

// MenuItem is one entry of the widget's menu. Activate is nil for entries
// that can't be activated.
type MenuItem struct {
	Kind     MenuItemKind
	Label    string
	Activate func() error
}

// Menu returns the widget's menu: a label, the slider, a separator and the
// two settings launchers.
func (w *Widget) Menu() []MenuItem {
	items := []MenuItem{
		{Kind: MenuLabel, Label: "Brightness"},
		{Kind: MenuSlider},
		{Kind: MenuSeparator},
		{Kind: MenuAction, Label: "Power Settings"},
		{Kind: MenuAction, Label: "Indicator Settings"},
	}
	if w.launcher != nil {
		launcher := w.launcher
		path := w.settings.Path()
		items[3].Activate = launcher.OpenPowerSettings
		items[4].Activate = func() error { return launcher.OpenPreferences(path) }
	}
	return items
}

// Panel hosts widgets in the status area.
type Panel interface {
	Attach(name string, w *Widget, position int) error
	Detach(name string)
}
