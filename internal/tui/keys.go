package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Preset  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Preset},
		{k.Refresh, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("right", "l", "up", "k", "+"),
		key.WithHelp("→/l", "brighter"),
	),
	Down: key.NewBinding(
		key.WithKeys("left", "h", "down", "j", "-"),
		key.WithHelp("←/h", "dimmer"),
	),
	Preset: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9,0", "10%-90%, 100%"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// levelFromKey maps a digit to a preset level: 1-9 are 10%-90%, 0 is 100%.
func levelFromKey(k string) int {
	if len(k) != 1 || k[0] < '0' || k[0] > '9' {
		return -1
	}
	if k == "0" {
		return 100
	}
	return int(k[0]-'0') * 10
}
