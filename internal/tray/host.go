package tray

import "fyne.io/systray"

// host is the subset of the systray API the tray drives.
type host interface {
	SetIcon(icon []byte)
	SetTitle(title string)
	SetTooltip(tooltip string)
	SetOnTapped(fn func())
	AddMenuItem(title, tooltip string) menuItem
	AddSeparator()
	ResetMenu()
	Quit()
}

type menuItem interface {
	SetTitle(title string)
	Disable()
	Clicked() <-chan struct{}
}

// systrayHost forwards to the fyne.io/systray package.
type systrayHost struct{}

func (systrayHost) SetIcon(icon []byte)       { systray.SetIcon(icon) }
func (systrayHost) SetTitle(title string)     { systray.SetTitle(title) }
func (systrayHost) SetTooltip(tooltip string) { systray.SetTooltip(tooltip) }
func (systrayHost) SetOnTapped(fn func())     { systray.SetOnTapped(fn) }
func (systrayHost) AddSeparator()             { systray.AddSeparator() }
func (systrayHost) ResetMenu()                { systray.ResetMenu() }
func (systrayHost) Quit()                     { systray.Quit() }

func (systrayHost) AddMenuItem(title, tooltip string) menuItem {
	return systrayItem{systray.AddMenuItem(title, tooltip)}
}

type systrayItem struct {
	*systray.MenuItem
}

func (i systrayItem) Clicked() <-chan struct{} {
	return i.ClickedCh
}
