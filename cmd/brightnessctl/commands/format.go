package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jmylchreest/brightnessd/pkg/client"
)

// StatusTableData returns the table data for the indicator state
func StatusTableData(s client.Status) pterm.TableData {
	return pterm.TableData{
		[]string{pterm.Bold.Sprint("Brightness"), pterm.Bold.Sprint(formatLevel(s))},
		[]string{"Slider", fmt.Sprintf("%.2f", s.Slider)},
		[]string{"Dragging", fmt.Sprintf("%v", s.Dragging)},
		[]string{"Bar", levelBar(s, 20)},
	}
}

// StatusParseable returns the parseable key=value string for the indicator state
func StatusParseable(s client.Status) string {
	return fmt.Sprintf("level=%d known=%v slider=%.2f dragging=%v", s.Level, s.Known, s.Slider, s.Dragging)
}

func formatLevel(s client.Status) string {
	if !s.Known {
		return "unknown"
	}
	return fmt.Sprintf("%d%%", s.Level)
}

// levelBar draws the slider position as a bar of width cells
func levelBar(s client.Status, width int) string {
	filled := int(s.Slider*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("─", width-filled)
}
