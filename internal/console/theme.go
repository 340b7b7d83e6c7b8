package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

// Mark is how one Zephyr result is drawn in the summary.
type Mark struct {
	Icon  string
	Style lipgloss.Style
}

// Theme holds the styles of console output.
type Theme struct {
	Accent lipgloss.Style // totals line and spinner
	Key    lipgloss.Style // test case keys
	Muted  lipgloss.Style // notices and result names
	Bullet string

	Results map[status.Result]Mark
	// Other marks a result missing from Results.
	Other Mark
}

// Mark returns the mark for r.
func (t Theme) Mark(r status.Result) Mark {
	if m, ok := t.Results[r]; ok {
		return m
	}
	return t.Other
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// DefaultTheme colors results the way Zephyr Scale does: green, red, orange, gray.
func DefaultTheme() Theme {
	muted := fg("242")
	return Theme{
		Accent: fg("39"),
		Key:    lipgloss.NewStyle().Bold(true),
		Muted:  muted,
		Bullet: "·",
		Results: map[status.Result]Mark{
			status.ResultPassed:      {Icon: "✓", Style: fg("34")},
			status.ResultFailed:      {Icon: "✗", Style: fg("196")},
			status.ResultBlocked:     {Icon: "⚠", Style: fg("214")},
			status.ResultNotExecuted: {Icon: "○", Style: muted},
		},
		Other: Mark{Icon: "●", Style: muted},
	}
}

// MonoTheme draws plain ASCII without colors.
func MonoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Accent: plain,
		Key:    plain,
		Muted:  plain,
		Bullet: "-",
		Results: map[status.Result]Mark{
			status.ResultPassed:      {Icon: "+", Style: plain},
			status.ResultFailed:      {Icon: "x", Style: plain},
			status.ResultBlocked:     {Icon: "!", Style: plain},
			status.ResultNotExecuted: {Icon: "o", Style: plain},
		},
		Other: Mark{Icon: "*", Style: plain},
	}
}
