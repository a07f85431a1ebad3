package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
)

// Adaptive colors for light and dark terminals. Light mode values are the
// darker variants so they stay readable on white backgrounds.
var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HeaderItemStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			PaddingLeft(SpaceXS)
)

// StateColor returns the accent color for a checkbox state.
func StateColor(s model.VisualState) lipgloss.AdaptiveColor {
	switch s {
	case model.StateInProgress:
		return ColorInfo
	case model.StateChecked:
		return ColorSuccess
	case model.StateQuestion:
		return ColorWarning
	case model.StateExclamation:
		return ColorDanger
	default:
		return ColorSubtext
	}
}

// StateBadge renders the state glyph in its accent color.
func StateBadge(s model.VisualState) string {
	return lipgloss.NewStyle().Foreground(StateColor(s)).Render(s.Symbol())
}
