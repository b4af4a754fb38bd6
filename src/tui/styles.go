package tui

import (
	"github.com/charmbracelet/lipgloss"

	"jenkins-notify-bot/src/contracts"
)

// StyleConfig holds all customizable style colors for the status board.
type StyleConfig struct {
	PrimaryBlue    lipgloss.Color
	DarkBackground lipgloss.Color
	CardBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Failure lipgloss.Color
	Warning lipgloss.Color
	Neutral lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		CardBackground: lipgloss.Color("#2D2D2D"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		Success:        lipgloss.Color("#34A853"),
		Failure:        lipgloss.Color("#EA4335"),
		Warning:        lipgloss.Color("#FBBC04"),
		Neutral:        lipgloss.Color("#9AA0A6"),
	}
}

// StatusColor picks the color used for a build result.
func (s *StyleConfig) StatusColor(r contracts.BuildResult) lipgloss.Color {
	switch r {
	case contracts.ResultSuccess:
		return s.Success
	case contracts.ResultFailure:
		return s.Failure
	case contracts.ResultUnstable:
		return s.Warning
	default:
		return s.Neutral
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// ListStyle returns a list container lipgloss style using this config
func (s *StyleConfig) ListStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}
