// Package design holds the shared colors and styles of orgctl's terminal output.
package design

import (
	"github.com/charmbracelet/lipgloss"
)

// Color Palette - adaptive so output stays readable on light terminals.
var (
	ColorPrimary = lipgloss.AdaptiveColor{
		Light: "#5A56E0",
		Dark:  "#7571F9",
	}
	ColorSecondary = lipgloss.AdaptiveColor{
		Light: "#6B7280",
		Dark:  "#9CA3AF",
	}

	ColorSuccess = lipgloss.AdaptiveColor{
		Light: "#059669",
		Dark:  "#10B981",
	}
	ColorError = lipgloss.AdaptiveColor{
		Light: "#DC2626",
		Dark:  "#EF4444",
	}
	ColorWarning = lipgloss.AdaptiveColor{
		Light: "#D97706",
		Dark:  "#F59E0B",
	}
	ColorInfo = lipgloss.AdaptiveColor{
		Light: "#2563EB",
		Dark:  "#3B82F6",
	}

	ColorText = lipgloss.AdaptiveColor{
		Light: "#111827",
		Dark:  "#F9FAFB",
	}
	ColorTextSecondary = lipgloss.AdaptiveColor{
		Light: "#6B7280",
		Dark:  "#9CA3AF",
	}
	ColorBorder = lipgloss.AdaptiveColor{
		Light: "#E5E7EB",
		Dark:  "#404040",
	}
)

// Text styles
var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	TextSecondaryStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary)

	TextSuccessStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)

	TextErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	TextWarningStyle = lipgloss.NewStyle().
				Foreground(ColorWarning)

	TextInfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Bold(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Org type badges
var (
	ProductionStyle  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	SandboxStyle     = lipgloss.NewStyle().Foreground(ColorInfo)
	DevelopmentStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
)

// GetOrgTypeStyle returns the badge style for an org type name.
func GetOrgTypeStyle(orgType string) lipgloss.Style {
	switch orgType {
	case "Production":
		return ProductionStyle
	case "Sandbox":
		return SandboxStyle
	case "Development":
		return DevelopmentStyle
	default:
		return TextSecondaryStyle
	}
}

// GetStateStyle returns the style for a login state name.
func GetStateStyle(state string) lipgloss.Style {
	switch state {
	case "Succeeded":
		return TextSuccessStyle
	case "Failed":
		return TextErrorStyle
	case "TimedOut", "Validating", "Running":
		return TextWarningStyle
	case "Cancelled", "Idle":
		return TextSecondaryStyle
	default:
		return TextStyle
	}
}

// Initialize sets up the design system
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}
