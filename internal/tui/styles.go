package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

// One Dark Pro color palette
var (
	// Foreground colors
	ColorFgPrimary   = lipgloss.Color("#ABB2BF")
	ColorFgSecondary = lipgloss.Color("#828997")
	ColorFgMuted     = lipgloss.Color("#636B78")
	ColorFgComment   = lipgloss.Color("#5C6370")

	// Syntax colors
	ColorRed     = lipgloss.Color("#E06C75")
	ColorGreen   = lipgloss.Color("#98C379")
	ColorYellow  = lipgloss.Color("#E5C07B")
	ColorBlue    = lipgloss.Color("#61AFEF")
	ColorMagenta = lipgloss.Color("#C678DD")
	ColorCyan    = lipgloss.Color("#56B6C2")

	// UI colors
	ColorBorder = lipgloss.Color("#3F4451")
)

// Component styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			PaddingLeft(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	// Main panel around the tool
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(ColorMagenta).
			Bold(true)

	// Stage line
	StageScanningStyle = lipgloss.NewStyle().
				Foreground(ColorBlue).
				Bold(true)

	StageFixingStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	StatusIdleStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	// Issue list
	IssueOpenStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	IssueFixedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	// Status bar styles
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted).
			PaddingLeft(1).
			PaddingRight(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	// Dimmed/info style for less important messages
	DimStyle = lipgloss.NewStyle().
			Foreground(ColorFgComment)
)

// SeverityStyle returns the badge style for a scan finding's severity.
func SeverityStyle(severity string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch severity {
	case vulnscan.SeverityCritical:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(ColorRed)
	case vulnscan.SeverityHigh:
		return base.Foreground(lipgloss.Color("#000000")).Background(ColorMagenta)
	case vulnscan.SeverityMedium:
		return base.Foreground(lipgloss.Color("#000000")).Background(ColorYellow)
	case vulnscan.SeverityLow:
		return base.Foreground(lipgloss.Color("#000000")).Background(ColorGreen)
	default:
		return base.Foreground(ColorFgMuted)
	}
}
