package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Color palette
	colorPrimary = lipgloss.Color("#6BCF7F") // Lime green
	colorVehicle = lipgloss.Color("#FF6B6B") // Red, matches the vehicle pins
	colorPort    = lipgloss.Color("#4A90E2") // Blue, matches the port pins
	colorWarning = lipgloss.Color("#FFD93D")
	colorMuted   = lipgloss.Color("#6C757D")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorVehicle).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	vehicleStyle = lipgloss.NewStyle().
			Foreground(colorVehicle).
			Bold(true)

	portStyle = lipgloss.NewStyle().
			Foreground(colorPort)

	linkStyle = lipgloss.NewStyle().
			Underline(true)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Width(48)

	sectionBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPort).
			Padding(1, 2).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
