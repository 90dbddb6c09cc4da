package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).MarginLeft(2)
	HelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	blurredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	gameInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("140")).MarginTop(1)
)

// Card styles
var (
	cardStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1).
			Margin(0, 1).
			Border(lipgloss.RoundedBorder())

	redCardStyle = cardStyle.
			Foreground(lipgloss.Color("196"))

	hiddenCardStyle = cardStyle.
			Background(lipgloss.Color("17")).
			Foreground(lipgloss.Color("39"))
)

// Player styles
var (
	playerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	currentPlayerStyle = playerBoxStyle.
				Border(lipgloss.ThickBorder()).
				BorderForeground(lipgloss.Color("46"))

	yourPlayerStyle = playerBoxStyle.
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("39"))

	sittingOutStyle = playerBoxStyle.
			BorderForeground(lipgloss.Color("241")).
			Foreground(lipgloss.Color("241"))
)

var (
	potStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Padding(0, 2).
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("46")).
			Align(lipgloss.Center).
			Bold(true)

	tableStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("28")).
			Padding(1, 2).
			Margin(1)
)
