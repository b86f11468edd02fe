// Package tui draws the chat client in the terminal.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary  = lipgloss.Color("#059669")
	colorAccent   = lipgloss.Color("#A7F3D0")
	colorBorder   = lipgloss.Color("#D1D5DB")
	colorText     = lipgloss.Color("#1F2937")
	colorTextDim  = lipgloss.Color("#6B7280")
	colorError    = lipgloss.Color("#B91C1C")
	colorErrorBg  = lipgloss.Color("#FEE2E2")
	colorUserText = lipgloss.Color("#FFFFFF")
)

var (
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Background(colorAccent).
			Padding(0, 1)

	appTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)

	linkStyle = lipgloss.NewStyle().Foreground(colorTextDim).Underline(true)

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorBorder).
			Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	selectedLangStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorUserText).
				Background(colorPrimary).
				Padding(0, 1)

	langStyle = lipgloss.NewStyle().Foreground(colorTextDim).Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorUserText).
			Background(colorPrimary).
			Padding(0, 2)

	buttonBusyStyle = buttonStyle.Background(colorTextDim)

	noteStyle = lipgloss.NewStyle().Foreground(colorTextDim).Italic(true)

	chatHeaderSubStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	userBubbleStyle = lipgloss.NewStyle().
			Foreground(colorUserText).
			Background(colorPrimary).
			Padding(0, 1)

	assistantBubbleStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)

	thinkingStyle = lipgloss.NewStyle().Foreground(colorTextDim).Italic(true)

	welcomeStyle = lipgloss.NewStyle().Foreground(colorTextDim).Align(lipgloss.Center)

	inputPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(colorBorder)

	alertStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError).
			Background(colorErrorBg).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	footerStyle = lipgloss.NewStyle().Foreground(colorTextDim).Align(lipgloss.Center)
)
