package tui

import "github.com/charmbracelet/lipgloss"

var (
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	bodyStyle      = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle  = lipgloss.NewStyle().BorderLeft(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("214"))
	speakingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	idleAudioStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	loadingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const (
	audioIdle     = "♪"
	audioSpeaking = "▶"
)
