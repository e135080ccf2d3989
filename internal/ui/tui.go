// ABOUTME: TUI initialization
// ABOUTME: Wraps the bubbletea program for the player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a TUI model. onQuit runs when the user quits.
func NewModel(onQuit func()) Model {
	return Model{onQuit: onQuit}
}

// NewProgram creates the full-screen program; opts are applied after the defaults
func NewProgram(model Model, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
