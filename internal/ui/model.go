// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Holds now-playing info and counters and renders the status box
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/ringplay/internal/version"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Now playing
	file    string
	codec   string
	decoded string

	// Device
	backend string
	device  string
	config  string

	// Queue
	queued   int
	capacity int

	// Stats
	played       int64
	underruns    int64
	dropped      int64
	discarded    int64
	deviceErrors int64
	elapsed      time.Duration

	// Spectrum
	bands     [NumBands]float64
	haveBands bool

	// Finish
	done bool
	err  error

	onQuit func()

	width  int
	height int
}

// StartMsg announces the file and device once playback begins
type StartMsg struct {
	File    string
	Codec   string
	Decoded string
	Backend string
	Device  string
	Config  string
}

// StatsMsg carries periodic counters; Bands is nil when no spectrum is available
type StatsMsg struct {
	Queued       int
	Capacity     int
	Played       int64
	Underruns    int64
	Dropped      int64
	Discarded    int64
	DeviceErrors int64
	Elapsed      time.Duration
	Bands        *[NumBands]float64
}

// DoneMsg ends the program when playback finishes
type DoneMsg struct {
	Err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StartMsg:
		m.applyStart(msg)
	case StatsMsg:
		m.applyStats(msg)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderNowPlaying())
	b.WriteString(m.renderQueue())
	b.WriteString(m.renderSpectrum())
	b.WriteString(m.renderStats())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	return fmt.Sprintf("┌─ %s ─────────────────────────────────────────┐\n",
		titleStyle.Render(fmt.Sprintf("%-16s", version.String())))
}

func (m Model) renderNowPlaying() string {
	if m.file == "" {
		return "│ Opening...                                           │\n"
	}

	s := fmt.Sprintf("│ File:   %-44s │\n", truncate(m.file, 44))
	s += fmt.Sprintf("│ Codec:  %-44s │\n", truncate(fmt.Sprintf("%s (%s)", m.codec, m.decoded), 44))
	s += fmt.Sprintf("│ Device: %-44s │\n", truncate(fmt.Sprintf("%s/%s", m.backend, m.device), 44))
	s += fmt.Sprintf("│ Output: %-44s │\n", truncate(m.config, 44))
	return s
}

func (m Model) renderQueue() string {
	return fmt.Sprintf("├──────────────────────────────────────────────────────┤\n"+
		"│ Queue:  [%s] %5d/%-5d%-15s │\n"+
		"│ Time:   %-44s │\n",
		renderBar(m.queued, m.capacity, 20), m.queued, m.capacity, "",
		formatDuration(m.elapsed))
}

func (m Model) renderSpectrum() string {
	if !m.haveBands {
		return ""
	}
	return fmt.Sprintf("│ %s │\n", RenderBands(m.bands, 52))
}

func (m Model) renderStats() string {
	s := fmt.Sprintf("├──────────────────────────────────────────────────────┤\n"+
		"│ Played: %-10d Underruns: %-6d Dropped: %-6d │\n",
		m.played, m.underruns, m.dropped)
	if m.discarded > 0 || m.deviceErrors > 0 {
		s += fmt.Sprintf("│ %-52s │\n",
			dimStyle.Render(fmt.Sprintf("Skipped packets: %d  Device errors: %d", m.discarded, m.deviceErrors)))
	}
	if m.err != nil {
		s += fmt.Sprintf("│ %s │\n", errStyle.Render(fmt.Sprintf("%-52s", truncate(m.err.Error(), 52))))
	}
	return s
}

func (m Model) renderHelp() string {
	return `│ q:Quit                                               │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) applyStart(msg StartMsg) {
	m.file = msg.File
	m.codec = msg.Codec
	m.decoded = msg.Decoded
	m.backend = msg.Backend
	m.device = msg.Device
	m.config = msg.Config
}

func (m *Model) applyStats(msg StatsMsg) {
	m.queued = msg.Queued
	m.capacity = msg.Capacity
	m.played = msg.Played
	m.underruns = msg.Underruns
	m.dropped = msg.Dropped
	m.discarded = msg.Discarded
	m.deviceErrors = msg.DeviceErrors
	m.elapsed = msg.Elapsed
	if msg.Bands != nil {
		m.bands = *msg.Bands
		m.haveBands = true
	}
}

func renderBar(value, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, max(0, value*width/total))
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
