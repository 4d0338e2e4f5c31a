package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thatjpcsguy/crossport/internal/display"
	"github.com/thatjpcsguy/crossport/internal/snapshot"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

// Options wires the view to the rest of the program
type Options struct {
	// Capture takes a fresh snapshot
	Capture func() (*snapshot.Snapshot, error)
	// Kill terminates pid and returns a one-line status
	Kill func(pid int) (string, error)
	// Refresh is the minimum time between automatic refreshes
	Refresh time.Duration
}

type tickMsg time.Time

type snapshotMsg struct {
	records []snapshot.ProcessRecord
	at      time.Time
}

type killedMsg struct {
	pid    int
	status string
	err    error
}

// rowKey identifies a row across refreshes
type rowKey struct {
	pid  int
	port uint16
}

type tuiModel struct {
	opts           Options
	table          table.Model
	records        []snapshot.ProcessRecord
	selected       int
	confirmingKill bool
	killPID        int
	lastRefresh    time.Time
	message        string
	err            error
	height         int
}

func newModel(opts Options) tuiModel {
	if opts.Refresh <= 0 {
		opts.Refresh = 2 * time.Second
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Port", Width: 6},
			{Title: "PID", Width: 8},
			{Title: "User", Width: 10},
			{Title: "Command", Width: 20},
			{Title: "Kind", Width: 8},
			{Title: "Project", Width: 24},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	return tuiModel{opts: opts, table: t}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.capture())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) capture() tea.Cmd {
	capture := m.opts.Capture
	return func() tea.Msg {
		snap, err := capture()
		if err != nil {
			return err
		}
		return snapshotMsg{records: snap.All(), at: snap.CapturedAt()}
	}
}

func (m tuiModel) kill(pid int) tea.Cmd {
	kill := m.opts.Kill
	return func() tea.Msg {
		status, err := kill(pid)
		return killedMsg{pid: pid, status: status, err: err}
	}
}

// due reports whether an automatic refresh may run at now
func (m tuiModel) due(now time.Time) bool {
	return m.lastRefresh.IsZero() || now.Sub(m.lastRefresh) >= m.opts.Refresh
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirmingKill {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "y", "Y":
				pid := m.killPID
				m.confirmingKill = false
				m.killPID = 0
				m.message = fmt.Sprintf("Terminating process %d...", pid)
				return m, m.kill(pid)
			case "n", "N", "esc":
				m.confirmingKill = false
				m.killPID = 0
				return m, nil
			}
			return m, nil
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "down", "j":
			m.move(1)
		case "up", "k":
			m.move(-1)
		case "home", "g":
			m.selected = 0
			m.syncTable()
		case "end", "G":
			m.selected = max(len(m.records)-1, 0)
			m.syncTable()
		case "r":
			return m, m.capture()
		case "x":
			if len(m.records) > 0 {
				m.confirmingKill = true
				m.killPID = m.records[m.selected].PID
			}
		}
		return m, nil
	case tickMsg:
		if m.due(time.Time(msg)) {
			return m, tea.Batch(tick(), m.capture())
		}
		return m, tick()
	case snapshotMsg:
		var prev *rowKey
		if m.selected < len(m.records) {
			rec := m.records[m.selected]
			prev = &rowKey{pid: rec.PID, port: rec.Port}
		}
		m.records = msg.records
		m.selected = reselect(m.records, prev, m.selected)
		m.lastRefresh = msg.at
		m.err = nil
		m.syncTable()
	case killedMsg:
		if msg.err != nil {
			m.message = msg.err.Error()
		} else {
			m.message = msg.status
		}
		return m, m.capture()
	case error:
		m.err = msg
	case tea.WindowSizeMsg:
		m.height = msg.Height
		if m.height > 10 {
			m.table.SetHeight(m.height - 10)
		}
	}

	return m, nil
}

// move steps the selection, wrapping at both ends
func (m *tuiModel) move(delta int) {
	n := len(m.records)
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
	m.syncTable()
}

// reselect finds where the previously selected row went after a refresh:
// the same pid and port, else the same pid, else the old index clamped.
func reselect(records []snapshot.ProcessRecord, prev *rowKey, prevIdx int) int {
	if len(records) == 0 {
		return 0
	}
	if prev != nil {
		pidMatch := -1
		for i, rec := range records {
			if rec.PID != prev.pid {
				continue
			}
			if rec.Port == prev.port {
				return i
			}
			if pidMatch < 0 {
				pidMatch = i
			}
		}
		if pidMatch >= 0 {
			return pidMatch
		}
	}
	return min(max(prevIdx, 0), len(records)-1)
}

func (m *tuiModel) syncTable() {
	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		rows = append(rows, table.Row{
			strconv.Itoa(int(rec.Port)),
			strconv.Itoa(rec.PID),
			display.Truncate(rec.User, 10),
			display.Truncate(rec.Command, 20),
			rec.Kind.String(),
			display.Truncate(display.Project(rec), 24),
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(m.selected)
}

func (m tuiModel) View() string {
	var b strings.Builder

	title := "crossport"
	if !m.lastRefresh.IsZero() {
		title += fmt.Sprintf(" (%d listeners, refreshed %s)", len(m.records), m.lastRefresh.Format("15:04:05"))
	}
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("57")).Bold(true).Render(title) + "\n\n")

	if len(m.records) == 0 && m.err == nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(" No listening ports") + "\n")
	} else {
		b.WriteString(baseStyle.Render(m.table.View()) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Render("Error: "+m.err.Error()) + "\n")
	}

	if m.message != "" {
		b.WriteString("\n" + lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1).
			Render(m.message) + "\n")
	}

	if m.confirmingKill {
		prompt := fmt.Sprintf(" Terminate PID %d? [y/n] ", m.killPID)
		b.WriteString("\n" + lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("160")).
			Bold(true).
			Padding(0, 1).
			Render(prompt) + "\n")
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	b.WriteString(helpStyle.Render("\n  q: quit • j/k: move • x: kill • r: refresh") + "\n")

	return b.String()
}

// Run starts the interactive view and blocks until the user quits
func Run(opts Options) error {
	p := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
