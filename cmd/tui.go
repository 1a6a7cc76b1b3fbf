// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/unitelway/pkg/unitelway"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *unitelway.Statistics
	stations      *unitelway.StationTable
	stationTable  table.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	invalidBytes  int
	width         int
	height        int
	quitting      bool
}

// Messages
type tickMsg time.Time
type busDataMsg busResult
type syncMsg struct {
	invalidBytes int
}

var stationColumns = []table.Column{
	{Title: "Addr", Width: 5},
	{Title: "Polls", Width: 9},
	{Title: "Frames", Width: 9},
	{Title: "Acks", Width: 9},
	{Title: "Code", Width: 6},
	{Title: "Talks", Width: 6},
	{Title: "Last seen", Width: 13},
}

func newStationTable() table.Model {
	t := table.New(
		table.WithColumns(stationColumns),
		table.WithHeight(8),
		table.WithFocused(false),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.NoColor{}).
		Bold(false)
	t.SetStyles(s)
	return t
}

// stationRows renders the station table contents.
func stationRows(stations *unitelway.StationTable) []table.Row {
	infos := stations.Stations()
	rows := make([]table.Row, 0, len(infos))
	for _, info := range infos {
		code := "-"
		if info.HasCode {
			code = fmt.Sprintf("0x%02X", info.LastCode)
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", info.Station),
			fmt.Sprintf("%d", info.Polls),
			fmt.Sprintf("%d", info.Frames),
			fmt.Sprintf("%d", info.Acks),
			code,
			yesNo(info.Answering()),
			info.LastSeen.Format("15:04:05.000"),
		})
	}
	return rows
}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         unitelway.NewStatistics(),
		stations:      unitelway.NewStationTable(),
		stationTable:  newStationTable(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		m.stationTable.SetRows(stationRows(m.stations))
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.invalidBytes = msg.invalidBytes
		if msg.invalidBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid frames", msg.invalidBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case busDataMsg:
		m.stats.Update(msg.event, msg.err)
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.err), true)
			return m, nil
		}

		ev := msg.event
		m.stations.Update(ev)
		if problem := frameProblem(ev); problem != "" {
			m.addLogEntry(fmt.Sprintf("station %d: %s", ev.Station(), problem), true)
		} else if m.showAll && ev.Kind() != unitelway.EventPoll {
			m.addLogEntry(eventSummary(ev), false)
		}
	}

	return m, nil
}

// eventSummary is the one-line form of an event for the log.
func eventSummary(ev *unitelway.Event) string {
	switch ev.Kind() {
	case unitelway.EventFrame:
		if code, ok := ev.Code(); ok {
			return fmt.Sprintf("FRAME station=%d code=0x%02X", ev.Station(), code)
		}
		return fmt.Sprintf("FRAME station=%d", ev.Station())
	case unitelway.EventAck:
		return fmt.Sprintf("ACK station=%d", ev.Station())
	}
	return ev.Kind().String()
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("UNITELWAY - BUS MONITOR"))
	s.WriteString("\n")
	mode := "Errors only"
	if m.showAll {
		mode = "All frames"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit", m.connInfo, mode)))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.invalidBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid frames)", m.invalidBytes)))
		}
	}
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	var errorPercent float64
	if st.TotalEvents > 0 {
		errorPercent = float64(st.Errors()) * 100.0 / float64(st.TotalEvents)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Events:"), statsValueStyle.Render(fmt.Sprintf("%d", st.TotalEvents)),
		statsLabelStyle.Render("Polls:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Polls)),
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Frames)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", st.Errors(), errorPercent)),
	))

	if st.ChecksumErrors > 0 || st.DecodeErrors > 0 || st.Naks > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("BCC Errors:"), errorStyle.Render(fmt.Sprintf("%d", st.ChecksumErrors)),
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", st.DecodeErrors)),
			statsLabelStyle.Render("NAKs:"), errorStyle.Render(fmt.Sprintf("%d", st.Naks)),
		))
	}

	if st.RefusedRoutes > 0 || st.FailedRequests > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Refused:"), warningStyle.Render(fmt.Sprintf("%d", st.RefusedRoutes)),
			statsLabelStyle.Render("Failed requests:"), warningStyle.Render(fmt.Sprintf("%d", st.FailedRequests)),
		))
	}

	errorRate := statsValueStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	if st.ErrorRate > 0 {
		errorRate = errorStyle.Render(fmt.Sprintf("%.1f err/s", st.ErrorRate))
	}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Event Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f ev/s", st.EventRate)),
		statsLabelStyle.Render("Error Rate:"), errorRate,
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Stations
	s.WriteString(statsLabelStyle.Render(fmt.Sprintf("Stations (%d):", m.stations.Len())))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.stationTable.View()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 26 // header, stats and station table
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
