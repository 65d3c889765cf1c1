package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// logsModel displays the log lines captured by the hook.
type logsModel struct {
	hook       *LogHook
	viewport   viewport.Model
	lines      []string
	maxLines   int
	autoScroll bool
	width      int
	height     int
	ready      bool
	filter     string // "", "info", "warn", "error"
}

type logLineMsg string

func newLogsModel(hook *LogHook) logsModel {
	return logsModel{
		hook:       hook,
		maxLines:   5000,
		autoScroll: true,
	}
}

func (m logsModel) Init() tea.Cmd {
	if m.hook == nil {
		return nil
	}
	return m.waitForLog
}

func (m logsModel) waitForLog() tea.Msg {
	if m.hook == nil {
		return nil
	}
	line, ok := <-m.hook.Chan()
	if !ok {
		return nil
	}
	return logLineMsg(line)
}

func (m logsModel) Update(msg tea.Msg) (logsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case localeChangedMsg:
		m.refresh()
		return m, nil
	case logLineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > m.maxLines {
			m.lines = m.lines[len(m.lines)-m.maxLines:]
		}
		m.refresh()
		return m, m.waitForLog

	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			m.autoScroll = !m.autoScroll
			m.refresh()
			return m, nil
		case "c":
			m.lines = nil
			m.refresh()
			return m, nil
		case "1", "2", "3", "4":
			m.filter = [...]string{"", "info", "warn", "error"}[msg.String()[0]-'1']
			m.refresh()
			return m, nil
		default:
			wasAtBottom := m.viewport.AtBottom()
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			if !m.viewport.AtBottom() && wasAtBottom {
				m.autoScroll = false
			}
			if m.viewport.AtBottom() {
				m.autoScroll = true
			}
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *logsModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderLogs())
	if m.autoScroll {
		m.viewport.GotoBottom()
	}
}

func (m *logsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.refresh()
}

func (m logsModel) View() string {
	if !m.ready {
		return T("loading")
	}
	return m.viewport.View()
}

func (m logsModel) renderLogs() string {
	var sb strings.Builder

	scrollStatus := successStyle.Render(T("logs_auto_scroll"))
	if !m.autoScroll {
		scrollStatus = warningStyle.Render(T("logs_paused"))
	}
	filterLabel := "ALL"
	if m.filter != "" {
		filterLabel = strings.ToUpper(m.filter) + "+"
	}

	header := fmt.Sprintf(" %s  %s  %s: %s  %s: %d",
		T("logs_title"), scrollStatus, T("logs_filter"), filterLabel, T("logs_lines"), len(m.lines))
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render(T("logs_help")))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	if len(m.lines) == 0 {
		sb.WriteString(subtitleStyle.Render(T("logs_waiting")))
		return sb.String()
	}

	for _, line := range m.lines {
		level := lineLevel(line)
		if !levelAtLeast(level, m.filter) {
			continue
		}
		if level == "" {
			sb.WriteString(line)
		} else {
			sb.WriteString(logLevelStyle(level).Render(line))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3, "fatal": 4, "panic": 5}

// lineLevel extracts the level from a line written by the log formatter, e.g.
// "[2024-01-01 10:00:00] [--------] [warn ] ...".
func lineLevel(line string) string {
	for level := range levelRank {
		if strings.Contains(line, fmt.Sprintf("[%-5s]", level)) {
			return level
		}
	}
	return ""
}

// levelAtLeast reports whether level passes the minimum filter. Lines without a level
// only pass the empty filter.
func levelAtLeast(level, minimum string) bool {
	if minimum == "" {
		return true
	}
	rank, ok := levelRank[level]
	return ok && rank >= levelRank[minimum]
}
