package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/leaddeck/internal/logtail"
)

type logsScreen struct{}

func (logsScreen) Title() string { return "Log" }

func (logsScreen) Enter(m *Model) tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	return tea.Batch(readLogCmd(m.logPath), logTickCmd())
}

func (logsScreen) Update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Refetch):
		if m.logPath != "" {
			return readLogCmd(m.logPath)
		}
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logFollow = !m.logFollow
		if m.logFollow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logFollow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.logFollow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.logFollow = false
		m.logViewport.PageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logFollow = false
		m.logViewport.HalfPageUp()
	}
	return nil
}

func (logsScreen) View(m *Model) string {
	return m.logViewport.View()
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logViewport.SetContent(m.renderLogLines())
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) renderLogLines() string {
	styles := m.styles()
	switch {
	case m.logPath == "":
		return styles.MutedText.Render("Logging is disabled.")
	case m.logErr != nil:
		return styles.DangerText.Render("Failed to read log: " + m.logErr.Error())
	case len(m.logLines) == 0:
		return styles.MutedText.Render("No log entries yet.")
	}

	out := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		entry, ok := logtail.Parse(line)
		if !ok {
			out = append(out, styles.Text.Render(line))
			continue
		}
		var b strings.Builder
		if !entry.Time.IsZero() {
			b.WriteString(styles.FaintText.Render(entry.Time.Local().Format("15:04:05")))
			b.WriteByte(' ')
		}
		b.WriteString(styles.LevelStyle(entry.Level).Render(padRight(entry.Level, 5)))
		b.WriteByte(' ')
		b.WriteString(styles.Text.Render(entry.Message))
		for _, f := range entry.Fields {
			b.WriteByte(' ')
			b.WriteString(styles.AccentText.Render(f.Key + "="))
			b.WriteString(styles.MutedText.Render(f.Value))
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}
