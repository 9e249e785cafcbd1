package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type helpScreen struct{}

func (helpScreen) Title() string { return "Help" }

func (helpScreen) Enter(m *Model) tea.Cmd { return nil }

// Update is not reached: any key closes help before screens see it.
func (helpScreen) Update(m *Model, msg tea.KeyMsg) tea.Cmd { return nil }

// View renders the help overlay.
func (helpScreen) View(m *Model) string {
	styles := m.styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	full := m.help
	full.ShowAll = true
	b.WriteString(full.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Press any key to close"))

	return styles.Panel.Render(b.String())
}
