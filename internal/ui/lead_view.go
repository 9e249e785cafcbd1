package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/leads"
)

type leadScreen struct{}

func (leadScreen) Title() string { return "Lead" }

func (leadScreen) Enter(m *Model) tea.Cmd {
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
	return nil
}

func (leadScreen) Update(m *Model, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Refetch):
		m.details.Refetch()
		return nil
	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.detailViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detailViewport.GotoBottom()
	case key.Matches(msg, m.keys.PageDown):
		m.detailViewport.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.detailViewport.PageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
	}
	return nil
}

func (leadScreen) View(m *Model) string {
	return m.detailViewport.View()
}

// updateDetailViewport re-renders the lead details for the current theme and
// width.
func (m *Model) updateDetailViewport() {
	if !m.ready {
		return
	}
	m.detailViewport.SetContent(m.renderLead())
}

func (m *Model) renderLead() string {
	styles := m.styles()
	res := m.details.Result()
	id := m.details.ID()

	var b strings.Builder
	heading := fmt.Sprintf("Lead %d", id)
	if res.Data != nil {
		heading = leads.Title(*res.Data)
	}
	b.WriteString(styles.AccentText.Bold(true).Render(heading))
	b.WriteString("\n")

	switch {
	case id == 0:
		b.WriteString(styles.MutedText.Render("No lead selected."))
		return b.String()
	case res.IsLoading:
		b.WriteString(m.spinner.View() + " Loading lead...")
		b.WriteString("\n")
	case res.IsError:
		b.WriteString(styles.DangerText.Render("Failed to load lead: " + res.Error.Error()))
		b.WriteString("\n")
	case !res.UpdatedAt.IsZero():
		b.WriteString(styles.MutedText.Render("updated " + ago(m.now().Sub(res.UpdatedAt))))
		b.WriteString("\n")
	}

	if res.Data == nil {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(m.renderLeadBody(*res.Data))
	return b.String()
}

// renderLeadBody uses glamour and falls back to a plain field list.
func (m *Model) renderLeadBody(lead crm.Lead) string {
	width := maxInt(20, m.width-2)
	out, err := leads.RenderMarkdown(lead, width, m.look.current().Dark)
	if err == nil {
		return out
	}
	m.logger.Debug("markdown render failed", zap.Error(err))

	styles := m.styles()
	cols := leads.Columns([]crm.Lead{lead})
	labelWidth := 0
	for _, name := range cols {
		labelWidth = maxInt(labelWidth, len(titleCase(name)))
	}
	var b strings.Builder
	for _, name := range cols {
		label := styles.MutedText.Render(padRight(titleCase(name), labelWidth))
		fmt.Fprintf(&b, "%s  %s\n", label, styles.Text.Render(lead.String(name)))
	}
	return b.String()
}
