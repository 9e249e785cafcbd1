package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/leads"
	"github.com/five82/leaddeck/internal/query"
)

const prefetchLimit = 4

type leadsScreen struct{}

func (leadsScreen) Title() string { return "Leads" }

func (leadsScreen) Enter(m *Model) tea.Cmd {
	m.clampSelection()
	return nil
}

func (leadsScreen) Update(m *Model, msg tea.KeyMsg) tea.Cmd {
	rows := m.visibleLeads()
	switch {
	case key.Matches(msg, m.keys.Refetch):
		m.list.Refetch()
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.where.String())
		m.filterInput.CursorEnd()
		return m.filterInput.Focus()
	case key.Matches(msg, m.keys.Open):
		if len(rows) == 0 {
			return nil
		}
		return m.openLead(rows[m.selectedRow])
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(rows)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = maxInt(0, len(rows)-1)
	case key.Matches(msg, m.keys.PageDown, m.keys.HalfPageDown):
		m.selectedRow = minInt(maxInt(0, len(rows)-1), m.selectedRow+m.pageStep(msg))
	case key.Matches(msg, m.keys.PageUp, m.keys.HalfPageUp):
		m.selectedRow = maxInt(0, m.selectedRow-m.pageStep(msg))
	}
	return nil
}

func (leadsScreen) View(m *Model) string {
	styles := m.styles()
	res := m.list.Result()
	height := m.bodyHeight()

	var lines []string
	if res.IsError {
		msg := "Failed to load leads: " + res.Error.Error()
		if len(res.Data) > 0 {
			msg += " (showing last good data)"
		}
		lines = append(lines, styles.DangerText.Render(msg))
	}

	rows, err := m.filtered(res.Data)
	if err != nil {
		lines = append(lines, styles.WarningText.Render(err.Error()))
		rows = res.Data
	}

	switch {
	case len(res.Data) == 0 && (res.IsLoading || res.Status == query.StatusIdle):
		lines = append(lines, m.spinner.View()+" Loading leads...")
		return strings.Join(lines, "\n")
	case len(res.Data) == 0 && !res.IsError:
		lines = append(lines, styles.MutedText.Render("No leads."))
		return strings.Join(lines, "\n")
	case len(rows) == 0 && len(res.Data) > 0:
		lines = append(lines, styles.MutedText.Render("No leads match the filter."))
		return strings.Join(lines, "\n")
	}

	cols := leadColumns(m.width)
	lines = append(lines, styles.TableHeader.Render(formatRow(cols, headerCells(cols))))

	visible := maxInt(1, height-len(lines))
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := minInt(len(rows), start+visible)
	for i := start; i < end; i++ {
		lines = append(lines, m.renderLeadRow(cols, rows[i], i == m.selectedRow))
	}
	return strings.Join(lines, "\n")
}

type column struct {
	title string
	width int
	value func(crm.Lead) string
}

func leadColumns(width int) []column {
	const (
		idWidth     = 7
		phoneWidth  = 16
		statusWidth = 12
	)
	rest := maxInt(16, width-idWidth-phoneWidth-statusWidth-6)
	nameWidth := rest * 55 / 100
	emailWidth := rest - nameWidth
	return []column{
		{title: "ID", width: idWidth, value: func(l crm.Lead) string {
			if id := l.ID(); id != 0 {
				return strconv.FormatInt(id, 10)
			}
			return "-"
		}},
		{title: "Name", width: nameWidth, value: crm.Lead.Name},
		{title: "Email", width: emailWidth, value: crm.Lead.Email},
		{title: "Phone", width: phoneWidth, value: crm.Lead.Phone},
		{title: "Status", width: statusWidth, value: crm.Lead.Status},
	}
}

func headerCells(cols []column) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = c.title
	}
	return cells
}

func formatRow(cols []column, cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = padRight(truncate(cells[i], c.width), c.width)
	}
	return " " + strings.Join(parts, " ")
}

func (m *Model) renderLeadRow(cols []column, lead crm.Lead, selected bool) string {
	styles := m.styles()
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = c.value(lead)
	}
	if selected {
		return styles.Selected.Width(maxInt(0, m.width)).Render(formatRow(cols, cells))
	}
	// Color the status column only.
	last := len(cols) - 1
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color(styles.StatusColor(cells[last]))).
		Render(truncate(cells[last], cols[last].width))
	return formatRow(cols[:last], cells[:last]) + " " + status
}

// visibleLeads returns the current list with the filter applied.
func (m *Model) visibleLeads() []crm.Lead {
	rows, err := m.filtered(m.list.Result().Data)
	if err != nil {
		return m.list.Result().Data
	}
	return rows
}

func (m *Model) filtered(rows []crm.Lead) ([]crm.Lead, error) {
	if m.where == nil {
		return rows, nil
	}
	return m.where.Filter(rows)
}

func (m *Model) clampSelection() {
	n := len(m.visibleLeads())
	if m.selectedRow >= n {
		m.selectedRow = maxInt(0, n-1)
	}
}

func (m *Model) pageStep(msg tea.KeyMsg) int {
	step := maxInt(1, m.bodyHeight()-2)
	if key.Matches(msg, m.keys.HalfPageDown, m.keys.HalfPageUp) {
		step = maxInt(1, step/2)
	}
	return step
}

func (m *Model) openLead(lead crm.Lead) tea.Cmd {
	id := lead.ID()
	if id == 0 {
		m.setNotice("Lead has no id")
		return nil
	}
	m.details.SetID(id)
	return m.navigate(RouteLead)
}

// handleFilterKey edits the filter expression while the prompt is open.
func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.filtering = false
		m.filterInput.Blur()
		return nil
	case key.Matches(msg, m.keys.Confirm):
		p, err := leads.Where(m.filterInput.Value())
		if err != nil {
			m.setNotice(err.Error())
			return nil
		}
		m.where = p
		m.filtering = false
		m.filterInput.Blur()
		m.selectedRow = 0
		m.logger.Debug("lead filter applied", zap.String("where", p.String()))
		return nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return cmd
}

// prefetchCmd warms the details of the first leads so opening them is
// instant. Failures only reach the log.
func (m *Model) prefetchCmd(rows []crm.Lead, n int) tea.Cmd {
	if len(rows) == 0 || n <= 0 {
		return nil
	}
	ids := make([]int64, 0, n)
	for _, lead := range rows {
		if len(ids) == n {
			break
		}
		if id := lead.ID(); id != 0 {
			ids = append(ids, id)
		}
	}
	ctx, queries, api, logger := m.ctx, m.queries, m.api, m.logger
	return func() tea.Msg {
		if err := leads.Prefetch(ctx, queries, api, ids, prefetchLimit); err != nil {
			logger.Debug("lead prefetch failed", zap.Error(err))
		}
		return nil
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
