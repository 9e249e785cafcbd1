package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/leaddeck/internal/logtail"
	"github.com/five82/leaddeck/internal/query"
)

const (
	sourceLeads = "leads"
	sourceLead  = "lead"

	logTailLines   = 400
	logRefreshTick = 2 * time.Second
)

// stateMsg carries a query state change into the program.
type stateMsg struct {
	source string
	state  query.State
}

type logTailMsg struct {
	lines []string
	err   error
}

type logTickMsg time.Time

// waitForChange blocks on a subscription's Changes channel. It is re-armed
// after every stateMsg and ends quietly once the subscription is closed.
func waitForChange(source string, ch <-chan query.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{source: source, state: st}
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logTailMsg{lines: lines, err: err}
	}
}

func logTickCmd() tea.Cmd {
	return tea.Tick(logRefreshTick, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}
