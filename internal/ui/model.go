package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/leads"
	"github.com/five82/leaddeck/internal/prefs"
	"github.com/five82/leaddeck/internal/query"
)

// Options configures the UI.
type Options struct {
	Context context.Context
	Queries *query.Client
	API     crm.LeadFetcher
	Filter  crm.Filter
	Theme   *prefs.ThemeStore
	LogPath string
	Where   string // initial lead filter expression
	Logger  *zap.Logger
}

// prefetchCount is how many leads at the top of the list get their details
// warmed after each successful list fetch.
const prefetchCount = 5

// look holds the active theme. The ThemeStore drives it through SetDark.
type look struct {
	mu    sync.Mutex
	theme Theme
}

func (l *look) SetDark(dark bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = ThemeFor(dark)
}

func (l *look) current() Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	queries     *query.Client
	ownsQueries bool
	api         crm.LeadFetcher
	themes      *prefs.ThemeStore
	logPath     string
	logger      *zap.Logger

	// UI state
	look     *look
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	routes   *router
	width    int
	height   int
	ready    bool
	notice   string
	noticeAt time.Time
	now      func() time.Time

	// Queries
	list    *query.Query[[]crm.Lead]
	details *leads.DetailsQuery

	// Leads state
	selectedRow int
	where       *leads.Predicate
	filterInput textinput.Model
	filtering   bool

	// Lead state
	detailViewport viewport.Model

	// Log state
	logViewport viewport.Model
	logLines    []string
	logErr      error
	logFollow   bool
}

// New creates a new Bubble Tea model and subscribes to the lead queries.
// Close releases the subscriptions.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	queries := opts.Queries
	owns := false
	if queries == nil {
		queries = query.New(query.Options{Logger: logger})
		owns = true
	}

	l := &look{theme: ThemeFor(false)}
	if opts.Theme != nil {
		opts.Theme.SetPresenter(l)
	}

	input := textinput.New()
	input.Prompt = "/ "
	input.Placeholder = `status == "new" && can_allocate`
	input.CharLimit = 256

	m := Model{
		ctx:         ctx,
		queries:     queries,
		ownsQueries: owns,
		api:         opts.API,
		themes:      opts.Theme,
		logPath:     opts.LogPath,
		logger:      logger,
		look:        l,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		routes:      newRouter(),
		now:         time.Now,
		list:        leads.UseLeads(queries, opts.API, opts.Filter),
		details:     leads.UseLeadDetails(queries, opts.API, 0),
		filterInput: input,
		logFollow:   true,
	}
	if strings.TrimSpace(opts.Where) != "" {
		if p, err := leads.Where(opts.Where); err == nil {
			m.where = p
			m.filterInput.SetValue(p.String())
		} else {
			m.setNotice(err.Error())
		}
	}
	return m
}

// Close releases the query subscriptions, and the query client when New
// created it.
func (m Model) Close() {
	m.list.Close()
	m.details.Close()
	if m.ownsQueries {
		m.queries.Close()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForChange(sourceLeads, m.list.Changes()),
		waitForChange(sourceLead, m.details.Changes()),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detailViewport = viewport.New(msg.Width, m.bodyHeight())
			m.logViewport = viewport.New(msg.Width, m.bodyHeight())
		}
		m.ready = true
		m.detailViewport.Width = msg.Width
		m.detailViewport.Height = m.bodyHeight()
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.bodyHeight()
		m.help.Width = msg.Width
		m.filterInput.Width = maxInt(10, msg.Width-4)
		m.updateDetailViewport()
		m.updateLogViewport()
		return m, nil

	case stateMsg:
		cmd := m.handleState(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logTailMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil

	case logTickMsg:
		if m.routes.current != RouteLogs {
			return m, nil
		}
		return m, tea.Batch(readLogCmd(m.logPath), logTickCmd())
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	scr, err := m.routes.resolve(m.routes.current)
	if err != nil {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(scr))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(scr.View(&m))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) handleState(msg stateMsg) tea.Cmd {
	switch msg.source {
	case sourceLeads:
		m.clampSelection()
		next := waitForChange(sourceLeads, m.list.Changes())
		if msg.state.IsSuccess() && m.api != nil {
			return tea.Batch(next, m.prefetchCmd(m.visibleLeads(), prefetchCount))
		}
		return next
	case sourceLead:
		if msg.state.Key.Equal(m.details.Key()) {
			m.updateDetailViewport()
		}
		return waitForChange(sourceLead, m.details.Changes())
	}
	return nil
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	if m.routes.current == RouteHelp {
		// Any key closes help
		return m.navigate(m.routes.previous)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		return m.navigate(RouteHelp)
	case key.Matches(msg, m.keys.ToggleTheme):
		m.toggleTheme()
		return nil
	case key.Matches(msg, m.keys.ViewLeads):
		return m.navigate(RouteLeads)
	case key.Matches(msg, m.keys.ViewLogs):
		return m.navigate(RouteLogs)
	case key.Matches(msg, m.keys.Back):
		if m.routes.current != RouteLeads {
			return m.navigate(RouteLeads)
		}
	}

	scr, err := m.routes.resolve(m.routes.current)
	if err != nil {
		m.setNotice(err.Error())
		return nil
	}
	return scr.Update(m, msg)
}

// navigate switches to route and runs its Enter hook.
func (m *Model) navigate(route Route) tea.Cmd {
	scr, err := m.routes.resolve(route)
	if err != nil {
		m.setNotice(err.Error())
		return nil
	}
	if m.routes.current != route {
		m.routes.previous = m.routes.current
		m.routes.current = route
	}
	return scr.Enter(m)
}

func (m *Model) toggleTheme() {
	if m.themes == nil {
		dark := !m.look.current().Dark
		m.look.SetDark(dark)
		m.updateDetailViewport()
		return
	}
	mode, err := m.themes.Toggle()
	if err != nil {
		m.logger.Warn("theme toggle failed", zap.Error(err))
		m.setNotice("Theme not saved: " + err.Error())
		return
	}
	m.setNotice("Theme: " + string(mode))
	m.updateDetailViewport()
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeAt = m.now()
}

// bodyHeight is the space left for a screen below the header and status
// lines and above the footer.
func (m Model) bodyHeight() int {
	return maxInt(1, m.height-3)
}

func (m Model) styles() Styles {
	return m.look.current().Styles()
}

func (m Model) renderHeader(scr screen) string {
	styles := m.styles()
	logo := styles.Logo.Render("leaddeck")
	title := styles.Text.Render(scr.Title())

	res := m.list.Result()
	var parts []string
	switch {
	case res.IsLoading:
		parts = append(parts, m.spinner.View()+" refreshing")
	case !res.UpdatedAt.IsZero():
		parts = append(parts, fmt.Sprintf("%d leads · updated %s", len(res.Data), ago(m.now().Sub(res.UpdatedAt))))
	}
	if m.look.current().Dark {
		parts = append(parts, "dark")
	} else {
		parts = append(parts, "light")
	}
	right := styles.MutedText.Render(strings.Join(parts, " · "))
	line := logo + "  " + title + "  " + right
	return styles.Header.Width(maxInt(0, m.width)).Render(line)
}

// renderStatusLine shows the filter prompt, a recent notice, or nothing.
func (m Model) renderStatusLine() string {
	styles := m.styles()
	switch {
	case m.filtering:
		return m.filterInput.View()
	case m.notice != "" && m.now().Sub(m.noticeAt) < 10*time.Second:
		return styles.WarningText.Render(m.notice)
	case m.where != nil && m.where.String() != "":
		return styles.MutedText.Render("filter: " + m.where.String())
	default:
		return ""
	}
}

func (m Model) renderFooter() string {
	styles := m.styles()
	return styles.Footer.Width(maxInt(0, m.width)).Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Run starts the Bubble Tea program and blocks until it exits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
