package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/prefs"
	"github.com/five82/leaddeck/internal/query"
)

type fakeAPI struct {
	mu      sync.Mutex
	leads   []crm.Lead
	details map[int64]int
}

func (f *fakeAPI) ListLeads(ctx context.Context, filter crm.Filter) ([]crm.Lead, error) {
	return f.leads, nil
}

func (f *fakeAPI) LeadDetails(ctx context.Context, id int64) (*crm.Lead, error) {
	f.mu.Lock()
	if f.details == nil {
		f.details = map[int64]int{}
	}
	f.details[id]++
	f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID() == id {
			lead := l
			return &lead, nil
		}
	}
	return nil, &crm.StatusError{Code: 404}
}

func mustLead(t *testing.T, raw string) crm.Lead {
	t.Helper()
	var lead crm.Lead
	if err := json.Unmarshal([]byte(raw), &lead); err != nil {
		t.Fatalf("unmarshal lead: %v", err)
	}
	return lead
}

func newTestModel(t *testing.T, storage prefs.Storage) (Model, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{leads: []crm.Lead{
		mustLead(t, `{"id": 1, "name": "Acme Corp", "email": "ops@acme.test", "status": "new", "can_allocate": true}`),
		mustLead(t, `{"id": 2, "name": "Globex", "email": "hq@globex.test", "status": "won", "can_allocate": false}`),
	}}
	qc := query.New(query.Options{})
	if storage == nil {
		storage = prefs.NewMemoryStorage(nil)
	}
	m := New(Options{
		Queries: qc,
		API:     api,
		Theme:   prefs.NewThemeStore(storage, nil, nil),
	})
	t.Cleanup(func() {
		m.Close()
		qc.Close()
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	return m, api
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

// pump feeds subscription changes into the model until want is seen.
func pump(t *testing.T, m Model, source string, want query.Status) Model {
	t.Helper()
	ch := m.list.Changes()
	if source == sourceLead {
		ch = m.details.Changes()
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-ch:
			m = update(t, m, stateMsg{source: source, state: st})
			if st.Status == want {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s on %s", want, source)
			return m
		}
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_RendersLeads(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = pump(t, m, sourceLeads, query.StatusSuccess)

	view := m.View()
	for _, want := range []string{"leaddeck", "Acme Corp", "Globex", "ops@acme.test", "2 leads"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_ToggleThemePersists(t *testing.T) {
	storage := prefs.NewMemoryStorage(nil)
	m, _ := newTestModel(t, storage)
	if m.look.current().Dark {
		t.Fatal("expected light theme at start")
	}

	m = update(t, m, keyRunes("T"))
	if !m.look.current().Dark {
		t.Fatal("expected dark theme after toggle")
	}
	if v, _, _ := storage.Get(prefs.ThemeKey); v != "dark" {
		t.Fatalf("stored theme = %q, want dark", v)
	}
	if !strings.Contains(m.View(), "Theme: dark") {
		t.Fatal("expected theme notice")
	}
}

func TestModel_ToggleThemeWriteFailure(t *testing.T) {
	storage := prefs.NewMemoryStorage(nil)
	m, _ := newTestModel(t, storage)
	storage.FailWrites = true

	m = update(t, m, keyRunes("T"))
	if m.look.current().Dark {
		t.Fatal("theme changed despite failed write")
	}
	if !strings.Contains(m.View(), "Theme not saved") {
		t.Fatal("expected failure notice")
	}
}

func TestModel_OpenLeadRetargetsDetails(t *testing.T) {
	m, api := newTestModel(t, nil)
	m = pump(t, m, sourceLeads, query.StatusSuccess)

	m = update(t, m, keyRunes("j"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.routes.current != RouteLead {
		t.Fatalf("route = %q, want %q", m.routes.current, RouteLead)
	}
	if m.details.ID() != 2 {
		t.Fatalf("details id = %d, want 2", m.details.ID())
	}

	m = pump(t, m, sourceLead, query.StatusSuccess)
	if !strings.Contains(m.View(), "Globex") {
		t.Fatalf("lead view missing name:\n%s", m.View())
	}
	api.mu.Lock()
	calls := api.details[2]
	api.mu.Unlock()
	if calls != 1 {
		t.Fatalf("details calls = %d, want 1", calls)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.routes.current != RouteLeads {
		t.Fatalf("route = %q, want leads", m.routes.current)
	}
}

func TestModel_FilterNarrowsList(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = pump(t, m, sourceLeads, query.StatusSuccess)

	m = update(t, m, keyRunes("/"))
	if !m.filtering {
		t.Fatal("expected filter prompt")
	}
	m = update(t, m, keyRunes(`status == "won"`))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Fatal("prompt still open")
	}

	rows := m.visibleLeads()
	if len(rows) != 1 || rows[0].Name() != "Globex" {
		t.Fatalf("visible = %v", rows)
	}
	view := m.View()
	if strings.Contains(view, "Acme Corp") || !strings.Contains(view, `filter: status == "won"`) {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestModel_InvalidFilterKeepsPromptOpen(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = update(t, m, keyRunes("/"))
	m = update(t, m, keyRunes("status =="))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filtering {
		t.Fatal("prompt closed on invalid filter")
	}
	if m.where != nil {
		t.Fatal("invalid filter applied")
	}
	if !strings.Contains(m.notice, "compile filter") {
		t.Fatalf("notice = %q", m.notice)
	}
}

func TestModel_HelpClosesOnAnyKey(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m = update(t, m, keyRunes("?"))
	if m.routes.current != RouteHelp {
		t.Fatalf("route = %q, want help", m.routes.current)
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help view missing title")
	}
	m = update(t, m, keyRunes("x"))
	if m.routes.current != RouteLeads {
		t.Fatalf("route = %q, want leads", m.routes.current)
	}
}

func TestModel_LogsView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaddeck.log")
	line := fmt.Sprintf(`{"level":"warn","ts":%d,"msg":"query fetch failed","kind":"network"}`, time.Now().Unix())
	if err := os.WriteFile(path, []byte(line+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, _ := newTestModel(t, nil)
	m.logPath = path
	m = update(t, m, keyRunes("l"))
	if m.routes.current != RouteLogs {
		t.Fatalf("route = %q, want logs", m.routes.current)
	}
	m = update(t, m, readLogCmd(path)())

	view := m.View()
	if !strings.Contains(view, "query fetch failed") || !strings.Contains(view, "kind=") {
		t.Fatalf("log view missing entry:\n%s", view)
	}
}

func TestRouter_BuildsScreensOnDemand(t *testing.T) {
	r := newRouter()
	if len(r.built) != 0 {
		t.Fatalf("built = %d, want 0", len(r.built))
	}
	if _, err := r.resolve(RouteLogs); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(r.built) != 1 {
		t.Fatalf("built = %d, want 1", len(r.built))
	}
	if _, err := r.resolve("missing"); err == nil {
		t.Fatal("expected unknown route error")
	}
	if got := r.Routes(); len(got) != 4 {
		t.Fatalf("routes = %v", got)
	}
}
