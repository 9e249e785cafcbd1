package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Route names a screen.
type Route string

const (
	RouteLeads Route = "leads"
	RouteLead  Route = "lead"
	RouteLogs  Route = "logs"
	RouteHelp  Route = "help"
)

// screen renders one route. Screens keep no state of their own; everything
// they show lives on the Model so bubbletea's copy semantics hold.
type screen interface {
	Title() string
	// Enter runs when the route becomes active.
	Enter(m *Model) tea.Cmd
	Update(m *Model, msg tea.KeyMsg) tea.Cmd
	View(m *Model) string
}

// router maps route names to screen factories. A screen is built the first
// time its route is visited.
type router struct {
	factories map[Route]func() screen
	built     map[Route]screen
	current   Route
	previous  Route
}

func newRouter() *router {
	r := &router{
		factories: make(map[Route]func() screen),
		built:     make(map[Route]screen),
		current:   RouteLeads,
		previous:  RouteLeads,
	}
	r.Register(RouteLeads, func() screen { return leadsScreen{} })
	r.Register(RouteLead, func() screen { return leadScreen{} })
	r.Register(RouteLogs, func() screen { return logsScreen{} })
	r.Register(RouteHelp, func() screen { return helpScreen{} })
	return r
}

// Register binds a factory to a route, replacing any previous one.
func (r *router) Register(name Route, factory func() screen) {
	r.factories[name] = factory
	delete(r.built, name)
}

func (r *router) resolve(name Route) (screen, error) {
	if s, ok := r.built[name]; ok {
		return s, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown route %q", name)
	}
	s := factory()
	r.built[name] = s
	return s, nil
}

// Routes lists the registered route names.
func (r *router) Routes() []Route {
	out := make([]Route, 0, len(r.factories))
	for _, name := range []Route{RouteLeads, RouteLead, RouteLogs, RouteHelp} {
		if _, ok := r.factories[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
