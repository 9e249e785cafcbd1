// Package ui implements the leaddeck terminal interface with Bubble Tea.
//
// # Routes
//
// Screens are registered by name in a router and built the first time they
// are visited:
//
//	leads  lead list with selection and an expr filter (/)
//	lead   details of the selected lead, rendered as markdown
//	logs   tail of leaddeck's own log file
//	help   key bindings
//
// Screens hold no state. Everything they render lives on Model, which keeps
// bubbletea's value semantics intact.
//
// # Data
//
// The model owns two query subscriptions: the lead list and a details query
// that is re-targeted whenever a lead is opened. waitForChange turns each
// subscription's Changes channel into tea messages, re-armed after every
// delivery, so views re-render on loading, success and error transitions
// without polling. Background refreshes come from the app poller
// invalidating the list key.
//
// # Theme
//
// The dark/light flag is owned by prefs.ThemeStore. The model registers a
// presenter with the store; T toggles the preference, which is written to
// disk before the theme changes on screen.
package ui
