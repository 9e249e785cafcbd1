// Package app wires leaddeck together.
//
// Open is the composition root shared by every command: it loads the
// config, builds the zap file logger, the CRM client and the query client.
// Run adds the theme store and the poller and hands everything to the TUI.
//
//	Run()
//	  ├─> Open()          config, logger, crm client, query client
//	  ├─> OpenTheme()     persisted dark/light preference
//	  ├─> StartPoller()   invalidates the lead list on an interval
//	  └─> ui.Run()        blocks until the user quits
//
// The poller never fetches directly. It invalidates leads.ListKey, so the
// refresh goes through the query client: a tick that lands while the list
// is still loading queues a single follow-up fetch instead of a second
// request. While refreshes keep failing the interval doubles up to five
// minutes, and the first success resets it.
package app
