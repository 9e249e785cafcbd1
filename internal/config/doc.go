// Package config loads leaddeck's settings.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/leaddeck/config.toml (default)
//  3. Load a .env file from the same directory, never overriding variables
//     that are already set
//  4. If the config file doesn't exist, fall back to defaults
//  5. Apply LEADDECK_TOKEN and LEADDECK_API_URL from the environment
//
// Files ending in .yaml or .yml are parsed as YAML; everything else as TOML.
//
// # Default Values
//
//   - API root: https://ulg.unitytelco.com/api/v1
//   - can_allocate: true
//   - timeout: 10s (per request, timeouts surface as network errors)
//   - poll: 30s (lead list refresh cadence in the TUI)
//   - log_file: ~/.local/state/leaddeck/leaddeck.log
//   - prefs_file: ~/.config/leaddeck/prefs.toml
//
// token, user_id and company have no defaults. Validate reports them so the
// commands that call the API can fail early with a readable message.
//
// # TOML Format
//
//	api_url = "https://ulg.unitytelco.com/api/v1"
//	user_id = 92
//	company = 2
//	can_allocate = true
//	timeout = "10s"
//	poll = "30s"
//
// Keep the token out of the file where possible:
//
//	# ~/.config/leaddeck/.env
//	LEADDECK_TOKEN=...
package config
