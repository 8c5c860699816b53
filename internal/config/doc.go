// Package config loads sessionsplice configuration.
//
// Configuration is read from config.yaml in a single directory. The default
// directory is ~/.config/sessionsplice; the --config flag selects another.
// Defaults are applied first and the file is overlaid on top, so a file only
// needs the keys it changes. A missing file is not an error.
//
// # Sections
//
//	provider:
//	  clientId: ""          # required for login and token refresh
//	  clientSecret: ""
//	  authUrl: ""           # default: Google endpoints
//	  tokenUrl: ""
//	  userInfoUrl: ""
//	  scopes: []
//	  pkce: true
//	capture:
//	  callbackPath: /oauth-callback
//	  timeout: 5m
//	  openBrowser: true
//	target:
//	  appName: Antigravity  # used to discover state.vscdb
//	  databasePath: ""      # explicit path, skips discovery
//	  backup: true
//	accounts:
//	  dir: ""               # default: ~/.config/sessionsplice/accounts
//	logging:
//	  level: info
//	  json: false
//
// # Environment
//
// SESSIONSPLICE_CLIENT_ID and SESSIONSPLICE_CLIENT_SECRET override the
// provider client credentials after the file is loaded.
//
// # Errors
//
// Load failures are reported as ConfigurationError values carrying the file
// path, the error type (io, parse or validation) and suggestions.
package config
