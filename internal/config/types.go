package config

import "time"

// Config is the top-level configuration structure for sessionsplice.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Capture  CaptureConfig  `yaml:"capture"`
	Target   TargetConfig   `yaml:"target"`
	Accounts AccountsConfig `yaml:"accounts"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig defines the OAuth client and endpoints.
type ProviderConfig struct {
	ClientID     string   `yaml:"clientId,omitempty"`
	ClientSecret string   `yaml:"clientSecret,omitempty"`
	AuthURL      string   `yaml:"authUrl,omitempty"`     // Authorization endpoint (default: Google)
	TokenURL     string   `yaml:"tokenUrl,omitempty"`    // Token endpoint (default: Google)
	UserInfoURL  string   `yaml:"userInfoUrl,omitempty"` // Userinfo endpoint (default: Google)
	Scopes       []string `yaml:"scopes,omitempty"`
	PKCE         bool     `yaml:"pkce"`
}

// CaptureConfig controls the loopback callback capture.
type CaptureConfig struct {
	CallbackPath string        `yaml:"callbackPath,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	OpenBrowser  bool          `yaml:"openBrowser"`
}

// TargetConfig locates the state database credentials are injected into.
type TargetConfig struct {
	AppName      string `yaml:"appName,omitempty"`      // Application directory name used for discovery
	DatabasePath string `yaml:"databasePath,omitempty"` // Explicit state.vscdb path, skips discovery
	Backup       bool   `yaml:"backup"`                 // Copy the database aside before writing
}

// AccountsConfig configures the local account store.
type AccountsConfig struct {
	Dir string `yaml:"dir,omitempty"` // Default: ~/.config/sessionsplice/accounts
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json"`
}
