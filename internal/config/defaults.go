package config

import "time"

const (
	// DefaultCallbackPath is the default path for OAuth callbacks.
	DefaultCallbackPath = "/oauth-callback"

	// DefaultCaptureTimeout bounds how long login waits for the callback.
	DefaultCaptureTimeout = 300 * time.Second

	// DefaultAppName is the application whose state database is targeted.
	DefaultAppName = "Antigravity"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			PKCE: true,
		},
		Capture: CaptureConfig{
			CallbackPath: DefaultCallbackPath,
			Timeout:      DefaultCaptureTimeout,
			OpenBrowser:  true,
		},
		Target: TargetConfig{
			AppName: DefaultAppName,
			Backup:  true,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}
