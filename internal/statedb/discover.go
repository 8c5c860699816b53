package statedb

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"sessionsplice/pkg/logging"
)

// LegacyAppName is the data directory name older releases of the target
// application use regardless of their display name.
const LegacyAppName = "Antigravity"

// Overridable in tests.
var (
	osUserHomeDir = os.UserHomeDir
	osGetenv      = os.Getenv
	goos          = runtime.GOOS
)

// dbRelPath is the database location inside an application data directory.
var dbRelPath = filepath.Join("User", "globalStorage", "state.vscdb")

// Candidates returns the state database locations to try, in order: the
// configured application name first, then LegacyAppName.
func Candidates(appName string) ([]string, error) {
	names := []string{appName}
	if appName != LegacyAppName {
		names = append(names, LegacyAppName)
	}

	var base string
	switch goos {
	case "windows":
		base = osGetenv("APPDATA")
		if base == "" {
			return nil, errors.New("APPDATA is not set")
		}
	case "darwin":
		home, err := osUserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		if xdg := osGetenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			home, err := osUserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".config")
		}
	}

	candidates := make([]string, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, filepath.Join(base, name, dbRelPath))
	}
	return candidates, nil
}

// DiscoverPath returns override when set. Otherwise it returns the first
// candidate that exists, or the configured application's location when none
// does.
func DiscoverPath(appName, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	candidates, err := Candidates(appName)
	if err != nil {
		return "", err
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			logging.Debug("StateDB", "Found state database at %s", path)
			return path, nil
		}
	}

	logging.Debug("StateDB", "No existing state database found, defaulting to %s", candidates[0])
	return candidates[0], nil
}
