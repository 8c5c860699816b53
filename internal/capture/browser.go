package capture

import (
	"fmt"
	"os/exec"
	"runtime"
)

// execCommand is replaced in tests.
var execCommand = exec.Command

// OpenBrowser opens url in the default web browser on Linux, macOS and
// Windows. It does not wait for the browser to exit.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = execCommand("xdg-open", url)
	case "darwin":
		cmd = execCommand("open", url)
	case "windows":
		cmd = execCommand("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	// Reap the helper so it does not linger as a zombie.
	go func() { _ = cmd.Wait() }()

	return nil
}
