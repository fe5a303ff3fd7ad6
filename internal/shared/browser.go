package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommands holds the command that opens a URL in the default browser, per GOOS.
var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

var (
	goos         = runtime.GOOS
	startCommand = func(name string, args ...string) error { return exec.Command(name, args...).Start() }
)

// OpenBrowser opens url in the default browser without waiting for it to exit.
func OpenBrowser(url string) error {
	command, ok := browserCommands[goos]
	if !ok {
		return fmt.Errorf("%w: no browser command for %s", ErrServiceUnavailable, goos)
	}
	args := append(command[1:len(command):len(command)], url)
	if err := startCommand(command[0], args...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
