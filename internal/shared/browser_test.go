package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origGOOS, origStart := goos, startCommand
	t.Cleanup(func() { goos, startCommand = origGOOS, origStart })

	var gotName string
	var gotArgs []string
	startCommand = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	tests := []struct {
		goos string
		name string
		args []string
	}{
		{"darwin", "open", []string{"https://example.com"}},
		{"linux", "xdg-open", []string{"https://example.com"}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", "https://example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			goos = tt.goos
			if err := OpenBrowser("https://example.com"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotName != tt.name || !slices.Equal(gotArgs, tt.args) {
				t.Errorf("expected %s %v, got %s %v", tt.name, tt.args, gotName, gotArgs)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		goos = "plan9"
		if err := OpenBrowser("https://example.com"); !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("start failure", func(t *testing.T) {
		goos = "linux"
		startCommand = func(string, ...string) error { return errors.New("not found") }
		if err := OpenBrowser("https://example.com"); err == nil {
			t.Error("expected error")
		}
	})

	if got := browserCommands["windows"]; len(got) != 2 {
		t.Errorf("expected windows command to be left unchanged, got %v", got)
	}
}
