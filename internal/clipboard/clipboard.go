// Package clipboard provides platform-specific clipboard operations.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// CopyText attempts to copy plain text to the system clipboard.
func CopyText(text string) error {
	tool, err := Tool(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(tool[0], tool[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", tool[0], err)
	}
	return nil
}

// Tool returns the command line used to write to the clipboard on goos.
func Tool(goos string) ([]string, error) {
	switch goos {
	case "linux":
		// Try different clipboard tools in order of preference
		for _, tool := range [][]string{
			{"wl-copy"},                          // Wayland
			{"xclip", "-selection", "clipboard"}, // X11
			{"xsel", "--clipboard", "--input"},   // X11 alternative
		} {
			if isCommandAvailable(tool[0]) {
				return tool, nil
			}
		}
		return nil, fmt.Errorf("no suitable clipboard tool found (tried: wl-copy, xclip, xsel)")
	case "darwin":
		return []string{"pbcopy"}, nil
	case "windows":
		return []string{"clip"}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func isCommandAvailable(name string) bool {
	_, err := lookPath(name)
	return err == nil
}
