//go:build !windows

package fs

import "fmt"

func shortcutFallbackAvailable() bool {
	return false
}

func (d *Datastore) shellShortcut(linkPath, target string) (string, error) {
	return "", fmt.Errorf("shell shortcuts are not supported on this platform")
}
