//go:build windows

package fs

import (
	"fmt"
	"os/exec"
	"strings"
)

func shortcutFallbackAvailable() bool {
	return true
}

// shellShortcut creates a Windows .lnk shell shortcut through WScript.Shell.
// Used when native symlink creation fails (privilege, unsupported volume).
func (d *Datastore) shellShortcut(linkPath, target string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(linkPath), ".lnk") {
		linkPath += ".lnk"
	}

	script := fmt.Sprintf(
		"$ws = New-Object -ComObject WScript.Shell; $s = $ws.CreateShortcut('%s'); $s.TargetPath = '%s'; $s.Save()",
		strings.ReplaceAll(linkPath, "'", "''"),
		strings.ReplaceAll(target, "'", "''"),
	)

	cmd := exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to create shell shortcut: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return linkPath, nil
}
