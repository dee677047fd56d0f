//go:build !windows

package services

import (
	"os"
	"time"
)

// setFileTimes sets the modification time. The zero atime leaves the access
// time unchanged; creation time cannot be written on POSIX and is skipped
// gracefully.
func setFileTimes(path string, t time.Time) error {
	return os.Chtimes(path, time.Time{}, t)
}
