//go:build windows

package services

import (
	"time"

	"golang.org/x/sys/windows"
)

var windowsEpochFloor = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// setFileTimes sets both creation and modification time. FILETIME cannot
// express dates before the Unix epoch the way the rest of the pipeline
// handles them, so earlier dates clamp to 1970-01-01. The access time is left
// untouched.
func setFileTimes(path string, t time.Time) error {
	if t.Before(windowsEpochFloor) {
		t = windowsEpochFloor
	}

	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	// FILE_FLAG_OPEN_REPARSE_POINT so a link itself is touched, never its
	// target.
	handle, err := windows.CreateFile(
		pathPtr,
		windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(handle)

	ft := windows.NsecToFiletime(t.UTC().UnixNano())
	return windows.SetFileTime(handle, &ft, nil, &ft)
}
