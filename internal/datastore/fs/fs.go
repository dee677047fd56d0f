// Package fs holds the filesystem primitives the move stage builds on:
// directory walking, collision-free target naming, cross-device aware moves,
// streaming copies, and symlink creation with a Windows shortcut fallback.
package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WalkResult represents an item found during filesystem traversal
type WalkResult struct {
	Path        string // Absolute path of the item
	IsDirectory bool
}

// Common filter functions for Walk
var (
	FilterDirectories = func(result WalkResult) bool {
		return result.IsDirectory
	}

	FilterFiles = func(result WalkResult) bool {
		return !result.IsDirectory
	}

	FilterAll = func(result WalkResult) bool {
		return true
	}
)

// Datastore bundles the primitives with the one piece of process-wide state
// they need: whether native symlinks turned out to be unusable on this host.
type Datastore struct {
	nativeSymlinksBroken atomic.Bool
}

func NewDatastore() *Datastore {
	return &Datastore{}
}

// Walk recursively traverses the directory at root and returns the items that
// pass the filter. A missing root yields an empty result, not an error.
func (d *Datastore) Walk(root string, filter func(WalkResult) bool) ([]WalkResult, error) {
	if info, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return []WalkResult{}, nil
		}
		return nil, err
	} else if !info.IsDir() {
		return []WalkResult{}, nil
	}

	var results []WalkResult

	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		result := WalkResult{
			Path:        path,
			IsDirectory: entry.IsDir(),
		}

		if filter == nil || filter(result) {
			results = append(results, result)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// UniqueTargetPath picks a name in dir for base that does not collide with an
// existing file, appending "(1)", "(2)", … before the extension. The choice
// is advisory; callers retry on create races.
func (d *Datastore) UniqueTargetPath(dir, base string) string {
	candidate := filepath.Join(dir, base)
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s(%d)%s", stem, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Move relocates src into targetDir: rename on the same device, streaming
// copy plus unlink across devices. When mtime is non-nil the moved file's
// modification time is set to it. Returns the final target path.
func (d *Datastore) Move(src, targetDir string, mtime *time.Time) (string, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", err
	}

	var target string
	for attempt := 0; attempt < 5; attempt++ {
		target = d.UniqueTargetPath(targetDir, filepath.Base(src))
		err := os.Rename(src, target)
		if err == nil {
			d.setTimes(target, mtime)
			return target, nil
		}
		if isCrossDevice(err) {
			target, copyErr := d.Copy(src, targetDir, mtime)
			if copyErr != nil {
				return "", copyErr
			}
			if rmErr := os.Remove(src); rmErr != nil {
				zap.S().Warnw("failed to remove source after cross-device copy", "source", src, "error", rmErr)
			}
			return target, nil
		}
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return "", err
	}
	return "", fmt.Errorf("failed to find a free target name for %s in %s", src, targetDir)
}

// Copy streams src into targetDir under a collision-free name and returns the
// final target path.
func (d *Datastore) Copy(src, targetDir string, mtime *time.Time) (string, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	for attempt := 0; attempt < 5; attempt++ {
		target := d.UniqueTargetPath(targetDir, filepath.Base(src))
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", err
		}

		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			os.Remove(target)
			return "", err
		}
		if err := out.Close(); err != nil {
			return "", err
		}

		d.setTimes(target, mtime)
		return target, nil
	}
	return "", fmt.Errorf("failed to find a free target name for %s in %s", src, targetDir)
}

// Symlink creates a relative symlink in targetDir pointing at sourceFile and
// returns the link path. On Windows, when native symlinks are unavailable, a
// .lnk shell shortcut is created instead; that decision is remembered for the
// rest of the process.
func (d *Datastore) Symlink(targetDir, sourceFile string) (string, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", err
	}

	linkPath := d.UniqueTargetPath(targetDir, filepath.Base(sourceFile))

	if d.nativeSymlinksBroken.Load() {
		return d.shellShortcut(linkPath, sourceFile)
	}

	rel, err := filepath.Rel(targetDir, sourceFile)
	if err != nil {
		rel = sourceFile
	}

	if err := os.Symlink(rel, linkPath); err != nil {
		if shortcutFallbackAvailable() {
			d.nativeSymlinksBroken.Store(true)
			zap.S().Warnw("native symlinks unavailable, falling back to shell shortcuts", "error", err)
			return d.shellShortcut(linkPath, sourceFile)
		}
		return "", err
	}

	return linkPath, nil
}

func (d *Datastore) setTimes(path string, mtime *time.Time) {
	if mtime == nil {
		return
	}
	if err := os.Chtimes(path, time.Time{}, *mtime); err != nil {
		zap.S().Debugw("failed to set file times", "path", path, "error", err)
	}
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}
