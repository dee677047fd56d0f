// Package exiftool wraps the external ExifTool binary: discovery of the
// executable, metadata reads through a persistent process, and one-shot
// batched writes with argv or argfile invocation.
package exiftool

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"
	"time"

	barasher "github.com/barasher/go-exiftool"
	"go.uber.org/zap"
)

const (
	ReadTimeout       = 1 * time.Minute
	WriteTimeout      = 4 * time.Minute
	BatchWriteTimeout = 10 * time.Minute

	// killGrace is how long a timed-out process gets between SIGTERM and SIGKILL.
	killGrace = 300 * time.Millisecond

	// argfileThreshold is the payload size above which a batch is sent via -@.
	argfileThreshold = 4096
)

// BatchEntry is a single file write within a batch: tag name → value.
type BatchEntry struct {
	File string
	Tags map[string]string
}

// Adapter manages the ExifTool binary. Reads go through a persistent
// go-exiftool instance; writes are one-shot process launches with timeouts.
type Adapter struct {
	binary  string
	version string
	reader  *barasher.Exiftool
}

// Find locates the ExifTool binary: PATH first, then next to the running
// binary, then common install locations. The candidate is verified with a
// version probe.
func Find() (string, string, error) {
	candidates := []string{}

	if p, err := exec.LookPath(exiftoolName()); err == nil {
		candidates = append(candidates, p)
	}
	if self, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(self), exiftoolName()))
	}
	for _, dir := range commonInstallDirs() {
		candidates = append(candidates, filepath.Join(dir, exiftoolName()))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		version, err := probe(candidate)
		if err != nil {
			continue
		}
		return candidate, version, nil
	}

	return "", "", fmt.Errorf("exiftool binary not found")
}

func exiftoolName() string {
	if runtime.GOOS == "windows" {
		return "exiftool.exe"
	}
	return "exiftool"
}

func commonInstallDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files\exiftool`,
			`C:\Program Files (x86)\exiftool`,
			`C:\exiftool`,
		}
	}
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/homebrew/bin",
		"/opt/local/bin",
	}
}

func probe(binary string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "-ver").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// NewAdapter discovers the binary and starts the persistent reader. Returns
// an error when no usable ExifTool exists; callers treat that as "external
// tool unavailable" and fall back to native paths.
func NewAdapter() (*Adapter, error) {
	binary, version, err := Find()
	if err != nil {
		return nil, err
	}

	reader, err := barasher.NewExiftool(barasher.SetExiftoolBinaryPath(binary))
	if err != nil {
		return nil, fmt.Errorf("failed to open exiftool: %w", err)
	}

	zap.S().Debugw("exiftool located", "binary", binary, "version", version)

	return &Adapter{binary: binary, version: version, reader: reader}, nil
}

// Version returns the probed ExifTool version string.
func (a *Adapter) Version() string {
	return a.version
}

// Close shuts down the persistent reader process.
func (a *Adapter) Close() {
	if a.reader != nil {
		_ = a.reader.Close()
	}
}

// ReadTags extracts all metadata fields for a file as strings.
func (a *Adapter) ReadTags(path string) (map[string]string, error) {
	infos := a.reader.ExtractMetadata(path)
	if len(infos) == 0 {
		return map[string]string{}, nil
	}
	if infos[0].Err != nil {
		return nil, infos[0].Err
	}

	fields := make(map[string]string, len(infos[0].Fields))
	for k, v := range infos[0].Fields {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case int:
			fields[k] = fmt.Sprintf("%d", val)
		case int64:
			fields[k] = fmt.Sprintf("%d", val)
		case float32, float64:
			fields[k] = fmt.Sprintf("%f", val)
		}
	}
	return fields, nil
}

// commonWriteArgs are included in every write invocation: preserve mtime,
// UTF-8 filenames, no backup copies, UTC QuickTime dates, tolerate minor
// warnings.
func commonWriteArgs() []string {
	return []string{
		"-P",
		"-charset", "filename=UTF8",
		"-overwrite_original",
		"-api", "QuickTimeUTC=1",
		"-m",
	}
}

// WriteTags writes the given tags into a single file.
func (a *Adapter) WriteTags(ctx context.Context, file string, tags map[string]string) error {
	args := commonWriteArgs()
	args = append(args, tagArgs(tags)...)
	args = append(args, file)
	return a.run(ctx, WriteTimeout, args)
}

// WriteBatch writes per-file tags in one invocation. ExifTool applies tag
// assignments to every file on its command line, so entries are separated by
// `-execute` and each group repeats the common write arguments. Large
// payloads go through an argfile.
func (a *Adapter) WriteBatch(ctx context.Context, entries []BatchEntry) error {
	if len(entries) == 0 {
		return nil
	}

	args := commonWriteArgs()
	for i, entry := range entries {
		args = append(args, tagArgs(entry.Tags)...)
		args = append(args, entry.File)
		if i < len(entries)-1 {
			args = append(args, "-execute")
			args = append(args, commonWriteArgs()...)
		}
	}

	payload := 0
	for _, arg := range args {
		payload += len(arg) + 1
	}

	if payload > argfileThreshold {
		return a.runArgfile(ctx, BatchWriteTimeout, args)
	}
	return a.run(ctx, BatchWriteTimeout, args)
}

func tagArgs(tags map[string]string) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("-%s=%s", k, tags[k]))
	}
	return args
}

func (a *Adapter) runArgfile(ctx context.Context, timeout time.Duration, args []string) error {
	tmp, err := os.CreateTemp("", "exiftool-args-")
	if err != nil {
		return fmt.Errorf("failed to create argfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	for _, arg := range args {
		if _, err := fmt.Fprintln(tmp, arg); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write argfile: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return a.run(ctx, timeout, []string{"-@", tmp.Name()})
}

// run launches one ExifTool process. On timeout the process receives SIGTERM
// and, after a short grace period, SIGKILL.
func (a *Adapter) run(ctx context.Context, timeout time.Duration, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("exiftool timed out after %s", timeout)
	}
	if err != nil {
		return fmt.Errorf("exiftool failed: %w: %s", err, strings.TrimSpace(out.String()))
	}

	zap.S().Debugw("exiftool invocation complete", "args", len(args), "duration", duration)
	return nil
}
