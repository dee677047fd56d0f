package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	exifnative "git.tls.tupangiu.ro/cosmin/takeout-ng/internal/exif"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/sidecar"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/concurrency"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// ffmpeg writes this bogus date into broken containers; it must never win.
var exifSentinel = time.Date(2036, 1, 1, 23, 59, 59, 0, time.UTC)

// exifDateTags is the external-tool tag order.
var exifDateTags = []string{
	"DateTimeOriginal",
	"MediaCreateDate",
	"CreationDate",
	"TrackCreateDate",
}

// nativeExifExtensions are formats the in-process reader handles (JPEG and
// TIFF-container families).
var nativeExifExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".tif": {}, ".tiff": {},
	".dng": {}, ".nef": {}, ".cr2": {}, ".arw": {},
}

// filenamePatterns map known basename shapes to a digit sequence; the joined
// capture groups always spell YYYYMMDDHHMMSS.
var filenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Screenshot_(\d{8})-(\d{6})`),
	regexp.MustCompile(`(?:IMG|VID|PANO)[-_](\d{8})[-_](\d{6})`),
	regexp.MustCompile(`signal-(\d{4})-(\d{2})-(\d{2})-(\d{6})`),
	regexp.MustCompile(`(\d{4})_(\d{2})_(\d{2})_(\d{2})_(\d{2})_(\d{2})`),
	regexp.MustCompile(`BURST(\d{14})`),
	regexp.MustCompile(`(\d{14})\d{3}`),
	regexp.MustCompile(`(\d{8})[-_](\d{6})`),
}

var dateSeparators = strings.NewReplacer("-", ":", "/", ":", ".", ":", "\\", ":")

// ExtractDatesStep annotates every entity with the best available capture
// time: sidecar JSON, then EXIF, then filename patterns, then the year folder.
type ExtractDatesStep struct {
	debug *logger.DebugLogger
}

func NewExtractDatesStep() *ExtractDatesStep {
	return &ExtractDatesStep{debug: logger.NewDebugLogger("extract_dates")}
}

func (s *ExtractDatesStep) Name() string {
	return pipeline.StepExtractDates
}

func (s *ExtractDatesStep) ShouldSkip(ctx *pipeline.Context) bool {
	return false
}

func (s *ExtractDatesStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("extract_dates").
		WithInt("entities", ctx.Collection.Len()).
		Build()

	entities := ctx.Collection.Entities()

	var mu sync.Mutex
	histogram := map[string]int{}

	err := ctx.Concurrency.Do(ctx.Ctx, concurrency.OpExif, len(entities), func(_ context.Context, i int) error {
		method := s.extract(ctx, entities[i])
		mu.Lock()
		histogram[string(method)]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		return pipeline.FailureResult("date extraction failed", err)
	}

	tracer.Success().
		WithInt("json", histogram[string(entity.MethodJSON)]).
		WithInt("exif", histogram[string(entity.MethodExif)]).
		WithInt("filename", histogram[string(entity.MethodFilename)]).
		WithInt("folder", histogram[string(entity.MethodFolder)]).
		WithInt("none", histogram[string(entity.MethodNone)]).
		Log()

	result := pipeline.SuccessResult("dates extracted")
	result.Data["extraction_histogram"] = histogram
	return result
}

// extract runs the extractor chain and returns the method that won.
func (s *ExtractDatesStep) extract(ctx *pipeline.Context, e *entity.MediaEntity) entity.ExtractionMethod {
	if t, ok := s.fromJSON(e); ok {
		e.SetDate(t, entity.AccuracyJSON, entity.MethodJSON)
		return entity.MethodJSON
	}
	if t, ok := s.fromExif(ctx, e); ok {
		e.SetDate(t, entity.AccuracyExif, entity.MethodExif)
		return entity.MethodExif
	}
	if t, ok := s.fromFilename(e); ok {
		e.SetDate(t, entity.AccuracyFilename, entity.MethodFilename)
		return entity.MethodFilename
	}
	if t, ok := s.fromFolderYear(e); ok {
		e.SetDate(t, entity.AccuracyFolder, entity.MethodFolder)
		return entity.MethodFolder
	}
	return entity.MethodNone
}

func (s *ExtractDatesStep) fromJSON(e *entity.MediaEntity) (time.Time, bool) {
	for _, file := range e.AllFiles() {
		sidecarPath, ok := sidecar.Find(file.SourcePath, true)
		if !ok {
			continue
		}
		md, err := sidecar.Parse(sidecarPath)
		if err != nil {
			zap.S().Debugw("malformed sidecar ignored", "sidecar", sidecarPath, "error", err)
			continue
		}
		if t, ok := md.TakenTime(); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (s *ExtractDatesStep) fromExif(ctx *pipeline.Context, e *entity.MediaEntity) (time.Time, bool) {
	path := e.Primary.SourcePath

	if ctx.Config.EnforceMaxFileSize {
		if info, err := os.Stat(path); err != nil || info.Size() > ctx.Config.MaxFileSize {
			return time.Time{}, false
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, native := nativeExifExtensions[ext]; native {
		if raw, err := exifnative.ReadDateTime(path); err == nil {
			if t, ok := parseExifDate(raw); ok {
				return t, true
			}
		}
		return time.Time{}, false
	}

	if ctx.Exiftool == nil {
		return time.Time{}, false
	}

	fields, err := ctx.Exiftool.ReadTags(path)
	if err != nil {
		zap.S().Debugw("exiftool read failed", "path", path, "error", err)
		return time.Time{}, false
	}
	for _, tag := range exifDateTags {
		if raw, ok := fields[tag]; ok {
			if t, parsed := parseExifDate(raw); parsed {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// parseExifDate normalizes separator variants to the EXIF canonical form,
// truncates subsecond/zone suffixes, and rejects the ffmpeg sentinel.
func parseExifDate(raw string) (time.Time, bool) {
	normalized := dateSeparators.Replace(strings.TrimSpace(raw))
	if len(normalized) > 19 {
		normalized = normalized[:19]
	}

	t, err := time.Parse("2006:01:02 15:04:05", normalized)
	if err != nil {
		return time.Time{}, false
	}
	if t.Equal(exifSentinel) {
		return time.Time{}, false
	}
	if t.Year() < 1800 || t.Year() > 2099 {
		return time.Time{}, false
	}
	return t, true
}

func (s *ExtractDatesStep) fromFilename(e *entity.MediaEntity) (time.Time, bool) {
	for _, file := range e.AllFiles() {
		if t, ok := parseFilenameDate(file.Basename()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseFilenameDate joins a pattern's capture groups into YYYYMMDDHHMMSS and
// parses that. Years outside 1800..2099 are rejected.
func parseFilenameDate(basename string) (time.Time, bool) {
	for _, re := range filenamePatterns {
		m := re.FindStringSubmatch(basename)
		if m == nil {
			continue
		}
		digits := strings.Join(m[1:], "")
		if len(digits) != 14 {
			continue
		}

		year, err := strconv.Atoi(digits[:4])
		if err != nil || year < 1800 || year > 2099 {
			continue
		}

		t, err := time.Parse("20060102150405", digits)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

func (s *ExtractDatesStep) fromFolderYear(e *entity.MediaEntity) (time.Time, bool) {
	for _, file := range e.AllFiles() {
		dir := filepath.Base(file.SourceDir())
		if m := yearFolderRe.FindString(dir); m != "" {
			year, err := strconv.Atoi(dir[len("Photos from "):])
			if err != nil {
				continue
			}
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
