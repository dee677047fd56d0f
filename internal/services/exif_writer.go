package services

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	exifnative "git.tls.tupangiu.ro/cosmin/takeout-ng/internal/exif"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/sidecar"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/exiftool"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// Formats no EXIF writer handles; touched only under force-process.
var unsupportedWriteExtensions = map[string]struct{}{
	".avi": {}, ".mpg": {}, ".mpeg": {}, ".bmp": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".3gp": {}, ".mkv": {},
	".webm": {}, ".wmv": {}, ".mts": {}, ".m2ts": {},
}

type writeCategory int

const (
	categoryDate writeCategory = iota
	categoryGPS
	categoryCombined
)

func (c writeCategory) String() string {
	switch c {
	case categoryDate:
		return "date"
	case categoryGPS:
		return "gps"
	default:
		return "combined"
	}
}

// exifCounters is the per-category, per-engine instrumentation the stage
// reports. Durations are accumulated per engine only; a batch's duration is
// not split across the write categories of its entries.
type exifCounters struct {
	totalFiles int

	written map[string]int
	fails   map[string]int

	nativeWritten   int
	externalWritten int

	nativeDuration   time.Duration
	externalDuration time.Duration

	datePrimary   int
	dateSecondary int
	gpsPrimary    int
	gpsSecondary  int
}

func newExifCounters() *exifCounters {
	return &exifCounters{
		written: map[string]int{},
		fails:   map[string]int{},
	}
}

// batchItem is one queued external-tool write.
type batchItem struct {
	entry     exiftool.BatchEntry
	category  writeCategory
	isPrimary bool
}

// WriteExifStep embeds dates and GPS coordinates into the physical output
// files: a native fast path for JPEGs and batched ExifTool invocations for
// the rest.
type WriteExifStep struct {
	debug *logger.DebugLogger
}

func NewWriteExifStep() *WriteExifStep {
	return &WriteExifStep{debug: logger.NewDebugLogger("write_exif")}
}

func (s *WriteExifStep) Name() string {
	return pipeline.StepWriteExif
}

func (s *WriteExifStep) ShouldSkip(ctx *pipeline.Context) bool {
	return !ctx.Config.WriteExif || ctx.Config.DryRun
}

func imageBatchThreshold() int {
	if runtime.GOOS == "windows" {
		return 60
	}
	return 120
}

const videoBatchThreshold = 12

func (s *WriteExifStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("write_exif").
		WithBool("exiftool", ctx.Exiftool != nil).
		WithBool("batch", ctx.Config.EnableExiftoolBatch).
		Build()

	counters := newExifCounters()
	var imageQueue, videoQueue []batchItem

	flushAll := func() {
		s.flush(ctx, counters, imageQueue)
		s.flush(ctx, counters, videoQueue)
		imageQueue, videoQueue = nil, nil
	}

	for _, e := range ctx.Collection.Entities() {
		date := e.DateTaken
		lat, lon, hasGPS := s.resolveCoordinates(e)
		if date == nil && !hasGPS {
			continue
		}

		category := categoryCombined
		switch {
		case date != nil && !hasGPS:
			category = categoryDate
		case date == nil && hasGPS:
			category = categoryGPS
		}

		for _, file := range e.AllFiles() {
			if file.TargetPath == "" || file.IsShortcut {
				continue
			}
			counters.totalFiles++
			isPrimary := file == e.Primary

			ext := strings.ToLower(filepath.Ext(file.TargetPath))
			if _, unsupported := unsupportedWriteExtensions[ext]; unsupported && !ctx.Config.ForceProcessUnsupportedFormats {
				zap.S().Debugw("unsupported format skipped", "path", file.TargetPath)
				continue
			}

			isJPEG := ext == ".jpg" || ext == ".jpeg"
			if isJPEG {
				start := time.Now()
				err := s.writeNative(file.TargetPath, date, lat, lon, hasGPS)
				counters.nativeDuration += time.Since(start)
				if err == nil {
					counters.nativeWritten++
					s.record(counters, category, isPrimary, true)
					continue
				}
				zap.S().Debugw("native JPEG write failed", "path", file.TargetPath, "error", err)
				if ctx.Exiftool == nil {
					s.record(counters, category, isPrimary, false)
					continue
				}
				// fall through to the external tool
			} else if ctx.Exiftool == nil {
				continue
			}

			item := batchItem{
				entry:     exiftool.BatchEntry{File: file.TargetPath, Tags: buildTags(date, lat, lon, hasGPS)},
				category:  category,
				isPrimary: isPrimary,
			}

			if !ctx.Config.EnableExiftoolBatch {
				s.flush(ctx, counters, []batchItem{item})
				continue
			}

			if _, video := videoExtensions[ext]; video {
				videoQueue = append(videoQueue, item)
				if len(videoQueue) >= videoBatchThreshold {
					s.flush(ctx, counters, videoQueue)
					videoQueue = nil
				}
			} else {
				imageQueue = append(imageQueue, item)
				if len(imageQueue) >= imageBatchThreshold() {
					s.flush(ctx, counters, imageQueue)
					imageQueue = nil
				}
			}
		}
	}

	flushAll()
	s.cleanupToolTemp(ctx)

	tracer.Success().
		WithInt("total_files", counters.totalFiles).
		WithInt("native_written", counters.nativeWritten).
		WithInt("external_written", counters.externalWritten).
		WithInt("date_written", counters.written["date"]+counters.written["combined"]).
		WithInt("gps_written", counters.written["gps"]+counters.written["combined"]).
		WithInt("fails", counters.fails["date"]+counters.fails["gps"]+counters.fails["combined"]).
		Log()

	result := pipeline.SuccessResult("exif written")
	result.Data["datetimes_written"] = counters.written["date"] + counters.written["combined"]
	result.Data["coordinates_written"] = counters.written["gps"] + counters.written["combined"]
	result.Data["datetimes_primary"] = counters.datePrimary
	result.Data["datetimes_secondary"] = counters.dateSecondary
	result.Data["coordinates_primary"] = counters.gpsPrimary
	result.Data["coordinates_secondary"] = counters.gpsSecondary
	return result
}

// resolveCoordinates reads GPS once per entity from the primary's sidecar.
func (s *WriteExifStep) resolveCoordinates(e *entity.MediaEntity) (float64, float64, bool) {
	sidecarPath, ok := sidecar.Find(e.Primary.SourcePath, true)
	if !ok {
		return 0, 0, false
	}
	md, err := sidecar.Parse(sidecarPath)
	if err != nil {
		return 0, 0, false
	}
	return md.Coordinates()
}

func (s *WriteExifStep) writeNative(path string, date *time.Time, lat, lon float64, hasGPS bool) error {
	var latPtr, lonPtr *float64
	if hasGPS {
		latPtr, lonPtr = &lat, &lon
	}
	return exifnative.WriteJPEG(path, date, latPtr, lonPtr)
}

// record books one file outcome under its category.
func (s *WriteExifStep) record(counters *exifCounters, category writeCategory, isPrimary, success bool) {
	key := category.String()
	if !success {
		counters.fails[key]++
		return
	}
	counters.written[key]++

	if category == categoryDate || category == categoryCombined {
		if isPrimary {
			counters.datePrimary++
		} else {
			counters.dateSecondary++
		}
	}
	if category == categoryGPS || category == categoryCombined {
		if isPrimary {
			counters.gpsPrimary++
		} else {
			counters.gpsSecondary++
		}
	}
}

// flush writes a batch through the external tool. A failing batch splits in
// half recursively until single files are written (and counted) one by one.
func (s *WriteExifStep) flush(ctx *pipeline.Context, counters *exifCounters, items []batchItem) {
	if len(items) == 0 || ctx.Exiftool == nil {
		return
	}

	entries := make([]exiftool.BatchEntry, len(items))
	for i, item := range items {
		entries[i] = item.entry
	}

	start := time.Now()
	err := ctx.Exiftool.WriteBatch(ctx.Ctx, entries)
	duration := time.Since(start)

	if err == nil {
		counters.externalDuration += duration
		counters.externalWritten += len(items)
		for _, item := range items {
			s.record(counters, item.category, item.isPrimary, true)
		}
		return
	}

	if len(items) == 1 {
		zap.S().Warnw("exif write failed", "path", items[0].entry.File, "error", err)
		s.record(counters, items[0].category, items[0].isPrimary, false)
		return
	}

	zap.S().Debugw("batch write failed, splitting", "size", len(items), "error", err)
	mid := len(items) / 2
	s.flush(ctx, counters, items[:mid])
	s.flush(ctx, counters, items[mid:])
}

// cleanupToolTemp removes leftover exiftool temp files from the output tree.
func (s *WriteExifStep) cleanupToolTemp(ctx *pipeline.Context) {
	filepath.WalkDir(ctx.Config.OutputDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), "_exiftool_tmp") {
			if rmErr := os.Remove(path); rmErr != nil {
				zap.S().Debugw("failed to remove exiftool temp file", "path", path, "error", rmErr)
			}
		}
		return nil
	})
}

// buildTags assembles the external-tool tag map for one file.
func buildTags(date *time.Time, lat, lon float64, hasGPS bool) map[string]string {
	tags := map[string]string{}
	if date != nil {
		value := date.Format("2006:01:02 15:04:05")
		tags["DateTimeOriginal"] = value
		tags["DateTimeDigitized"] = value
		tags["DateTime"] = value
	}
	if hasGPS {
		latRef, lonRef := "N", "E"
		if lat < 0 {
			latRef = "S"
		}
		if lon < 0 {
			lonRef = "W"
		}
		tags["GPSLatitude"] = fmt.Sprintf("%f", abs(lat))
		tags["GPSLatitudeRef"] = latRef
		tags["GPSLongitude"] = fmt.Sprintf("%f", abs(lon))
		tags["GPSLongitudeRef"] = lonRef
	}
	return tags
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
