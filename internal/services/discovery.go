package services

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	bar "github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/datastore/fs"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/extras"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/sidecar"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

var yearFolderRe = regexp.MustCompile(`^Photos from (18|19|20)\d{2}$`)

// mediaExtensions is the extension whitelist used when extension fixing is
// active (the content of a file may not match its name yet).
var mediaExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {},
	".tif": {}, ".tiff": {}, ".heic": {}, ".heif": {}, ".avif": {},
	".dng": {}, ".cr2": {}, ".cr3": {}, ".nef": {}, ".arw": {}, ".raf": {}, ".orf": {}, ".rw2": {},
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".wmv": {}, ".m4v": {},
	".3gp": {}, ".webm": {}, ".mts": {}, ".m2ts": {}, ".mpg": {}, ".mpeg": {},
	".mp": {}, ".mv": {},
}

type folderKind int

const (
	folderOther folderKind = iota
	folderYear
	folderAlbum
)

// DiscoveryStep walks the takeout tree, classifies year and album folders,
// and populates the collection with single-file entities.
type DiscoveryStep struct {
	debug *logger.DebugLogger

	classification map[string]folderKind
}

func NewDiscoveryStep() *DiscoveryStep {
	return &DiscoveryStep{
		debug:          logger.NewDebugLogger("discovery"),
		classification: make(map[string]folderKind),
	}
}

func (s *DiscoveryStep) Name() string {
	return pipeline.StepDiscoverMedia
}

func (s *DiscoveryStep) ShouldSkip(ctx *pipeline.Context) bool {
	return false
}

func (s *DiscoveryStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("discover_media").
		WithString("input", ctx.Config.InputDir).
		Build()

	root, err := resolveMediaRoot(ctx.Config.InputDir)
	if err != nil {
		return pipeline.FailureResult("input directory not found", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return pipeline.FailureResult("failed to list input directory", &ErrInputNotFound{Path: root})
	}

	byExtension := ctx.Config.ExtensionFixing != config.ExtensionFixingNone
	trashedSkipped := 0

	var progress *bar.ProgressBar
	if !ctx.Config.Verbose {
		progress = bar.Default(int64(len(entries)), "Scanning folders")
	}

	for _, dirEntry := range entries {
		if progress != nil {
			progress.Add(1)
		}
		if !dirEntry.IsDir() {
			continue
		}

		folder := filepath.Join(root, dirEntry.Name())
		kind := s.classify(folder, byExtension)
		if kind == folderOther {
			continue
		}

		albumName := ""
		if kind == folderAlbum {
			albumName = albumTitle(folder)
		}

		files, err := ctx.FS.Walk(folder, fs.FilterFiles)
		if err != nil {
			zap.S().Warnw("failed to scan folder", "folder", folder, "error", err)
			continue
		}

		found := 0
		for _, file := range files {
			if !s.isMediaFile(file.Path, byExtension) {
				continue
			}

			fileEntity := entity.NewFileEntity(file.Path, kind == folderYear)
			media := entity.NewMediaEntity(fileEntity)

			if sidecarPath, ok := sidecar.Find(file.Path, false); ok {
				if md, err := sidecar.Parse(sidecarPath); err == nil {
					media.PartnerShared = md.IsPartnerShared()
					media.Trashed = md.Trashed
				} else {
					zap.S().Debugw("malformed sidecar ignored", "sidecar", sidecarPath, "error", err)
				}
			}

			if media.Trashed {
				trashedSkipped++
				continue
			}

			if kind == folderAlbum {
				media.AddAlbum(albumName, filepath.Dir(file.Path))
				ctx.RegisterAlbum(albumName, filepath.Dir(file.Path))
			}

			ctx.Collection.Add(media)
			found++
		}

		zap.S().Debugw("folder scanned", "folder", folder, "kind", kindName(kind), "media_files", found)
	}

	extrasSkipped := 0
	if ctx.Config.SkipExtras {
		extrasSkipped = ctx.Collection.Remove(func(e *entity.MediaEntity) bool {
			return extras.IsExtra(e.Primary.Basename())
		})
	}

	tracer.Success().
		WithInt("entities", ctx.Collection.Len()).
		WithInt("extras_skipped", extrasSkipped).
		WithInt("trashed_skipped", trashedSkipped).
		Log()

	if ctx.Collection.Len() == 0 {
		return pipeline.FailureResult("no media files found", &ErrInputNotFound{Path: root})
	}

	result := pipeline.SuccessResult("media discovered")
	result.Data["entities_discovered"] = ctx.Collection.Len()
	result.Data["extras_skipped"] = extrasSkipped
	result.Data["trashed_skipped"] = trashedSkipped
	return result
}

// resolveMediaRoot accepts either the Google Photos folder itself or the
// takeout root above it.
func resolveMediaRoot(input string) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", &ErrInputNotFound{Path: input}
	}

	nested := filepath.Join(input, "Takeout", "Google Photos")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested, nil
	}
	nested = filepath.Join(input, "Google Photos")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested, nil
	}
	return input, nil
}

// classify decides year/album/other for a top-level folder, memoized by
// absolute path.
func (s *DiscoveryStep) classify(folder string, byExtension bool) folderKind {
	if kind, ok := s.classification[folder]; ok {
		return kind
	}

	kind := folderOther
	if yearFolderRe.MatchString(filepath.Base(folder)) {
		kind = folderYear
	} else if s.containsMedia(folder, byExtension) {
		kind = folderAlbum
	}

	s.classification[folder] = kind
	return kind
}

func (s *DiscoveryStep) containsMedia(folder string, byExtension bool) bool {
	found := false
	filepath.WalkDir(folder, func(path string, entry os.DirEntry, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}
		if entry.IsDir() {
			return nil
		}
		if s.isMediaFile(path, byExtension) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// isMediaFile includes a file either by extension whitelist (when extension
// fixing will run) or by content sniffing, with a sidecar's presence rescuing
// files whose magic number is unknown.
func (s *DiscoveryStep) isMediaFile(path string, byExtension bool) bool {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	if ext == ".json" || strings.EqualFold(base, "metadata.json") {
		return false
	}

	if byExtension {
		_, ok := mediaExtensions[ext]
		return ok
	}

	mtype, err := mimetype.DetectFile(path)
	if err == nil {
		mime := mtype.String()
		if strings.HasPrefix(mime, "image/") || strings.HasPrefix(mime, "video/") {
			return true
		}
	}

	if info, err := os.Stat(path + ".json"); err == nil && !info.IsDir() {
		return true
	}
	return false
}

// albumTitle prefers the title from the album's metadata.json over the folder
// basename.
func albumTitle(folder string) string {
	metaPath := filepath.Join(folder, "metadata.json")
	if md, err := sidecar.ParseAlbumMetadata(metaPath); err == nil && md.Title != "" {
		return md.Title
	}
	return filepath.Base(folder)
}

func kindName(kind folderKind) string {
	switch kind {
	case folderYear:
		return "year"
	case folderAlbum:
		return "album"
	default:
		return "other"
	}
}
