package services

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/datastore/fs"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// rawExtensions are TIFF-container RAW formats that content sniffing reports
// as image/tiff; renaming them would be destructive, so they are never fixed.
var rawExtensions = map[string]struct{}{
	".cr2": {}, ".cr3": {}, ".nef": {}, ".arw": {}, ".dng": {},
	".raf": {}, ".orf": {}, ".rw2": {}, ".pef": {}, ".srw": {},
}

// conservativeSafe are the detected types conservative mode is willing to act
// on: still formats where the magic number is unambiguous.
var conservativeSafe = map[string]struct{}{
	"image/jpeg": {}, "image/png": {}, "image/gif": {}, "image/webp": {},
}

// extensionAliases maps equivalent spellings so jpg/jpeg mismatches are not
// "fixed" into churn.
var extensionAliases = map[string]string{
	".jpeg": ".jpg",
	".tif":  ".tiff",
	".qt":   ".mov",
	".heif": ".heic",
}

// FixExtensionsStep corrects file extensions that disagree with the
// content-sniffed type, and optionally renames Pixel motion photos to .mp4.
type FixExtensionsStep struct {
	debug *logger.DebugLogger
}

func NewFixExtensionsStep() *FixExtensionsStep {
	return &FixExtensionsStep{debug: logger.NewDebugLogger("fix_extensions")}
}

func (s *FixExtensionsStep) Name() string {
	return pipeline.StepFixExtensions
}

func (s *FixExtensionsStep) ShouldSkip(ctx *pipeline.Context) bool {
	return ctx.Config.ExtensionFixing == config.ExtensionFixingNone &&
		!ctx.Config.TransformPixelMotionPhotos
}

func (s *FixExtensionsStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("fix_extensions").
		WithString("mode", ctx.Config.ExtensionFixing).
		Build()

	files, err := ctx.FS.Walk(ctx.Config.InputDir, fs.FilterFiles)
	if err != nil {
		return pipeline.FailureResult("failed to walk input directory", err)
	}

	fixed := 0
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Path))
		if ext == ".json" {
			continue
		}

		if ctx.Config.TransformPixelMotionPhotos && (ext == ".mp" || ext == ".mv") {
			if s.rename(ctx, file.Path, ".mp4") {
				fixed++
			}
			continue
		}

		if ctx.Config.ExtensionFixing == config.ExtensionFixingNone {
			continue
		}
		if _, raw := rawExtensions[ext]; raw {
			continue
		}

		mtype, err := mimetype.DetectFile(file.Path)
		if err != nil {
			zap.S().Debugw("failed to sniff file type", "path", file.Path, "error", err)
			continue
		}

		mime := mtype.String()
		if !strings.HasPrefix(mime, "image/") && !strings.HasPrefix(mime, "video/") {
			continue
		}
		if ctx.Config.ExtensionFixing == config.ExtensionFixingConservative {
			if _, safe := conservativeSafe[mime]; !safe {
				continue
			}
		}

		detected := canonicalExt(mtype.Extension())
		if detected == "" || detected == canonicalExt(ext) {
			continue
		}

		if s.rename(ctx, file.Path, detected) {
			fixed++
		}
	}

	tracer.Success().
		WithInt("files_checked", len(files)).
		WithInt("extensions_fixed", fixed).
		Log()

	result := pipeline.SuccessResult("extensions fixed")
	result.Data["extensions_fixed"] = fixed
	if ctx.Config.ExtensionFixing == config.ExtensionFixingSolo {
		result.Data[pipeline.DataHalt] = true
	}
	return result
}

// rename swaps the file's extension and drags an identity-named sidecar along
// so the JSON matcher still finds it.
func (s *FixExtensionsStep) rename(ctx *pipeline.Context, path, newExt string) bool {
	oldExt := filepath.Ext(path)
	newPath := strings.TrimSuffix(path, oldExt) + newExt
	if _, err := os.Lstat(newPath); err == nil {
		newPath = ctx.FS.UniqueTargetPath(filepath.Dir(path), filepath.Base(strings.TrimSuffix(path, oldExt))+newExt)
	}

	if err := os.Rename(path, newPath); err != nil {
		zap.S().Warnw("failed to fix extension", "path", path, "error", err)
		return false
	}

	sidecarPath := path + ".json"
	if _, err := os.Stat(sidecarPath); err == nil {
		if err := os.Rename(sidecarPath, newPath+".json"); err != nil {
			zap.S().Warnw("failed to rename sidecar after extension fix", "path", sidecarPath, "error", err)
		}
	}

	zap.S().Debugw("extension fixed", "from", path, "to", newPath)
	return true
}

func canonicalExt(ext string) string {
	ext = strings.ToLower(ext)
	if canonical, ok := extensionAliases[ext]; ok {
		return canonical
	}
	return ext
}
