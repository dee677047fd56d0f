package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	bar "github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/concurrency"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

const (
	allPhotosFolder     = "ALL_PHOTOS"
	partnerSharedFolder = "PARTNER_SHARED"
	duplicatesFolder    = "_Duplicates"
	dateUnknownFolder   = "date-unknown"

	// moveBatchSize is how many entities are dispatched per concurrent batch.
	moveBatchSize = 100
)

// OperationResult is one filesystem operation performed by a strategy.
type OperationResult struct {
	Operation  string
	Success    bool
	ResultPath string
	Duration   time.Duration
	Err        error
}

// Strategy places an entity's files into the output tree. Operations within
// one entity run strictly sequentially so ordering invariants hold (move
// before shortcut, all non-canonical moves before the reverse pick).
type Strategy interface {
	Name() string
	Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult
	Finalize(ctx *pipeline.Context) error
}

// NewStrategy builds the strategy for the configured album behavior.
func NewStrategy(behavior string) (Strategy, error) {
	switch behavior {
	case config.AlbumBehaviorNothing:
		return &nothingStrategy{}, nil
	case config.AlbumBehaviorShortcut:
		return &shortcutStrategy{}, nil
	case config.AlbumBehaviorDuplicateCopy:
		return &duplicateCopyStrategy{}, nil
	case config.AlbumBehaviorReverseShortcut:
		return &reverseShortcutStrategy{}, nil
	case config.AlbumBehaviorJSON:
		return newJSONStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown album behavior: %q", behavior)
	}
}

// MoveFilesStep runs the configured strategy over every entity with bounded
// concurrency, annotating target paths as it goes.
type MoveFilesStep struct {
	debug *logger.DebugLogger
}

func NewMoveFilesStep() *MoveFilesStep {
	return &MoveFilesStep{debug: logger.NewDebugLogger("move_files")}
}

func (s *MoveFilesStep) Name() string {
	return pipeline.StepMoveFiles
}

func (s *MoveFilesStep) ShouldSkip(ctx *pipeline.Context) bool {
	return false
}

func (s *MoveFilesStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	strategy, err := NewStrategy(ctx.Config.AlbumBehavior)
	if err != nil {
		return pipeline.FailureResult("invalid album behavior", err)
	}

	tracer := s.debug.StartOperation("move_files").
		WithString("strategy", strategy.Name()).
		WithInt("entities", ctx.Collection.Len()).
		WithBool("dry_run", ctx.Config.DryRun).
		Build()

	entities := ctx.Collection.Entities()

	if ctx.Config.DryRun {
		for _, e := range entities {
			zap.S().Infow("dry run: would place entity",
				"primary", e.Primary.SourcePath,
				"target_dir", allPhotosDir(ctx, e),
				"albums", len(e.Albums),
				"secondaries", len(e.Secondaries))
		}
		result := pipeline.SuccessResult("dry run: no files touched")
		result.Data["files_moved"] = 0
		return result
	}

	var progress *bar.ProgressBar
	if !ctx.Config.Verbose {
		progress = bar.Default(int64(len(entities)), "Moving files")
	}

	moved, copied, shortcuts, failures := 0, 0, 0, 0
	results := make([][]OperationResult, len(entities))

	for start := 0; start < len(entities); start += moveBatchSize {
		end := start + moveBatchSize
		if end > len(entities) {
			end = len(entities)
		}
		batch := entities[start:end]

		err := ctx.Concurrency.Do(ctx.Ctx, concurrency.OpMoveCopy, len(batch), func(_ context.Context, i int) error {
			results[start+i] = strategy.Process(ctx, batch[i])
			if progress != nil {
				progress.Add(1)
			}
			return nil
		})
		if err != nil {
			return pipeline.FailureResult("move stage failed", err)
		}
	}

	for i, ops := range results {
		for _, op := range ops {
			if !op.Success {
				failures++
				zap.S().Warnw("file operation failed",
					"operation", op.Operation,
					"entity", entities[i].Primary.SourcePath,
					"error", op.Err)
				continue
			}
			switch op.Operation {
			case "move":
				moved++
			case "copy":
				copied++
			case "symlink", "shortcut":
				shortcuts++
			}
			if ctx.Config.Verbose {
				zap.S().Debugw("file operation", "operation", op.Operation, "result", op.ResultPath, "duration", op.Duration)
			}
		}
	}

	if err := strategy.Finalize(ctx); err != nil {
		return pipeline.FailureResult("strategy finalize failed", err)
	}

	tracer.Success().
		WithInt("files_moved", moved).
		WithInt("files_copied", copied).
		WithInt("shortcuts_created", shortcuts).
		WithInt("failures", failures).
		Log()

	result := pipeline.SuccessResult("files placed")
	result.Data["files_moved"] = moved
	result.Data["files_copied"] = copied
	result.Data["shortcuts_created"] = shortcuts
	result.Data["operation_failures"] = failures
	return result
}

// allPhotosDir resolves the canonical output directory for an entity:
// PARTNER_SHARED for partner-shared entities, ALL_PHOTOS otherwise, with
// date subfolders per the configured division.
func allPhotosDir(ctx *pipeline.Context, e *entity.MediaEntity) string {
	root := allPhotosFolder
	if e.PartnerShared {
		root = partnerSharedFolder
	}
	dir := filepath.Join(ctx.Config.OutputDir, root)

	if ctx.Config.DateDivision == config.DateDivisionNone {
		return dir
	}
	if e.DateTaken == nil {
		return filepath.Join(dir, dateUnknownFolder)
	}

	t := *e.DateTaken
	switch ctx.Config.DateDivision {
	case config.DateDivisionYear:
		return filepath.Join(dir, fmt.Sprintf("%04d", t.Year()))
	case config.DateDivisionYearMonth:
		return filepath.Join(dir, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()))
	case config.DateDivisionYearMonthDay:
		return filepath.Join(dir, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()), fmt.Sprintf("%02d", t.Day()))
	default:
		return dir
	}
}

// albumDir resolves an album's output directory. Date division never applies
// inside albums.
func albumDir(ctx *pipeline.Context, name string) string {
	return filepath.Join(ctx.Config.OutputDir, name)
}

// sortedAlbumNames returns an entity's album names in stable order.
func sortedAlbumNames(e *entity.MediaEntity) []string {
	names := make([]string, 0, len(e.Albums))
	for name := range e.Albums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fileBelongsToAlbum reports whether the file was discovered under one of the
// album's source folders.
func fileBelongsToAlbum(file *entity.FileEntity, info *entity.AlbumInfo) bool {
	return info.ContainsDirectory(file.SourceDir())
}

// albumOfFile infers the album a non-canonical file belongs to; falls back to
// the entity's first album when the parent matches none.
func albumOfFile(e *entity.MediaEntity, file *entity.FileEntity) string {
	names := sortedAlbumNames(e)
	for _, name := range names {
		if fileBelongsToAlbum(file, e.Albums[name]) {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func timedOp(operation string, fn func() (string, error)) OperationResult {
	start := time.Now()
	path, err := fn()
	return OperationResult{
		Operation:  operation,
		Success:    err == nil,
		ResultPath: path,
		Duration:   time.Since(start),
		Err:        err,
	}
}
