package services

import (
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

// reverseShortcutStrategy keeps the physical files inside the album folders
// and leaves a shortcut in ALL_PHOTOS. Every non-canonical file moves into
// its album folder; the best-ranked one becomes the link target. Entities
// without album copies fall back to a plain move into ALL_PHOTOS.
type reverseShortcutStrategy struct{}

func (s *reverseShortcutStrategy) Name() string {
	return "reverse-shortcut"
}

func (s *reverseShortcutStrategy) Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult {
	var ops []OperationResult

	var nonCanonical []*entity.FileEntity
	for _, file := range e.AllFiles() {
		if !file.IsCanonical {
			nonCanonical = append(nonCanonical, file)
		}
	}

	if len(nonCanonical) == 0 {
		op := timedOp("move", func() (string, error) {
			return ctx.FS.Move(e.Primary.SourcePath, allPhotosDir(ctx, e), e.DateTaken)
		})
		if op.Success {
			e.Primary.TargetPath = op.ResultPath
			e.Primary.IsShortcut = false
		}
		return append(ops, op)
	}

	// All album moves complete before the link target is picked.
	for _, file := range nonCanonical {
		file := file
		dir := albumDir(ctx, albumOfFile(e, file))
		op := timedOp("move", func() (string, error) {
			return ctx.FS.Move(file.SourcePath, dir, e.DateTaken)
		})
		if op.Success {
			file.TargetPath = op.ResultPath
			file.IsShortcut = false
		}
		ops = append(ops, op)
	}

	var best *entity.FileEntity
	for _, file := range nonCanonical {
		if file.TargetPath == "" {
			continue
		}
		if best == nil || file.Ranking < best.Ranking {
			best = file
		}
	}
	if best == nil {
		return ops
	}

	linkOp := timedOp("symlink", func() (string, error) {
		return ctx.FS.Symlink(allPhotosDir(ctx, e), best.TargetPath)
	})
	ops = append(ops, linkOp)

	if linkOp.Success && e.Primary.IsCanonical {
		e.Primary.TargetPath = linkOp.ResultPath
		e.Primary.IsShortcut = true
	}

	return ops
}

func (s *reverseShortcutStrategy) Finalize(ctx *pipeline.Context) error {
	return nil
}
