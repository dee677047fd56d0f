package services

import (
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

// duplicateCopyStrategy keeps one physical copy in ALL_PHOTOS and a full
// physical copy in every album folder. When the entity's best file lives
// inside an album folder it is moved (not copied) out first.
type duplicateCopyStrategy struct{}

func (s *duplicateCopyStrategy) Name() string {
	return "duplicate-copy"
}

func (s *duplicateCopyStrategy) Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult {
	var ops []OperationResult

	// A non-canonical primary physically resides inside an album folder; the
	// move relocates it to ALL_PHOTOS either way.
	moveOp := timedOp("move", func() (string, error) {
		return ctx.FS.Move(e.Primary.SourcePath, allPhotosDir(ctx, e), e.DateTaken)
	})
	ops = append(ops, moveOp)
	if !moveOp.Success {
		return ops
	}
	e.Primary.TargetPath = moveOp.ResultPath
	e.Primary.IsShortcut = false

	for _, name := range sortedAlbumNames(e) {
		info := e.Albums[name]
		dir := albumDir(ctx, name)
		copied := false

		for _, secondary := range e.Secondaries {
			if secondary.IsCanonical || !fileBelongsToAlbum(secondary, info) {
				continue
			}
			secondary := secondary
			op := timedOp("copy", func() (string, error) {
				return ctx.FS.Copy(secondary.SourcePath, dir, e.DateTaken)
			})
			if op.Success {
				secondary.TargetPath = op.ResultPath
				secondary.IsShortcut = false
				copied = true
			}
			ops = append(ops, op)
		}

		if !copied {
			ops = append(ops, timedOp("copy", func() (string, error) {
				return ctx.FS.Copy(e.Primary.TargetPath, dir, e.DateTaken)
			}))
		}
	}

	return ops
}

func (s *duplicateCopyStrategy) Finalize(ctx *pipeline.Context) error {
	return nil
}
