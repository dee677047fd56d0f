package services

import (
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

// shortcutStrategy keeps one physical copy in ALL_PHOTOS and represents every
// album membership with a shortcut pointing at it. A non-canonical secondary
// discovered under an album folder becomes that album's shortcut; albums with
// no such secondary still get one.
type shortcutStrategy struct{}

func (s *shortcutStrategy) Name() string {
	return "shortcut"
}

func (s *shortcutStrategy) Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult {
	var ops []OperationResult

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
		represented := false

		for _, secondary := range e.Secondaries {
			if secondary.IsCanonical || !fileBelongsToAlbum(secondary, info) {
				continue
			}
			secondary := secondary
			op := timedOp("symlink", func() (string, error) {
				return ctx.FS.Symlink(dir, e.Primary.TargetPath)
			})
			if op.Success {
				secondary.TargetPath = op.ResultPath
				secondary.IsShortcut = true
				represented = true
			}
			ops = append(ops, op)
		}

		if !represented {
			ops = append(ops, timedOp("symlink", func() (string, error) {
				return ctx.FS.Symlink(dir, e.Primary.TargetPath)
			}))
		}
	}

	return ops
}

func (s *shortcutStrategy) Finalize(ctx *pipeline.Context) error {
	return nil
}
