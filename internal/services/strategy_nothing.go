package services

import (
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

// nothingStrategy flattens everything: every physical file, primary and
// secondaries alike, moves to ALL_PHOTOS. No albums, no shortcuts, no data
// loss in move mode.
type nothingStrategy struct{}

func (s *nothingStrategy) Name() string {
	return "nothing"
}

func (s *nothingStrategy) Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult {
	dir := allPhotosDir(ctx, e)

	var ops []OperationResult
	for _, file := range e.AllFiles() {
		file := file
		op := timedOp("move", func() (string, error) {
			return ctx.FS.Move(file.SourcePath, dir, e.DateTaken)
		})
		if op.Success {
			file.TargetPath = op.ResultPath
			file.IsShortcut = false
		}
		ops = append(ops, op)
	}
	return ops
}

func (s *nothingStrategy) Finalize(ctx *pipeline.Context) error {
	return nil
}
