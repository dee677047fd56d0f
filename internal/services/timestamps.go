package services

import (
	"runtime"

	"go.uber.org/zap"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// UpdateTimestampsStep stamps the resolved capture time onto the output
// files: creation plus modification time on Windows, modification time only
// elsewhere (POSIX has no portable creation-time write).
type UpdateTimestampsStep struct {
	debug *logger.DebugLogger
}

func NewUpdateTimestampsStep() *UpdateTimestampsStep {
	return &UpdateTimestampsStep{debug: logger.NewDebugLogger("update_timestamps")}
}

func (s *UpdateTimestampsStep) Name() string {
	return pipeline.StepUpdateTimestamps
}

func (s *UpdateTimestampsStep) ShouldSkip(ctx *pipeline.Context) bool {
	return !ctx.Config.UpdateCreationTime || ctx.Config.DryRun
}

func (s *UpdateTimestampsStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("update_timestamps").
		WithString("platform", runtime.GOOS).
		Build()

	updated, failed := 0, 0
	for _, e := range ctx.Collection.Entities() {
		if e.DateTaken == nil {
			continue
		}
		for _, file := range e.AllFiles() {
			if file.TargetPath == "" || file.IsShortcut {
				continue
			}
			if err := setFileTimes(file.TargetPath, *e.DateTaken); err != nil {
				failed++
				zap.S().Warnw("failed to update file times", "path", file.TargetPath, "error", err)
				continue
			}
			updated++
		}
	}

	tracer.Success().
		WithInt("updated", updated).
		WithInt("failed", failed).
		Log()

	result := pipeline.SuccessResult("timestamps updated")
	result.Data["creation_times_updated"] = updated
	result.Data["creation_times_failed"] = failed
	return result
}
