package services

import (
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/logger"
)

// ConsolidateAlbumsStep re-walks the collection against the global album
// registry so every entity lists a membership for each album folder any of
// its files lives under. Dedup can attach files to an entity after discovery
// attributed its albums; this pass repairs that. It is idempotent.
type ConsolidateAlbumsStep struct {
	debug *logger.DebugLogger
}

func NewConsolidateAlbumsStep() *ConsolidateAlbumsStep {
	return &ConsolidateAlbumsStep{debug: logger.NewDebugLogger("consolidate_albums")}
}

func (s *ConsolidateAlbumsStep) Name() string {
	return pipeline.StepConsolidateAlbums
}

func (s *ConsolidateAlbumsStep) ShouldSkip(ctx *pipeline.Context) bool {
	return len(ctx.Albums) == 0
}

func (s *ConsolidateAlbumsStep) Execute(ctx *pipeline.Context) pipeline.StepResult {
	tracer := s.debug.StartOperation("consolidate_albums").
		WithInt("albums", len(ctx.Albums)).
		Build()

	repaired := 0
	for _, e := range ctx.Collection.Entities() {
		for _, file := range e.AllFiles() {
			parent := file.SourceDir()
			for name, info := range ctx.Albums {
				if !info.ContainsDirectory(parent) {
					continue
				}
				if existing, ok := e.Albums[name]; ok {
					if !existing.ContainsDirectory(parent) {
						existing.AddSourceDirectory(parent)
						repaired++
					}
					continue
				}
				e.AddAlbum(name, parent)
				repaired++
			}
		}
	}

	tracer.Success().
		WithInt("memberships_repaired", repaired).
		Log()

	result := pipeline.SuccessResult("albums consolidated")
	result.Data["memberships_repaired"] = repaired
	return result
}
