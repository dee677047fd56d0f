package pipeline

import (
	"context"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/config"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/datastore/fs"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/concurrency"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/pkg/exiftool"
)

// Context carries everything a stage needs: the immutable per-run
// configuration, the shared media collection, and the service handles built
// at the composition root. Stages mutate the collection and the album
// registry; nothing else.
type Context struct {
	Ctx    context.Context
	Config *config.Config

	Collection *entity.MediaCollection

	// Albums is the global album registry discovery fills: album name → all
	// source folders observed for it. Consolidation re-walks it.
	Albums map[string]*entity.AlbumInfo

	FS          *fs.Datastore
	Exiftool    *exiftool.Adapter // nil when the external tool is unavailable
	Concurrency *concurrency.Manager
}

// NewContext assembles the per-run processing context.
func NewContext(ctx context.Context, cfg *config.Config, et *exiftool.Adapter) *Context {
	return &Context{
		Ctx:         ctx,
		Config:      cfg,
		Collection:  entity.NewMediaCollection(),
		Albums:      make(map[string]*entity.AlbumInfo),
		FS:          fs.NewDatastore(),
		Exiftool:    et,
		Concurrency: concurrency.NewManager(),
	}
}

// RegisterAlbum records an album folder in the global registry.
func (c *Context) RegisterAlbum(name, sourceDir string) {
	if info, ok := c.Albums[name]; ok {
		info.AddSourceDirectory(sourceDir)
		return
	}
	c.Albums[name] = entity.NewAlbumInfo(name, sourceDir)
}
