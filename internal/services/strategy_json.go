package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/entity"
	"git.tls.tupangiu.ro/cosmin/takeout-ng/internal/pipeline"
)

// albumManifestEntry is one line of the albums-info.json manifest.
type albumManifestEntry struct {
	OriginalFilename            string `json:"originalFilename"`
	PrimaryRelativePathInOutput string `json:"primaryRelativePathInOutput"`
	AlbumRelativePathUnderAlbum string `json:"albumRelativePathUnderAlbums"`
}

type albumManifestMetadata struct {
	Generated     string `json:"generated"`
	TotalAlbums   int    `json:"total_albums"`
	TotalEntities int    `json:"total_entities"`
	Strategy      string `json:"strategy"`
}

type albumManifest struct {
	Albums   map[string][]albumManifestEntry `json:"albums"`
	Metadata albumManifestMetadata           `json:"metadata"`
}

// jsonStrategy moves only primaries into ALL_PHOTOS and expresses album
// relationships in a single manifest. Non-primary physical files are parked
// under _Duplicates with their input-relative path preserved.
type jsonStrategy struct {
	mu       sync.Mutex
	albums   map[string][]albumManifestEntry
	entities int
}

func newJSONStrategy() *jsonStrategy {
	return &jsonStrategy{albums: make(map[string][]albumManifestEntry)}
}

func (s *jsonStrategy) Name() string {
	return "json"
}

func (s *jsonStrategy) Process(ctx *pipeline.Context, e *entity.MediaEntity) []OperationResult {
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

	// Secondaries must not land in ALL_PHOTOS; they are parked under
	// _Duplicates with the source layout preserved.
	for _, secondary := range e.Secondaries {
		secondary := secondary
		relDir := duplicatesRelDir(ctx, secondary)
		op := timedOp("move", func() (string, error) {
			return ctx.FS.Move(secondary.SourcePath, filepath.Join(ctx.Config.OutputDir, duplicatesFolder, relDir), e.DateTaken)
		})
		if op.Success {
			secondary.TargetPath = op.ResultPath
			secondary.IsShortcut = false
		}
		ops = append(ops, op)
	}

	primaryRel, err := filepath.Rel(ctx.Config.OutputDir, e.Primary.TargetPath)
	if err != nil {
		primaryRel = e.Primary.TargetPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities++
	for _, name := range sortedAlbumNames(e) {
		info := e.Albums[name]

		// A non-canonical secondary discovered under the album represents the
		// entity there; otherwise the primary does.
		represented := false
		for _, secondary := range e.Secondaries {
			if secondary.IsCanonical || !fileBelongsToAlbum(secondary, info) {
				continue
			}
			s.albums[name] = append(s.albums[name], albumManifestEntry{
				OriginalFilename:            secondary.Basename(),
				PrimaryRelativePathInOutput: filepath.ToSlash(primaryRel),
				AlbumRelativePathUnderAlbum: filepath.ToSlash(filepath.Join(name, secondary.Basename())),
			})
			represented = true
		}
		if !represented {
			s.albums[name] = append(s.albums[name], albumManifestEntry{
				OriginalFilename:            e.Primary.Basename(),
				PrimaryRelativePathInOutput: filepath.ToSlash(primaryRel),
				AlbumRelativePathUnderAlbum: filepath.ToSlash(filepath.Join(name, e.Primary.Basename())),
			})
		}
	}

	return ops
}

// Finalize writes albums-info.json at the output root.
func (s *jsonStrategy) Finalize(ctx *pipeline.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest := albumManifest{
		Albums: s.albums,
		Metadata: albumManifestMetadata{
			Generated:     time.Now().UTC().Format(time.RFC3339),
			TotalAlbums:   len(s.albums),
			TotalEntities: s.entities,
			Strategy:      "json",
		},
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(ctx.Config.OutputDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ctx.Config.OutputDir, "albums-info.json"), data, 0644)
}

// duplicatesRelDir preserves the secondary's directory layout relative to the
// input root.
func duplicatesRelDir(ctx *pipeline.Context, file *entity.FileEntity) string {
	rel, err := filepath.Rel(ctx.Config.InputDir, file.SourceDir())
	if err != nil || rel == ".." || filepath.IsAbs(rel) {
		return filepath.Base(file.SourceDir())
	}
	return rel
}
