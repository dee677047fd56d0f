package entity

import (
	"sort"
	"time"
)

// ExtractionMethod identifies which extractor produced an entity's date.
type ExtractionMethod string

const (
	MethodJSON     ExtractionMethod = "json"
	MethodExif     ExtractionMethod = "exif"
	MethodFilename ExtractionMethod = "filename"
	MethodFolder   ExtractionMethod = "folder"
	MethodNone     ExtractionMethod = "none"
)

// DateAccuracy ranks extraction methods; lower is better. Zero means the
// entity has no date at all.
type DateAccuracy int

const (
	AccuracyUnset    DateAccuracy = 0
	AccuracyJSON     DateAccuracy = 1
	AccuracyExif     DateAccuracy = 2
	AccuracyFilename DateAccuracy = 3
	AccuracyFolder   DateAccuracy = 4
	AccuracyNone     DateAccuracy = 5
)

// MediaEntity is one logical photo or video, possibly with several on-disk
// copies. Primary is the representative chosen by ranking; Secondaries hold
// every other copy with identical content.
type MediaEntity struct {
	ID            string
	Primary       *FileEntity
	Secondaries   []*FileEntity
	Albums        map[string]*AlbumInfo
	DateTaken     *time.Time
	DateAccuracy  DateAccuracy
	DateMethod    ExtractionMethod
	PartnerShared bool
	Trashed       bool
}

// NewMediaEntity builds a single-file entity as produced by discovery.
func NewMediaEntity(file *FileEntity) *MediaEntity {
	return &MediaEntity{
		ID:      generateId(file.SourcePath),
		Primary: file,
		Albums:  make(map[string]*AlbumInfo),
	}
}

// AllFiles returns the primary followed by every secondary.
func (m *MediaEntity) AllFiles() []*FileEntity {
	files := make([]*FileEntity, 0, 1+len(m.Secondaries))
	files = append(files, m.Primary)
	files = append(files, m.Secondaries...)
	return files
}

// AddAlbum records membership in the named album, observed under sourceDir.
func (m *MediaEntity) AddAlbum(name, sourceDir string) {
	if existing, ok := m.Albums[name]; ok {
		existing.AddSourceDirectory(sourceDir)
		return
	}
	m.Albums[name] = NewAlbumInfo(name, sourceDir)
}

// SetDate stores a date only when the new accuracy beats the current one.
// Ties keep the already-set value.
func (m *MediaEntity) SetDate(t time.Time, accuracy DateAccuracy, method ExtractionMethod) {
	if m.DateAccuracy != AccuracyUnset && m.DateAccuracy <= accuracy {
		return
	}
	m.DateTaken = &t
	m.DateAccuracy = accuracy
	m.DateMethod = method
}

// Merge folds other into this entity. Both must share the same content hash.
// The primary with the lowest ranking wins; everything else becomes a
// secondary ordered by ranking. Album maps union, dates keep the better
// accuracy with ties toward the already-set value.
func (m *MediaEntity) Merge(other *MediaEntity) {
	files := append(m.AllFiles(), other.AllFiles()...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Ranking < files[j].Ranking })

	m.Primary = files[0]
	m.Secondaries = files[1:]

	for name, info := range other.Albums {
		if existing, ok := m.Albums[name]; ok {
			existing.Union(info)
		} else {
			m.Albums[name] = info
		}
	}

	if other.DateTaken != nil {
		if m.DateAccuracy == AccuracyUnset || other.DateAccuracy < m.DateAccuracy {
			m.DateTaken = other.DateTaken
			m.DateAccuracy = other.DateAccuracy
			m.DateMethod = other.DateMethod
		}
	}

	m.PartnerShared = m.PartnerShared || other.PartnerShared
	m.Trashed = m.Trashed && other.Trashed
}
