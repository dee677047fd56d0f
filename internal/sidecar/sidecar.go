// Package sidecar parses Google Photos JSON sidecar files and locates the
// sidecar belonging to a media file through a chain of filename heuristics.
package sidecar

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// maxSidecarName is the longest filename Google produces for a sidecar; media
// names beyond it are truncated before ".json" is appended.
const maxSidecarName = 51

// Metadata is the relevant subset of a Google Photos sidecar.
type Metadata struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	PhotoTakenTime timeObject `json:"photoTakenTime"`
	CreationTime   timeObject `json:"creationTime"`
	GeoData        geoData    `json:"geoData"`
	GeoDataExif    geoData    `json:"geoDataExif"`
	Trashed        bool       `json:"trashed,omitempty"`
	Archived       bool       `json:"archived,omitempty"`

	GooglePhotosOrigin struct {
		FromPartnerSharing isPresent `json:"fromPartnerSharing"`
	} `json:"googlePhotosOrigin"`
}

// isPresent is set when the field exists at all; the content is irrelevant.
type isPresent bool

func (p *isPresent) UnmarshalJSON(b []byte) error {
	*p = len(b) > 0
	return nil
}

type geoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// timeObject handles Google's string-encoded epoch seconds.
type timeObject struct {
	Timestamp int64
}

func (t *timeObject) UnmarshalJSON(data []byte) error {
	aux := struct {
		Timestamp string `json:"timestamp"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		t.Timestamp = 0
		return nil
	}
	ts, err := strconv.ParseInt(aux.Timestamp, 10, 64)
	if err != nil {
		return err
	}
	t.Timestamp = ts
	return nil
}

// IsPartnerShared reports whether the asset arrived through partner sharing.
func (m *Metadata) IsPartnerShared() bool {
	return bool(m.GooglePhotosOrigin.FromPartnerSharing)
}

// TakenTime returns the capture time in UTC when the sidecar carries one.
func (m *Metadata) TakenTime() (time.Time, bool) {
	if m.PhotoTakenTime.Timestamp <= 0 {
		return time.Time{}, false
	}
	return time.Unix(m.PhotoTakenTime.Timestamp, 0).UTC(), true
}

// Coordinates returns the GPS position. 0,0 means "none"; geoData wins over
// geoDataExif when both are set.
func (m *Metadata) Coordinates() (lat, lon float64, ok bool) {
	if m.GeoData.Latitude != 0 || m.GeoData.Longitude != 0 {
		return m.GeoData.Latitude, m.GeoData.Longitude, true
	}
	if m.GeoDataExif.Latitude != 0 || m.GeoDataExif.Longitude != 0 {
		return m.GeoDataExif.Latitude, m.GeoDataExif.Longitude, true
	}
	return 0, 0, false
}

// Parse reads and decodes a sidecar file. Malformed JSON is an error the
// caller treats as "no sidecar data".
func Parse(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// AlbumMetadata is the metadata.json Google writes at album folder roots.
type AlbumMetadata struct {
	Title string `json:"title"`
}

// ParseAlbumMetadata reads an album folder's metadata.json.
func ParseAlbumMetadata(path string) (*AlbumMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var md AlbumMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, err
	}
	return &md, nil
}
