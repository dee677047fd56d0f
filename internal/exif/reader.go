// Package exif provides the native (in-process) EXIF paths: date reads via
// goexif and a JPEG APP1 writer for date and GPS tags.
package exif

import (
	"os"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// nativeReadTags are the date tags the in-process reader can resolve, in
// preference order. Video container tags need the external tool.
var nativeReadTags = []goexif.FieldName{
	goexif.DateTimeOriginal,
	goexif.DateTimeDigitized,
	goexif.DateTime,
}

// ReadDateTime extracts the best available EXIF date string from a JPEG or
// TIFF-based file. The raw tag value is returned; normalization is the
// caller's concern.
func ReadDateTime(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return "", err
	}

	for _, name := range nativeReadTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		if tag.Format() != tiff.StringVal {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if value != "" {
			return value, nil
		}
	}

	return "", goexif.TagNotPresentError(goexif.DateTimeOriginal)
}
