package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// The writer rebuilds the APP1/EXIF segment from scratch and splices it into
// the JPEG stream right after SOI, dropping any previous EXIF segment. Tags
// outside the rebuilt set do not survive; callers needing tag-preserving
// writes use the external tool instead.

const (
	markerSOI  = 0xD8
	markerAPP1 = 0xE1
	markerSOS  = 0xDA
)

// TIFF field types used below.
const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

// EXIF tag ids.
const (
	tagDateTime          = 0x0132
	tagExifIFDPointer    = 0x8769
	tagGPSIFDPointer     = 0x8825
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
	tagGPSLatitudeRef    = 0x0001
	tagGPSLatitude       = 0x0002
	tagGPSLongitudeRef   = 0x0003
	tagGPSLongitude      = 0x0004
)

// WriteJPEG embeds the given date and/or GPS position into a JPEG file by
// replacing its EXIF APP1 segment. Either value may be nil; at least one must
// be set. The file is rewritten via a temp file in the same directory.
func WriteJPEG(path string, dateTaken *time.Time, lat, lon *float64) error {
	if dateTaken == nil && lat == nil {
		return fmt.Errorf("nothing to write")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return fmt.Errorf("not a JPEG file: %s", path)
	}

	segment, err := buildAPP1(dateTaken, lat, lon)
	if err != nil {
		return err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(data)+len(segment)))
	out.Write(data[:2])
	out.Write(segment)

	// Copy the remaining segments, skipping any existing EXIF APP1.
	rest, err := stripExifSegment(data[2:])
	if err != nil {
		return err
	}
	out.Write(rest)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".exifwrite-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// stripExifSegment walks the marker stream (starting right after SOI) and
// removes an "Exif\0\0" APP1 segment when present. Scanning stops at SOS;
// entropy-coded data is copied through untouched.
func stripExifSegment(data []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, len(data)))
	i := 0
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, fmt.Errorf("malformed JPEG marker stream")
		}
		marker := data[i+1]
		// SOS starts the entropy-coded stream and EOI has no payload; copy
		// through from either point.
		if marker == markerSOS || marker == 0xD9 {
			out.Write(data[i:])
			return out.Bytes(), nil
		}
		if i+4 > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment")
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		end := i + 2 + length
		if end > len(data) {
			return nil, fmt.Errorf("truncated JPEG segment")
		}

		isExif := marker == markerAPP1 &&
			length >= 8 &&
			bytes.Equal(data[i+4:i+10], []byte("Exif\x00\x00"))
		if !isExif {
			out.Write(data[i:end])
		}
		i = end
	}
	return out.Bytes(), nil
}

type ifdEntry struct {
	tag     uint16
	typ     uint16
	count   uint32
	value   []byte // inline when ≤4 bytes, otherwise placed in the data area
	pointer bool   // value is an offset patched at layout time
	ptrDest int    // 0 = exif IFD, 1 = gps IFD
}

// buildAPP1 serializes a complete APP1 segment (marker, length, Exif header,
// little-endian TIFF body) holding the date and GPS tags.
func buildAPP1(dateTaken *time.Time, lat, lon *float64) ([]byte, error) {
	le := binary.LittleEndian
	hasGPS := lat != nil && lon != nil

	var dateBytes []byte
	if dateTaken != nil {
		dateBytes = append([]byte(dateTaken.Format("2006:01:02 15:04:05")), 0)
	}

	var ifd0, exifIFD, gpsIFD []ifdEntry
	if dateTaken != nil {
		ifd0 = append(ifd0, ifdEntry{tag: tagDateTime, typ: typeASCII, count: uint32(len(dateBytes)), value: dateBytes})
		exifIFD = append(exifIFD,
			ifdEntry{tag: tagDateTimeOriginal, typ: typeASCII, count: uint32(len(dateBytes)), value: dateBytes},
			ifdEntry{tag: tagDateTimeDigitized, typ: typeASCII, count: uint32(len(dateBytes)), value: dateBytes},
		)
	}
	if dateTaken != nil {
		ifd0 = append(ifd0, ifdEntry{tag: tagExifIFDPointer, typ: typeLong, count: 1, pointer: true, ptrDest: 0})
	}

	if hasGPS {
		latRef, lonRef := "N\x00", "E\x00"
		if *lat < 0 {
			latRef = "S\x00"
		}
		if *lon < 0 {
			lonRef = "W\x00"
		}
		gpsIFD = append(gpsIFD,
			ifdEntry{tag: tagGPSLatitudeRef, typ: typeASCII, count: 2, value: []byte(latRef)},
			ifdEntry{tag: tagGPSLatitude, typ: typeRational, count: 3, value: degreeRationals(math.Abs(*lat))},
			ifdEntry{tag: tagGPSLongitudeRef, typ: typeASCII, count: 2, value: []byte(lonRef)},
			ifdEntry{tag: tagGPSLongitude, typ: typeRational, count: 3, value: degreeRationals(math.Abs(*lon))},
		)
		ifd0 = append(ifd0, ifdEntry{tag: tagGPSIFDPointer, typ: typeLong, count: 1, pointer: true, ptrDest: 1})
	}

	ifdSize := func(entries []ifdEntry) int { return 2 + 12*len(entries) + 4 }

	ifd0Off := 8
	exifOff := ifd0Off + ifdSize(ifd0)
	gpsOff := exifOff
	if dateTaken != nil {
		gpsOff += ifdSize(exifIFD)
	}
	dataOff := gpsOff
	if hasGPS {
		dataOff += ifdSize(gpsIFD)
	}

	dataArea := &bytes.Buffer{}
	writeIFD := func(buf *bytes.Buffer, entries []ifdEntry) {
		var scratch [4]byte
		le.PutUint16(scratch[:2], uint16(len(entries)))
		buf.Write(scratch[:2])
		for _, e := range entries {
			le.PutUint16(scratch[:2], e.tag)
			buf.Write(scratch[:2])
			le.PutUint16(scratch[:2], e.typ)
			buf.Write(scratch[:2])
			le.PutUint32(scratch[:4], e.count)
			buf.Write(scratch[:4])

			switch {
			case e.pointer:
				dest := uint32(exifOff)
				if e.ptrDest == 1 {
					dest = uint32(gpsOff)
				}
				le.PutUint32(scratch[:4], dest)
				buf.Write(scratch[:4])
			case len(e.value) <= 4:
				var inline [4]byte
				copy(inline[:], e.value)
				buf.Write(inline[:])
			default:
				le.PutUint32(scratch[:4], uint32(dataOff+dataArea.Len()))
				buf.Write(scratch[:4])
				dataArea.Write(e.value)
			}
		}
		le.PutUint32(scratch[:4], 0)
		buf.Write(scratch[:4])
	}

	tiffBody := &bytes.Buffer{}
	tiffBody.Write([]byte{'I', 'I', 42, 0})
	var off [4]byte
	le.PutUint32(off[:], uint32(ifd0Off))
	tiffBody.Write(off[:])
	writeIFD(tiffBody, ifd0)
	if dateTaken != nil {
		writeIFD(tiffBody, exifIFD)
	}
	if hasGPS {
		writeIFD(tiffBody, gpsIFD)
	}
	tiffBody.Write(dataArea.Bytes())

	payload := append([]byte("Exif\x00\x00"), tiffBody.Bytes()...)
	if len(payload)+2 > 0xFFFF {
		return nil, fmt.Errorf("EXIF segment too large")
	}

	segment := &bytes.Buffer{}
	segment.Write([]byte{0xFF, markerAPP1})
	var lenBytes [2]byte
	binary.BigEndian.PutUint16(lenBytes[:], uint16(len(payload)+2))
	segment.Write(lenBytes[:])
	segment.Write(payload)
	return segment.Bytes(), nil
}

// degreeRationals encodes a decimal coordinate as degree/minute/second
// rationals; seconds keep four decimal places.
func degreeRationals(v float64) []byte {
	deg := math.Floor(v)
	minFloat := (v - deg) * 60
	min := math.Floor(minFloat)
	sec := (minFloat - min) * 60

	le := binary.LittleEndian
	buf := make([]byte, 24)
	le.PutUint32(buf[0:], uint32(deg))
	le.PutUint32(buf[4:], 1)
	le.PutUint32(buf[8:], uint32(min))
	le.PutUint32(buf[12:], 1)
	le.PutUint32(buf[16:], uint32(math.Round(sec*10000)))
	le.PutUint32(buf[20:], 10000)
	return buf
}
