package media

import (
	"bytes"
	"time"

	"github.com/bep/imagemeta"
)

// Metadata is the capture information recorded alongside an analysis.
type Metadata struct {
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
}

var wantedEXIFTags = map[string]bool{
	"DateTimeOriginal":   true,
	"OffsetTimeOriginal": true,
	"GPSLatitude":        true,
	"GPSLatitudeRef":     true,
	"GPSLongitude":       true,
	"GPSLongitudeRef":    true,
}

// ExtractMetadata reads capture time and GPS position from EXIF.
// Returns nil when the data has no usable EXIF; never returns an error.
func ExtractMetadata(data []byte) *Metadata {
	if len(data) == 0 {
		return nil
	}

	var tags imagemeta.Tags
	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedEXIFTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			tags.Add(ti)
			return nil
		},
	})
	if err != nil {
		return nil
	}

	meta := &Metadata{}
	found := false
	if t, err := tags.GetDateTime(); err == nil && !t.IsZero() {
		meta.CapturedAt = &t
		found = true
	}
	if lat, long, err := tags.GetLatLong(); err == nil && (lat != 0 || long != 0) {
		meta.Latitude = &lat
		meta.Longitude = &long
		found = true
	}
	if !found {
		return nil
	}
	return meta
}
