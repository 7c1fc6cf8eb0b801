package biz

import (
	"encoding/json"
	"strings"
)

// MediaType selects the analysis pipeline.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

func (m MediaType) String() string {
	return string(m)
}

// ParseMediaType dispatches on substrings, so "image/png" and "video/mp4" are
// accepted.
func ParseMediaType(s string) (MediaType, error) {
	switch {
	case strings.Contains(s, "image"):
		return MediaTypeImage, nil
	case strings.Contains(s, "video"):
		return MediaTypeVideo, nil
	default:
		return "", ErrUnsupportedMediaType
	}
}

// OptionalString is a JSON string field that remembers whether the key was
// present. An explicit null counts as present with an empty value.
type OptionalString struct {
	Value string
	Set   bool
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// requestMediaType resolves media_type. Only an absent key defaults to image.
func requestMediaType(field OptionalString) (MediaType, error) {
	if !field.Set {
		return MediaTypeImage, nil
	}
	return ParseMediaType(field.Value)
}
