package photo

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/normalize"
)

// Media types recorded in the sidecar.
const (
	TypeImage = "image"
	TypeVideo = "video"
)

// Record is the extracted metadata of one file. Coordinates and DateTime are
// nil when the file carries no usable value; videos always have both nil.
// DateTime keeps the EXIF form "YYYY:MM:DD HH:MM:SS".
type Record struct {
	Filename    string                 `json:"filename"`
	Coordinates *normalize.Coordinates `json:"coordinates"`
	DateTime    *string                `json:"dateTime"`
	Type        string                 `json:"type"`
}

// Geotagged reports whether the record has both a position and a timestamp.
func (r Record) Geotagged() bool {
	return r.Coordinates != nil && r.DateTime != nil
}

// Records is the content of a metadata sidecar, keyed by filename.
type Records map[string]Record

// LoadRecords reads a sidecar and returns its records ordered by filename.
func LoadRecords(path string) ([]Record, error) {
	var recs Records
	if err := jsonfile.Read(path, &recs); err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", filepath.Base(path), err)
	}
	out := make([]Record, 0, len(recs))
	for name, rec := range recs {
		if rec.Filename == "" {
			rec.Filename = name
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// mediaType returns the record type for a file name, or "" for files the
// extractor ignores.
func mediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return TypeImage
	case ".mp4":
		return TypeVideo
	}
	return ""
}

// IsImageFile checks for the still-image extensions used as photos.
func IsImageFile(name string) bool {
	return mediaType(name) == TypeImage
}
