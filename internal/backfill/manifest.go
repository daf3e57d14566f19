package backfill

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/travel"
)

// UploadResult is one entry of cloudinary-upload-results.json.
type UploadResult struct {
	OriginalFilename string `json:"original_filename"`
	OriginalSizeMB   string `json:"original_size_mb,omitempty"`
	PublicID         string `json:"public_id"`
	SecureURL        string `json:"secure_url"`
	OptimizedURL     string `json:"optimized_url"`
	ThumbnailURL     string `json:"thumbnail_url"`
	CloudinarySizeKB int64  `json:"cloudinary_size_kb,omitempty"`
	Note             string `json:"note,omitempty"`
}

// Cloudinary returns the block attached to a backfilled photo.
func (r UploadResult) Cloudinary() *travel.Cloudinary {
	return &travel.Cloudinary{
		SecureURL:    r.SecureURL,
		OptimizedURL: r.OptimizedURL,
		ThumbnailURL: r.ThumbnailURL,
		PublicID:     r.PublicID,
	}
}

// LoadManifest reads an upload manifest. Entries that cannot be decoded or
// have no original_filename are logged and dropped.
func LoadManifest(path string, logger *zap.Logger) ([]UploadResult, error) {
	var raw []json.RawMessage
	if err := jsonfile.Read(path, &raw); err != nil {
		return nil, err
	}

	results := make([]UploadResult, 0, len(raw))
	for i, entry := range raw {
		var r UploadResult
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.Warn("dropping unreadable upload result", zap.String("file", path), zap.Int("entry", i), zap.Error(err))
			continue
		}
		if r.OriginalFilename == "" {
			logger.Warn("dropping upload result without original_filename", zap.String("file", path), zap.Int("entry", i))
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// SaveManifest writes results as the manifest at path.
func SaveManifest(path string, results []UploadResult) error {
	if results == nil {
		results = []UploadResult{}
	}
	if err := jsonfile.Write(path, results); err != nil {
		return fmt.Errorf("write upload manifest: %w", err)
	}
	return nil
}

// UpsertResult replaces the entry for the same original file, or appends r.
func UpsertResult(results []UploadResult, r UploadResult) []UploadResult {
	for i := range results {
		if results[i].OriginalFilename == r.OriginalFilename {
			results[i] = r
			return results
		}
	}
	return append(results, r)
}
