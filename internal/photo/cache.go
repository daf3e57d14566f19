package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
)

const (
	metadataCacheFileName = ".photo-metadata-cache.json"
	metadataCacheVersion  = 1
)

type metadataCache struct {
	Version int                           `json:"version"`
	Entries map[string]metadataCacheEntry `json:"entries"`
}

type metadataCacheEntry struct {
	ModTime int64  `json:"modTime"`
	Record  Record `json:"record"`
}

func loadMetadataCache(root string) (*metadataCache, error) {
	data, err := os.ReadFile(metadataCachePath(root))
	if errors.Is(err, os.ErrNotExist) {
		return newMetadataCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata cache: %w", err)
	}

	cache := newMetadataCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("unmarshal metadata cache: %w", err)
	}

	if cache.Version != metadataCacheVersion || cache.Entries == nil {
		return newMetadataCache(), nil
	}

	return cache, nil
}

func saveMetadataCache(root string, cache *metadataCache) error {
	if err := jsonfile.Write(metadataCachePath(root), cache); err != nil {
		return fmt.Errorf("write metadata cache: %w", err)
	}
	return nil
}

func metadataCachePath(root string) string {
	return filepath.Join(root, metadataCacheFileName)
}

func newMetadataCache() *metadataCache {
	return &metadataCache{
		Version: metadataCacheVersion,
		Entries: make(map[string]metadataCacheEntry),
	}
}

func (c *metadataCache) get(key string, modTime time.Time) (Record, bool) {
	if c == nil {
		return Record{}, false
	}
	entry, ok := c.Entries[key]
	if !ok || entry.ModTime != modTime.UnixNano() {
		return Record{}, false
	}
	return entry.Record, true
}

func (c *metadataCache) set(key string, modTime time.Time, rec Record) {
	if c == nil {
		return
	}
	c.Entries[key] = metadataCacheEntry{
		ModTime: modTime.UnixNano(),
		Record:  rec,
	}
}

func (c *metadataCache) prune(validKeys map[string]struct{}) bool {
	if c == nil {
		return false
	}
	changed := false
	for key := range c.Entries {
		if _, ok := validKeys[key]; !ok {
			delete(c.Entries, key)
			changed = true
		}
	}
	return changed
}
