package photo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/report"
)

// Extractor writes a metadata sidecar into every directory of the data tree
// that holds photos or videos.
type Extractor struct {
	root    string
	decoder Decoder
	log     *zap.Logger

	cache *metadataCache
	seen  map[string]struct{}
}

// NewExtractor creates an Extractor for the data root.
func NewExtractor(root string, decoder Decoder, logger *zap.Logger) *Extractor {
	if decoder == nil {
		decoder = ExifDecoder{}
	}
	return &Extractor{root: root, decoder: decoder, log: logger}
}

// Run walks the data root (or only root/<only> when only is non-empty) and
// writes one <dir>-metadata.json per directory with recognized files.
// Images without EXIF are listed with no position or time. Per-file read
// failures are recorded in the report and do not stop the walk.
func (e *Extractor) Run(ctx context.Context, only string) (*report.Report, error) {
	rep := report.New("extract")

	cache, err := loadMetadataCache(e.root)
	if err != nil {
		// Not critical; start over with an empty cache
		e.log.Warn("metadata cache unreadable, rebuilding", zap.Error(err))
		cache = newMetadataCache()
	}
	e.cache = cache
	e.seen = make(map[string]struct{})

	start := e.root
	if only != "" {
		start = filepath.Join(e.root, only)
		if info, err := os.Stat(start); err != nil || !info.IsDir() {
			return rep, fmt.Errorf("directory %q not found under %s", only, e.root)
		}
	}

	if err := e.processDirectory(ctx, start, rep, true); err != nil {
		return rep, err
	}

	// Entries of directories outside a restricted run are still valid
	if only == "" {
		e.cache.prune(e.seen)
	}
	if err := saveMetadataCache(e.root, e.cache); err != nil {
		e.log.Warn("could not save metadata cache", zap.Error(err))
	}

	return rep, nil
}

// processDirectory extracts the files of dir, writes its sidecar, then
// descends into its sub-directories. Only a failure to list the starting
// directory is returned as an error.
func (e *Extractor) processDirectory(ctx context.Context, dir string, rep *report.Report, top bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if top {
			return fmt.Errorf("read directory %s: %w", dir, err)
		}
		e.log.Error("cannot read directory", zap.String("dir", dir), zap.Error(err))
		rep.Fail(e.unit(dir), err)
		return nil
	}

	records := make(Records)
	var subdirs []string

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}

		kind := mediaType(entry.Name())
		switch kind {
		case "":
			continue
		case TypeVideo:
			// Videos are listed without decoding
			records[entry.Name()] = Record{Filename: entry.Name(), Type: TypeVideo}
			continue
		}

		rec, err := e.extractImage(path)
		if err != nil {
			e.log.Warn("could not extract metadata", zap.String("file", path), zap.Error(err))
			rep.Fail(e.unit(path), err)
			continue
		}
		records[entry.Name()] = rec
	}

	if len(records) > 0 {
		out := layout.MetadataPath(dir)
		if err := jsonfile.Write(out, records); err != nil {
			e.log.Error("failed to write metadata file", zap.String("file", out), zap.Error(err))
			rep.Fail(e.unit(dir), err)
		} else {
			e.log.Info("wrote metadata file", zap.String("file", out), zap.Int("records", len(records)))
			rep.Success(e.unit(dir))
		}
	}

	for _, sub := range subdirs {
		if err := e.processDirectory(ctx, sub, rep, false); err != nil {
			return err
		}
	}
	return nil
}

// extractImage returns the record of one image, from the cache when the file
// is unchanged since it was last decoded.
func (e *Extractor) extractImage(path string) (Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Record{}, err
	}
	key := e.unit(path)
	e.seen[key] = struct{}{}

	if rec, ok := e.cache.get(key, info.ModTime()); ok {
		return rec, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	tags, err := e.decoder.Decode(f)
	switch {
	case errors.Is(err, ErrNoExif):
		e.log.Debug("no exif, listing without geodata", zap.String("file", path), zap.Error(err))
		tags = nil
	case err != nil:
		return Record{}, err
	}

	rec := recordFromTags(name, tags)
	e.cache.set(key, info.ModTime(), rec)
	return rec, nil
}

// unit names a path relative to the data root, slash separated.
func (e *Extractor) unit(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
