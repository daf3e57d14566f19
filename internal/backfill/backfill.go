// Package backfill points itinerary photos at their uploaded remote copies
// and removes photos that never made it to the remote store.
package backfill

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/report"
	"github.com/electronjoe/traveldraft/internal/travel"
)

// ErrMissingInput marks an itinerary without an upload manifest or without
// its itinerary document. It is a skip.
var ErrMissingInput = errors.New("missing input")

// Backfiller rewrites itinerary documents under a data root.
type Backfiller struct {
	root layout.Root
	log  *zap.Logger
}

// New creates a Backfiller.
func New(root layout.Root, logger *zap.Logger) *Backfiller {
	return &Backfiller{root: root, log: logger}
}

// Itinerary attaches the upload results of it to the matching photos and
// returns how many photos were updated. The document is rewritten only when
// that number is positive.
func (b *Backfiller) Itinerary(ctx context.Context, it layout.Itinerary) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !jsonfile.Exists(it.ManifestPath()) {
		return 0, fmt.Errorf("%w: no %s", ErrMissingInput, layout.UploadManifestFile)
	}
	if !jsonfile.Exists(it.DocumentPath()) {
		return 0, fmt.Errorf("%w: no %s.json", ErrMissingInput, it.ID)
	}

	results, err := LoadManifest(it.ManifestPath(), b.log)
	if err != nil {
		return 0, err
	}
	var doc travel.Itinerary
	if err := jsonfile.Read(it.DocumentPath(), &doc); err != nil {
		return 0, err
	}

	byFile := make(map[string]UploadResult, len(results))
	for _, r := range results {
		byFile[r.OriginalFilename] = r
	}

	updated := 0
	for _, p := range doc.Photos() {
		r, ok := byFile[p.ID]
		if !ok {
			b.log.Warn("no upload result for photo", zap.String("itinerary", it.ID), zap.String("photo", p.ID))
			continue
		}
		p.Cloudinary = r.Cloudinary()
		p.URL = r.PublicID
		updated++
		b.log.Debug("updated photo", zap.String("photo", p.ID), zap.String("public_id", r.PublicID))
	}

	if updated == 0 {
		b.log.Info("no photos updated", zap.String("file", it.DocumentPath()))
		return 0, nil
	}
	if err := jsonfile.Write(it.DocumentPath(), &doc); err != nil {
		return 0, err
	}
	b.log.Info("updated photos", zap.String("file", it.DocumentPath()), zap.Int("photos", updated))
	return updated, nil
}

// All backfills every itinerary of every travel, or of the named travel only.
func (b *Backfiller) All(ctx context.Context, only string) (*report.Report, error) {
	rep := report.New("backfill")

	travels, err := b.root.Travels(only)
	if err != nil {
		return rep, err
	}
	for _, tr := range travels {
		its, err := tr.Itineraries()
		if err != nil {
			b.log.Error("cannot list itineraries", zap.String("travel", tr.ID), zap.Error(err))
			rep.Fail(tr.ID, err)
			continue
		}
		if len(its) == 0 {
			rep.Skip(tr.ID, "no itinerary directories")
			continue
		}
		for _, it := range its {
			unit := tr.ID + "/" + it.ID
			n, err := b.Itinerary(ctx, it)
			switch {
			case err == nil && n == 0:
				rep.Skip(unit, "no photos updated")
			case err == nil:
				rep.Success(unit)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return rep, err
			case errors.Is(err, ErrMissingInput):
				b.log.Info("skipping itinerary", zap.String("itinerary", unit), zap.String("reason", err.Error()))
				rep.Skip(unit, err.Error())
			default:
				b.log.Error("error processing itinerary", zap.String("itinerary", unit), zap.Error(err))
				rep.Fail(unit, err)
			}
		}
	}
	return rep, nil
}

// Prune removes every photo without a remote copy from the itinerary
// document at path, then every cluster left empty. It returns the number of
// photos removed; the file is rewritten only when something was removed.
func Prune(ctx context.Context, path string, logger *zap.Logger) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var doc travel.Itinerary
	if err := jsonfile.Read(path, &doc); err != nil {
		return 0, err
	}

	removed := 0
	clusters := doc.PhotoClusters[:0]
	for _, c := range doc.PhotoClusters {
		kept := uploaded(c.Photos)
		if n := len(c.Photos) - len(kept); n > 0 {
			removed += n
			logger.Info("removed photos from cluster",
				zap.String("cluster", c.ID),
				zap.String("name", c.InterestPointName),
				zap.Int("photos", n))
		}
		c.Photos = kept
		if len(c.Photos) > 0 {
			clusters = append(clusters, c)
		}
	}
	emptied := len(doc.PhotoClusters) - len(clusters)
	doc.PhotoClusters = clusters

	kept := uploaded(doc.IndependentPhotos)
	if n := len(doc.IndependentPhotos) - len(kept); n > 0 {
		removed += n
		logger.Info("removed independent photos", zap.Int("photos", n))
	}
	doc.IndependentPhotos = kept

	if removed == 0 && emptied == 0 {
		logger.Info("no photos to clean", zap.String("file", path))
		return 0, nil
	}
	if err := jsonfile.Write(path, &doc); err != nil {
		return 0, err
	}
	logger.Info("cleaned itinerary", zap.String("file", path), zap.Int("photos", removed), zap.Int("clusters", emptied))
	return removed, nil
}

func uploaded(photos []travel.Photo) []travel.Photo {
	kept := make([]travel.Photo, 0, len(photos))
	for _, p := range photos {
		if p.Cloudinary != nil {
			kept = append(kept, p)
		}
	}
	return kept
}
