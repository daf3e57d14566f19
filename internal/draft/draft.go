// Package draft turns metadata sidecars into itinerary and travel documents.
package draft

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/electronjoe/traveldraft/internal/cluster"
	"github.com/electronjoe/traveldraft/internal/index"
	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/normalize"
	"github.com/electronjoe/traveldraft/internal/photo"
	"github.com/electronjoe/traveldraft/internal/report"
	"github.com/electronjoe/traveldraft/internal/travel"
)

// Skip conditions. They are normal outcomes, not failures.
var (
	ErrNoMetadata  = errors.New("no metadata file")
	ErrNoItinerary = errors.New("no geotagged photos with a capture time")
	ErrNoTravel    = errors.New("no itinerary produced")
)

// Options tunes a Builder.
type Options struct {
	Threshold float64
	// Workers bounds the itineraries of one travel built at the same time.
	Workers int
}

// Builder writes <itinerary>.json and travel.json documents under a data
// root and keeps the index in step with every travel it writes.
type Builder struct {
	root  layout.Root
	index *index.Store
	opts  Options
	log   *zap.Logger
}

// NewBuilder creates a Builder. A nil store disables index updates.
func NewBuilder(root layout.Root, store *index.Store, opts Options, logger *zap.Logger) *Builder {
	if opts.Threshold <= 0 {
		opts.Threshold = cluster.DefaultThreshold
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Builder{root: root, index: store, opts: opts, log: logger}
}

// BuildItinerary clusters the photos of one itinerary directory and writes
// its document.
func (b *Builder) BuildItinerary(ctx context.Context, it layout.Itinerary) (*travel.Itinerary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := photo.LoadRecords(it.MetadataPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoMetadata
	}
	if err != nil {
		return nil, err
	}

	photos := cluster.Photos(records)
	if len(photos) == 0 {
		return nil, ErrNoItinerary
	}
	first, last := photos[0], photos[len(photos)-1]

	res := cluster.Build(photos, b.opts.Threshold)
	for ci := range res.Clusters {
		for pi := range res.Clusters[ci].Photos {
			p := &res.Clusters[ci].Photos[pi]
			p.URL = it.PhotoURL(p.ID)
		}
	}
	for pi := range res.IndependentPhotos {
		p := &res.IndependentPhotos[pi]
		p.URL = it.PhotoURL(p.ID)
	}

	doc := &travel.Itinerary{
		ID:   it.ID,
		Name: normalize.Humanize(it.ID),
		Route: travel.Route{
			Start: first.Position,
			End:   last.Position,
			Path:  cluster.RoutePath(res.Clusters),
		},
		StartDate:         first.Date,
		EndDate:           last.Date,
		PhotoClusters:     res.Clusters,
		IndependentPhotos: res.IndependentPhotos,
		Description:       "Auto-generated itinerary for " + it.ID,
	}

	if err := jsonfile.Write(it.DocumentPath(), doc); err != nil {
		return nil, fmt.Errorf("write itinerary: %w", err)
	}
	b.log.Info("created itinerary draft",
		zap.String("file", it.DocumentPath()),
		zap.Int("photos", len(photos)),
		zap.Int("clusters", len(res.Clusters)))
	return doc, nil
}

// BuildTravel builds every itinerary of tr, writes travel.json and upserts
// the travel into the index.
func (b *Builder) BuildTravel(ctx context.Context, tr layout.Travel) (*travel.Travel, []*travel.Itinerary, error) {
	return b.buildTravel(ctx, tr, report.New("draft"))
}

func (b *Builder) buildTravel(ctx context.Context, tr layout.Travel, rep *report.Report) (*travel.Travel, []*travel.Itinerary, error) {
	dirs, err := tr.Itineraries()
	if err != nil {
		return nil, nil, err
	}

	// Slots keep directory order regardless of completion order.
	built := make([]*travel.Itinerary, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, it := range dirs {
		i, it := i, it
		g.Go(func() error {
			doc, err := b.BuildItinerary(gctx, it)
			unit := tr.ID + "/" + it.ID
			switch {
			case err == nil:
				built[i] = doc
				rep.Success(unit)
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case errors.Is(err, ErrNoMetadata), errors.Is(err, ErrNoItinerary):
				b.log.Debug("skipping itinerary", zap.String("itinerary", unit), zap.String("reason", err.Error()))
				rep.Skip(unit, err.Error())
			default:
				b.log.Error("error generating itinerary draft", zap.String("itinerary", unit), zap.Error(err))
				rep.Fail(unit, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var itineraries []*travel.Itinerary
	for _, doc := range built {
		if doc != nil {
			itineraries = append(itineraries, doc)
		}
	}
	if len(itineraries) == 0 {
		return nil, nil, ErrNoTravel
	}

	doc := aggregate(tr.ID, itineraries)
	if err := jsonfile.Write(tr.DocumentPath(), doc); err != nil {
		return nil, nil, fmt.Errorf("write travel: %w", err)
	}
	b.log.Info("created travel draft", zap.String("file", tr.DocumentPath()), zap.Int("itineraries", len(itineraries)))

	if b.index != nil {
		if err := b.index.Upsert(ctx, doc, itineraries, tr.DocumentURL()); err != nil {
			return doc, itineraries, fmt.Errorf("update index: %w", err)
		}
	}
	return doc, itineraries, nil
}

// GenerateAll builds every travel under the root, or only the named one.
func (b *Builder) GenerateAll(ctx context.Context, only string) (*report.Report, error) {
	rep := report.New("draft")

	travels, err := b.root.Travels(only)
	if err != nil {
		return rep, err
	}
	for _, tr := range travels {
		_, _, err := b.buildTravel(ctx, tr, rep)
		switch {
		case err == nil:
			rep.Success(tr.ID)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return rep, err
		case errors.Is(err, ErrNoTravel):
			b.log.Info("no itineraries for travel", zap.String("travel", tr.ID))
			rep.Skip(tr.ID, err.Error())
		default:
			b.log.Error("error generating travel draft", zap.String("travel", tr.ID), zap.Error(err))
			rep.Fail(tr.ID, err)
		}
	}
	return rep, nil
}

// aggregate spans the travel over all its itineraries. An itinerary without
// an end date contributes its start date.
func aggregate(id string, itineraries []*travel.Itinerary) *travel.Travel {
	doc := &travel.Travel{
		ID:          id,
		Name:        normalize.Humanize(id),
		Itineraries: make([]travel.ItineraryRef, 0, len(itineraries)),
		Description: "Auto-generated travel document for " + id,
	}
	for _, it := range itineraries {
		doc.Itineraries = append(doc.Itineraries, travel.ItineraryRef{ID: it.ID})

		if doc.StartDate == "" || before(it.StartDate, doc.StartDate) {
			doc.StartDate = it.StartDate
		}
		end := it.EndDate
		if end == "" {
			end = it.StartDate
		}
		if doc.EndDate == "" || before(doc.EndDate, end) {
			doc.EndDate = end
		}
	}
	return doc
}

// before orders normalized timestamps, falling back to text order for values
// that do not parse.
func before(a, b string) bool {
	ta, errA := normalize.ParseDate(a)
	tb, errB := normalize.ParseDate(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}
