// Package geocode names the photo clusters of itinerary documents after the
// place they were taken, by reverse geocoding each cluster's position.
package geocode

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/report"
	"github.com/electronjoe/traveldraft/internal/travel"
)

// Namer fills in missing cluster names.
type Namer struct {
	geo Geocoder
	log *zap.Logger
}

// NewNamer creates a Namer using geo.
func NewNamer(geo Geocoder, logger *zap.Logger) *Namer {
	return &Namer{geo: geo, log: logger}
}

// Itinerary names the unnamed clusters of one itinerary document and
// returns how many names were added. Existing names are kept. The document
// is rewritten only when a name was added; a missing document is a skip.
func (n *Namer) Itinerary(ctx context.Context, it layout.Itinerary, rep *report.Report) (int, error) {
	unit := it.Travel.ID + "/" + it.ID
	if !jsonfile.Exists(it.DocumentPath()) {
		rep.Skip(unit, "no itinerary document")
		return 0, nil
	}

	var doc travel.Itinerary
	if err := jsonfile.Read(it.DocumentPath(), &doc); err != nil {
		n.log.Error("cannot read itinerary", zap.String("itinerary", unit), zap.Error(err))
		rep.Fail(unit, err)
		return 0, nil
	}

	named := 0
	for i := range doc.PhotoClusters {
		c := &doc.PhotoClusters[i]
		if c.InterestPointName != "" {
			continue
		}
		name, err := n.geo.Reverse(ctx, c.Position.Latitude, c.Position.Longitude)
		switch {
		case err == nil:
			c.InterestPointName = name
			named++
			n.log.Debug("named cluster", zap.String("cluster", c.ID), zap.String("name", name))
		case ctx.Err() != nil:
			return named, ctx.Err()
		case errors.Is(err, ErrNotFound):
			n.log.Info("no place name for cluster", zap.String("itinerary", unit), zap.String("cluster", c.ID))
		default:
			n.log.Warn("reverse geocoding failed", zap.String("itinerary", unit), zap.String("cluster", c.ID), zap.Error(err))
			rep.Fail(unit+"/"+c.ID, err)
		}
	}

	if named == 0 {
		rep.Skip(unit, "no clusters named")
		return 0, nil
	}
	if err := jsonfile.Write(it.DocumentPath(), &doc); err != nil {
		rep.Fail(unit, err)
		return 0, nil
	}
	n.log.Info("named clusters", zap.String("file", it.DocumentPath()), zap.Int("clusters", named))
	rep.Success(unit)
	return named, nil
}

// All names the clusters of every itinerary of every travel, or of the named
// travel only.
func (n *Namer) All(ctx context.Context, root layout.Root, only string) (*report.Report, error) {
	rep := report.New("geocode")

	travels, err := root.Travels(only)
	if err != nil {
		return rep, err
	}
	for _, tr := range travels {
		its, err := tr.Itineraries()
		if err != nil {
			rep.Fail(tr.ID, err)
			continue
		}
		for _, it := range its {
			if _, err := n.Itinerary(ctx, it, rep); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}
