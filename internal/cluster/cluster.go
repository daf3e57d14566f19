// Package cluster groups an itinerary's photos into stops by sequential
// proximity and derives the route drawn between them.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/electronjoe/traveldraft/internal/normalize"
	"github.com/electronjoe/traveldraft/internal/photo"
	"github.com/electronjoe/traveldraft/internal/travel"
)

// DefaultThreshold is the largest distance, in degrees, between a photo and
// the previous photo of its cluster. Roughly 500 m at mid latitudes.
const DefaultThreshold = 0.005

// Result is the output of Build.
type Result struct {
	Clusters []travel.PhotoCluster
	// IndependentPhotos is never filled; outlier detection is not done.
	IndependentPhotos []travel.Photo
}

// Photos keeps the records that have coordinates and a parseable capture
// time and returns them as photos ordered by date. Records are expected in
// filename order so that photos with equal dates keep a stable order.
func Photos(records []photo.Record) []travel.Photo {
	type dated struct {
		photo travel.Photo
		at    int64
	}
	var ps []dated
	for _, rec := range records {
		if !rec.Geotagged() {
			continue
		}
		iso, ok := normalize.DateTime(*rec.DateTime)
		if !ok {
			continue
		}
		at, err := normalize.ParseDate(iso)
		if err != nil {
			continue
		}
		ps = append(ps, dated{
			photo: travel.Photo{
				ID:  rec.Filename,
				URL: rec.Filename,
				Position: travel.Position{
					Latitude:  rec.Coordinates.Lat,
					Longitude: rec.Coordinates.Lng,
				},
				Date: iso,
			},
			at: at.Unix(),
		})
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].at < ps[j].at })

	out := make([]travel.Photo, len(ps))
	for i := range ps {
		out[i] = ps[i].photo
	}
	return out
}

// Build walks photos in order and appends each to the current cluster when it
// lies within threshold of the cluster's last photo, otherwise opens a new
// cluster. A cluster's position is the mean of its members.
func Build(photos []travel.Photo, threshold float64) Result {
	res := Result{Clusters: []travel.PhotoCluster{}, IndependentPhotos: []travel.Photo{}}
	if len(photos) == 0 {
		return res
	}

	current := newCluster(1, photos[0])
	for _, p := range photos[1:] {
		last := current.Photos[len(current.Photos)-1]
		if distance(p.Position, last.Position) <= threshold {
			current.Photos = append(current.Photos, p)
			current.Position = centroid(current.Photos)
			continue
		}
		res.Clusters = append(res.Clusters, current)
		current = newCluster(len(res.Clusters)+1, p)
	}
	res.Clusters = append(res.Clusters, current)
	return res
}

// RoutePath returns the first photo of every cluster as a route point.
func RoutePath(clusters []travel.PhotoCluster) []travel.RoutePoint {
	path := make([]travel.RoutePoint, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Photos) == 0 {
			continue
		}
		first := c.Photos[0]
		path = append(path, travel.RoutePoint{
			Latitude:  first.Position.Latitude,
			Longitude: first.Position.Longitude,
			Date:      first.Date,
		})
	}
	return path
}

func newCluster(n int, first travel.Photo) travel.PhotoCluster {
	return travel.PhotoCluster{
		ID:       fmt.Sprintf("cluster-%d", n),
		Photos:   []travel.Photo{first},
		Position: first.Position,
	}
}

// distance is Euclidean in degree space; longitude is not scaled by latitude.
func distance(a, b travel.Position) float64 {
	return math.Hypot(a.Latitude-b.Latitude, a.Longitude-b.Longitude)
}

func centroid(photos []travel.Photo) travel.Position {
	var lat, lng float64
	for _, p := range photos {
		lat += p.Position.Latitude
		lng += p.Position.Longitude
	}
	n := float64(len(photos))
	return travel.Position{Latitude: lat / n, Longitude: lng / n}
}
