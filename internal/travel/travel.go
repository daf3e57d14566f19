// Package travel defines the JSON documents consumed by the web front end:
// itineraries with their photo clusters and routes, and travels grouping
// itineraries.
//
// Photo, PhotoCluster and Itinerary keep any field they do not know about in
// Extra and write it back unchanged, so hand edits and fields added by other
// tools survive a rewrite.
package travel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Position is a point in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RoutePoint is one stop of an itinerary route.
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Date      string  `json:"date"`
}

// Route holds the endpoints and the per-cluster path of an itinerary.
type Route struct {
	Start Position     `json:"start"`
	End   Position     `json:"end"`
	Path  []RoutePoint `json:"path"`
}

// Cloudinary holds the remote renditions of an uploaded photo.
type Cloudinary struct {
	SecureURL    string `json:"secure_url"`
	OptimizedURL string `json:"optimized_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublicID     string `json:"public_id"`
}

// Photo is a geotagged, timestamped picture placed in an itinerary.
type Photo struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Position    Position    `json:"position"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Cloudinary  *Cloudinary `json:"cloudinary,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type photoFields Photo

var photoKeys = []string{"id", "url", "position", "date", "description", "cloudinary"}

// MarshalJSON writes the known fields followed by Extra.
func (p Photo) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(photoFields(p), p.Extra)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (p *Photo) UnmarshalJSON(data []byte) error {
	var f photoFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownFields(data, photoKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*p = Photo(f)
	return nil
}

// PhotoCluster is a group of photos taken close together in time and space.
type PhotoCluster struct {
	ID                string   `json:"id"`
	Photos            []Photo  `json:"photos"`
	Position          Position `json:"position"`
	InterestPointName string   `json:"interestPointName,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type clusterFields PhotoCluster

var clusterKeys = []string{"id", "photos", "position", "interestPointName"}

// MarshalJSON writes the known fields followed by Extra.
func (c PhotoCluster) MarshalJSON() ([]byte, error) {
	if c.Photos == nil {
		c.Photos = []Photo{}
	}
	return marshalWithExtra(clusterFields(c), c.Extra)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (c *PhotoCluster) UnmarshalJSON(data []byte) error {
	var f clusterFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownFields(data, clusterKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*c = PhotoCluster(f)
	return nil
}

// Itinerary is one leaf directory of photos turned into a route.
//
// IndependentPhotos is kept for the front end's schema; the clusterer assigns
// every photo to a cluster, so it is empty unless edited by hand.
type Itinerary struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Route             Route          `json:"route"`
	StartDate         string         `json:"startDate"`
	EndDate           string         `json:"endDate,omitempty"`
	PhotoClusters     []PhotoCluster `json:"photoClusters"`
	IndependentPhotos []Photo        `json:"independentPhotos"`
	Description       string         `json:"description"`

	Extra map[string]json.RawMessage `json:"-"`
}

type itineraryFields Itinerary

var itineraryKeys = []string{"id", "name", "route", "startDate", "endDate", "photoClusters", "independentPhotos", "description"}

// MarshalJSON writes the known fields followed by Extra.
func (it Itinerary) MarshalJSON() ([]byte, error) {
	if it.PhotoClusters == nil {
		it.PhotoClusters = []PhotoCluster{}
	}
	if it.IndependentPhotos == nil {
		it.IndependentPhotos = []Photo{}
	}
	if it.Route.Path == nil {
		it.Route.Path = []RoutePoint{}
	}
	return marshalWithExtra(itineraryFields(it), it.Extra)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (it *Itinerary) UnmarshalJSON(data []byte) error {
	var f itineraryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := unknownFields(data, itineraryKeys)
	if err != nil {
		return err
	}
	f.Extra = extra
	*it = Itinerary(f)
	return nil
}

// Photos returns every photo of the itinerary, cluster photos first.
func (it *Itinerary) Photos() []*Photo {
	var out []*Photo
	for ci := range it.PhotoClusters {
		for pi := range it.PhotoClusters[ci].Photos {
			out = append(out, &it.PhotoClusters[ci].Photos[pi])
		}
	}
	for pi := range it.IndependentPhotos {
		out = append(out, &it.IndependentPhotos[pi])
	}
	return out
}

// CoverPhotoURL returns the URL of the first cluster photo, falling back to
// the first independent photo. Empty when the itinerary has no photos.
func (it *Itinerary) CoverPhotoURL() string {
	for _, c := range it.PhotoClusters {
		if len(c.Photos) > 0 {
			return c.Photos[0].URL
		}
	}
	if len(it.IndependentPhotos) > 0 {
		return it.IndependentPhotos[0].URL
	}
	return ""
}

// ItineraryRef is one entry of Travel.Itineraries: the itinerary's
// identifier, or an embedded itinerary document.
type ItineraryRef struct {
	ID       string
	Embedded *Itinerary
}

// MarshalJSON writes the embedded itinerary if present, else the identifier.
func (r ItineraryRef) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either a string identifier or an itinerary object.
func (r *ItineraryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		r.Embedded = nil
		return json.Unmarshal(data, &r.ID)
	}
	var it Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return fmt.Errorf("itinerary reference: %w", err)
	}
	r.ID = it.ID
	r.Embedded = &it
	return nil
}

// Travel groups the itineraries of one top-level directory.
type Travel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	StartDate   string         `json:"startDate"`
	EndDate     string         `json:"endDate,omitempty"`
	Itineraries []ItineraryRef `json:"itineraries"`
	Description string         `json:"description"`
}
