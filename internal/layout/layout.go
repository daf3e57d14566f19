// Package layout names the files of a travel data tree:
//
//	root/index.json
//	root/<travel>/travel.json
//	root/<travel>/<itinerary>/<itinerary>-metadata.json
//	root/<travel>/<itinerary>/<itinerary>.json
//	root/<travel>/<itinerary>/cloudinary-upload-results.json
//
// Identity (travel id, itinerary id, URL root) is computed once when the tree
// is listed and carried down, instead of being re-derived from path strings.
package layout

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const (
	IndexFile          = "index.json"
	TravelFile         = "travel.json"
	UploadManifestFile = "cloudinary-upload-results.json"
	metadataSuffix     = "-metadata.json"
)

// Root is the data directory. URLRoot prefixes every relative URL written
// into the documents; it defaults to the data directory's base name.
type Root struct {
	Dir     string
	URLRoot string
}

// NewRoot resolves dir to an absolute path. An empty urlRoot defaults to the
// base name of dir.
func NewRoot(dir, urlRoot string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve data root %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Root{}, fmt.Errorf("data root: %w", err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("data root %s is not a directory", abs)
	}
	if urlRoot == "" {
		urlRoot = filepath.Base(abs)
	}
	return Root{Dir: abs, URLRoot: urlRoot}, nil
}

// URL joins slash-separated parts under URLRoot. The root is kept verbatim so
// that an absolute prefix such as https://host/data keeps its scheme.
func (r Root) URL(parts ...string) string {
	rel := path.Join(parts...)
	base := strings.TrimSuffix(r.URLRoot, "/")
	if base == "" {
		return rel
	}
	return base + "/" + rel
}

// IndexPath is the location of the travel index.
func (r Root) IndexPath() string {
	return filepath.Join(r.Dir, IndexFile)
}

// Travel returns the travel directory named id.
func (r Root) Travel(id string) Travel {
	return Travel{Root: r, ID: id, Dir: filepath.Join(r.Dir, id)}
}

// Travels lists the top-level directories in name order. A non-empty only
// restricts the result to that directory.
func (r Root) Travels(only string) ([]Travel, error) {
	names, err := subdirectories(r.Dir)
	if err != nil {
		return nil, err
	}
	var travels []Travel
	for _, name := range names {
		if only != "" && name != only {
			continue
		}
		travels = append(travels, r.Travel(name))
	}
	if only != "" && len(travels) == 0 {
		return nil, fmt.Errorf("travel directory %q not found under %s", only, r.Dir)
	}
	return travels, nil
}

// Travel is one top-level directory of the data root.
type Travel struct {
	Root Root
	ID   string
	Dir  string
}

// DocumentPath is the location of travel.json.
func (t Travel) DocumentPath() string {
	return filepath.Join(t.Dir, TravelFile)
}

// DocumentURL is the relative URL of travel.json as listed in the index.
func (t Travel) DocumentURL() string {
	return t.Root.URL(t.ID, TravelFile)
}

// Itinerary returns the itinerary directory named id.
func (t Travel) Itinerary(id string) Itinerary {
	return Itinerary{Travel: t, ID: id, Dir: filepath.Join(t.Dir, id)}
}

// Itineraries lists the travel's sub-directories in name order.
func (t Travel) Itineraries() ([]Itinerary, error) {
	names, err := subdirectories(t.Dir)
	if err != nil {
		return nil, err
	}
	its := make([]Itinerary, 0, len(names))
	for _, name := range names {
		its = append(its, t.Itinerary(name))
	}
	return its, nil
}

// Itinerary is a leaf directory of photos.
type Itinerary struct {
	Travel Travel
	ID     string
	Dir    string
}

// MetadataPath is the location of the per-directory metadata sidecar.
func (it Itinerary) MetadataPath() string {
	return MetadataPath(it.Dir)
}

// DocumentPath is the location of the itinerary JSON.
func (it Itinerary) DocumentPath() string {
	return filepath.Join(it.Dir, it.ID+".json")
}

// ManifestPath is the location of the upload results manifest.
func (it Itinerary) ManifestPath() string {
	return filepath.Join(it.Dir, UploadManifestFile)
}

// PhotoURL is the relative URL of a photo file in this itinerary.
func (it Itinerary) PhotoURL(filename string) string {
	return it.Travel.Root.URL(it.Travel.ID, it.ID, filename)
}

// PublicID is the remote asset identifier for a photo file: the travel and
// itinerary ids followed by the file name without its extension.
func (it Itinerary) PublicID(filename string) string {
	base := filename[:len(filename)-len(filepath.Ext(filename))]
	return path.Join(it.Travel.ID, it.ID, base)
}

// MetadataPath is the sidecar path for any directory.
func MetadataPath(dir string) string {
	return filepath.Join(dir, filepath.Base(dir)+metadataSuffix)
}

func subdirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
