package layout

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTreePaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	for _, d := range []string{"usa_2025/alabama", "usa_2025/texas", "japan"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := NewRoot(dir, "")
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	if root.URLRoot != "data" {
		t.Errorf("URLRoot = %q, want data", root.URLRoot)
	}

	travels, err := root.Travels("")
	if err != nil {
		t.Fatal(err)
	}
	if len(travels) != 2 || travels[0].ID != "japan" || travels[1].ID != "usa_2025" {
		t.Fatalf("Travels = %+v", travels)
	}

	its, err := travels[1].Itineraries()
	if err != nil {
		t.Fatal(err)
	}
	if len(its) != 2 || its[0].ID != "alabama" {
		t.Fatalf("Itineraries = %+v", its)
	}

	al := its[0]
	checks := []struct {
		got, want string
	}{
		{al.MetadataPath(), filepath.Join(dir, "usa_2025", "alabama", "alabama-metadata.json")},
		{al.DocumentPath(), filepath.Join(dir, "usa_2025", "alabama", "alabama.json")},
		{al.ManifestPath(), filepath.Join(dir, "usa_2025", "alabama", "cloudinary-upload-results.json")},
		{al.PhotoURL("IMG_1.jpg"), "data/usa_2025/alabama/IMG_1.jpg"},
		{al.PublicID("IMG_1.jpg"), "usa_2025/alabama/IMG_1"},
		{travels[1].DocumentURL(), "data/usa_2025/travel.json"},
		{root.IndexPath(), filepath.Join(dir, "index.json")},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestTravelsOnly(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "a"), 0o755)
	os.MkdirAll(filepath.Join(dir, "b"), 0o755)

	root, err := NewRoot(dir, "static")
	if err != nil {
		t.Fatal(err)
	}
	travels, err := root.Travels("b")
	if err != nil {
		t.Fatal(err)
	}
	if len(travels) != 1 || travels[0].ID != "b" {
		t.Errorf("Travels(b) = %+v", travels)
	}
	if _, err := root.Travels("missing"); err == nil {
		t.Error("Travels(missing) should fail")
	}
}

func TestURLRootWithScheme(t *testing.T) {
	dir := t.TempDir()
	for _, urlRoot := range []string{"https://cdn.example.com/data", "https://cdn.example.com/data/"} {
		root, err := NewRoot(dir, urlRoot)
		if err != nil {
			t.Fatal(err)
		}
		tr := root.Travel("usa")
		it := tr.Itinerary("ny")
		if got := it.PhotoURL("a.jpg"); got != "https://cdn.example.com/data/usa/ny/a.jpg" {
			t.Errorf("PhotoURL with root %q = %q", urlRoot, got)
		}
		if got := tr.DocumentURL(); got != "https://cdn.example.com/data/usa/travel.json" {
			t.Errorf("DocumentURL with root %q = %q", urlRoot, got)
		}
	}

	if got := (Root{}).URL("usa", "travel.json"); got != "usa/travel.json" {
		t.Errorf("URL without root = %q", got)
	}
}
