package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/travel"
)

func newStore(t *testing.T) (*Store, layout.Root) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	root, err := layout.NewRoot(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(root, zaptest.NewLogger(t)), root
}

func TestUpsertReplacesById(t *testing.T) {
	s, root := newStore(t)
	existing := Index{Travels: []Entry{
		{ID: "a", Name: "A", File: "data/a/travel.json"},
		{ID: "b", Name: "B", File: "data/b/travel.json"},
	}}
	if err := jsonfile.Write(root.IndexPath(), existing); err != nil {
		t.Fatal(err)
	}

	tr := &travel.Travel{ID: "a", Name: "A prime", StartDate: "2024-01-01T00:00:00Z"}
	it := &travel.Itinerary{PhotoClusters: []travel.PhotoCluster{
		{ID: "cluster-1", Photos: []travel.Photo{{ID: "x.jpg", URL: "data/a/day1/x.jpg"}}},
	}}
	if err := s.Upsert(context.Background(), tr, []*travel.Itinerary{it}, "data/a/travel.json"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got := s.Load()
	if len(got.Travels) != 2 {
		t.Fatalf("travels = %+v", got.Travels)
	}
	if got.Travels[0].ID != "a" || got.Travels[0].Name != "A prime" || got.Travels[1].ID != "b" {
		t.Errorf("travels = %+v", got.Travels)
	}
	if got.Travels[0].CoverPhotoURL != "data/a/day1/x.jpg" {
		t.Errorf("cover = %q", got.Travels[0].CoverPhotoURL)
	}
	if got.Travels[0].Description != "Travel to A prime" {
		t.Errorf("description = %q", got.Travels[0].Description)
	}
}

func TestUpsertCoverFallsBackToIndependentPhoto(t *testing.T) {
	s, _ := newStore(t)
	it := &travel.Itinerary{IndependentPhotos: []travel.Photo{{ID: "y.jpg", URL: "u/y.jpg"}}}
	if err := s.Upsert(context.Background(), &travel.Travel{ID: "c", Name: "C"}, []*travel.Itinerary{it}, "f"); err != nil {
		t.Fatal(err)
	}
	if got := s.Load().Travels[0].CoverPhotoURL; got != "u/y.jpg" {
		t.Errorf("cover = %q", got)
	}
}

func TestCorruptIndexTreatedAsEmpty(t *testing.T) {
	s, root := newStore(t)
	if err := os.WriteFile(root.IndexPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(context.Background(), &travel.Travel{ID: "a", Name: "A"}, nil, "f"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got := s.Load()
	if len(got.Travels) != 1 || got.Travels[0].ID != "a" {
		t.Errorf("travels = %+v", got.Travels)
	}
}

func TestConcurrentUpsertsKeepEveryEntry(t *testing.T) {
	s, _ := newStore(t)
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := s.Upsert(context.Background(), &travel.Travel{ID: id, Name: id}, nil, id); err != nil {
				t.Errorf("Upsert %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if got := len(s.Load().Travels); got != len(ids) {
		t.Errorf("index has %d entries, want %d", got, len(ids))
	}
}

func TestRebuild(t *testing.T) {
	s, root := newStore(t)

	write := func(p, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	usa := root.Travel("usa")
	doc := travel.Travel{
		ID:          "usa",
		Name:        "Usa",
		StartDate:   "2024-01-01T00:00:00Z",
		Itineraries: []travel.ItineraryRef{{ID: "alabama"}, {ID: "texas"}},
	}
	if err := os.MkdirAll(usa.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := jsonfile.Write(usa.DocumentPath(), doc); err != nil {
		t.Fatal(err)
	}
	write(filepath.Join(usa.Dir, "alabama", "notes.txt"), "")
	write(filepath.Join(usa.Dir, "alabama", "b.JPG"), "")
	write(filepath.Join(usa.Dir, "alabama", "c.png"), "")

	write(filepath.Join(root.Dir, "broken", "travel.json"), "{")
	write(filepath.Join(root.Dir, "no_travel", "x.jpg"), "")

	rep, err := s.Rebuild(context.Background(), "")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, _, failed := rep.Counts(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	got := s.Load()
	if len(got.Travels) != 1 {
		t.Fatalf("travels = %+v", got.Travels)
	}
	e := got.Travels[0]
	want := Entry{
		ID:            "usa",
		Name:          "Usa",
		StartDate:     "2024-01-01T00:00:00Z",
		Description:   "Travel to Usa",
		File:          "data/usa/travel.json",
		CoverPhotoURL: "data/usa/alabama/b.JPG",
	}
	if e != want {
		t.Errorf("entry = %+v\nwant    %+v", e, want)
	}
}

func TestEntryKeepsOptionalKeys(t *testing.T) {
	s, root := newStore(t)
	tr := &travel.Travel{ID: "solo", Name: "Solo", StartDate: "2024-03-01T00:00:00Z"}
	if err := s.Upsert(context.Background(), tr, nil, "data/solo/travel.json"); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(root.IndexPath())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"endDate": null`, `"coverPhotoUrl": null`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("index lacks %s:\n%s", want, raw)
		}
	}
	if e := s.Load().Travels[0]; e.EndDate != "" || e.CoverPhotoURL != "" || e.Name != "Solo" {
		t.Errorf("reloaded entry = %+v", e)
	}

	b, err := jsonfile.Marshal(Entry{ID: "x", EndDate: "2024-03-02T00:00:00Z", CoverPhotoURL: "https://cdn.example.com/a&b.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"coverPhotoUrl": "https://cdn.example.com/a&b.jpg"`) || !strings.Contains(string(b), `"endDate": "2024-03-02T00:00:00Z"`) {
		t.Errorf("marshalled entry = %s", b)
	}
}

func TestRebuildOneTravel(t *testing.T) {
	s, root := newStore(t)
	existing := Index{Travels: []Entry{
		{ID: "japan", Name: "Japan", File: "data/japan/travel.json"},
		{ID: "usa", Name: "Old name", File: "data/usa/travel.json"},
	}}
	if err := jsonfile.Write(root.IndexPath(), existing); err != nil {
		t.Fatal(err)
	}

	usa := root.Travel("usa")
	if err := os.MkdirAll(usa.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	doc := travel.Travel{ID: "usa", Name: "Usa", StartDate: "2024-01-01T00:00:00Z"}
	if err := jsonfile.Write(usa.DocumentPath(), doc); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root.Dir, "bare"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Rebuild(context.Background(), "usa"); err != nil {
		t.Fatalf("Rebuild(usa): %v", err)
	}
	got := s.Load()
	if len(got.Travels) != 2 || got.Travels[0].ID != "japan" || got.Travels[1].Name != "Usa" {
		t.Errorf("travels = %+v", got.Travels)
	}

	if _, err := s.Rebuild(context.Background(), "bare"); err == nil {
		t.Error("expected an error for a travel without travel.json")
	}
	if _, err := s.Rebuild(context.Background(), "missing"); err == nil {
		t.Error("expected an error for an unknown travel")
	}
}
