// Package index maintains root/index.json, the list of travels shown on the
// front end's landing page.
//
// The index is shared by every travel, so all writes go through a Store that
// serializes read-modify-write cycles within the process and across processes.
package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/normalize"
	"github.com/electronjoe/traveldraft/internal/photo"
	"github.com/electronjoe/traveldraft/internal/report"
	"github.com/electronjoe/traveldraft/internal/travel"
)

const lockRetryDelay = 50 * time.Millisecond

// Entry summarizes one travel. An empty EndDate or CoverPhotoURL is written
// as null.
type Entry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Description   string `json:"description"`
	File          string `json:"file"`
	CoverPhotoURL string `json:"coverPhotoUrl"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	type entry Entry
	return jsonfile.Marshal(struct {
		entry
		EndDate       *string `json:"endDate"`
		CoverPhotoURL *string `json:"coverPhotoUrl"`
	}{entry(e), nullable(e.EndDate), nullable(e.CoverPhotoURL)})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Index is the content of index.json.
type Index struct {
	Travels []Entry `json:"travels"`
}

// Upsert replaces the entry with the same id, or appends e.
func (idx *Index) Upsert(e Entry) {
	for i := range idx.Travels {
		if idx.Travels[i].ID == e.ID {
			idx.Travels[i] = e
			return
		}
	}
	idx.Travels = append(idx.Travels, e)
}

// Store owns index.json. It is safe for concurrent use.
type Store struct {
	root layout.Root
	log  *zap.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// NewStore returns the store for the index under root.
func NewStore(root layout.Root, logger *zap.Logger) *Store {
	return &Store{
		root: root,
		log:  logger,
		lock: flock.New(root.IndexPath() + ".lock"),
	}
}

// Load reads the index. A missing file is an empty index; a corrupt one is
// logged and also treated as empty.
func (s *Store) Load() *Index {
	idx := &Index{Travels: []Entry{}}
	p := s.root.IndexPath()
	if err := jsonfile.Read(p, idx); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("existing index is unreadable, starting from an empty index",
				zap.String("file", p), zap.Error(err))
		}
		return &Index{Travels: []Entry{}}
	}
	if idx.Travels == nil {
		idx.Travels = []Entry{}
	}
	return idx
}

// Update runs fn on the current index and writes the result back while
// holding the process mutex and the index file lock.
func (s *Store) Update(ctx context.Context, fn func(*Index) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock index: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock index: %s is held by another process", s.lock.Path())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn("failed to release index lock", zap.Error(err))
		}
	}()

	idx := s.Load()
	if err := fn(idx); err != nil {
		return err
	}
	if err := jsonfile.Write(s.root.IndexPath(), idx); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Upsert records one freshly built travel. The cover photo is the first photo
// of the first itinerary.
func (s *Store) Upsert(ctx context.Context, t *travel.Travel, itineraries []*travel.Itinerary, file string) error {
	e := Entry{
		ID:          t.ID,
		Name:        t.Name,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Description: t.Description,
		File:        file,
	}
	if e.Description == "" {
		e.Description = "Travel to " + e.Name
	}
	if len(itineraries) > 0 && itineraries[0] != nil {
		e.CoverPhotoURL = itineraries[0].CoverPhotoURL()
	}

	err := s.Update(ctx, func(idx *Index) error {
		idx.Upsert(e)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("updated travel index", zap.String("travel", t.ID))
	return nil
}

// Rebuild replaces the index with one entry per top-level directory that has
// a travel.json. The cover photo is the first image file, in name order, of
// the first listed itinerary directory. A non-empty only re-reads that travel
// alone and upserts its entry, leaving the others untouched.
func (s *Store) Rebuild(ctx context.Context, only string) (*report.Report, error) {
	rep := report.New("index")

	travels, err := s.root.Travels(only)
	if err != nil {
		return rep, err
	}
	if only != "" && !jsonfile.Exists(travels[0].DocumentPath()) {
		return rep, fmt.Errorf("travel %q has no %s", only, layout.TravelFile)
	}

	var entries []Entry
	for _, tr := range travels {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if !jsonfile.Exists(tr.DocumentPath()) {
			continue
		}
		e, err := s.entryFromDisk(tr)
		if err != nil {
			s.log.Error("error reading travel document", zap.String("travel", tr.ID), zap.Error(err))
			rep.Fail(tr.ID, err)
			continue
		}
		entries = append(entries, e)
		rep.Success(tr.ID)
	}

	err = s.Update(ctx, func(idx *Index) error {
		if only == "" {
			idx.Travels = append([]Entry{}, entries...)
			return nil
		}
		for _, e := range entries {
			idx.Upsert(e)
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	s.log.Info("updated travel index", zap.String("file", s.root.IndexPath()), zap.Int("travels", len(entries)))
	return rep, nil
}

func (s *Store) entryFromDisk(tr layout.Travel) (Entry, error) {
	var doc travel.Travel
	if err := jsonfile.Read(tr.DocumentPath(), &doc); err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:          doc.ID,
		Name:        doc.Name,
		StartDate:   doc.StartDate,
		EndDate:     doc.EndDate,
		Description: doc.Description,
		File:        tr.DocumentURL(),
	}
	if e.ID == "" {
		e.ID = tr.ID
	}
	if e.Name == "" {
		e.Name = normalize.Humanize(tr.ID)
	}
	if e.Description == "" {
		name := doc.Name
		if name == "" {
			name = tr.ID
		}
		e.Description = "Travel to " + name
	}

	if len(doc.Itineraries) > 0 {
		it := tr.Itinerary(doc.Itineraries[0].ID)
		if file := firstImage(it.Dir); file != "" {
			e.CoverPhotoURL = it.PhotoURL(file)
		}
	}
	return e, nil
}

// firstImage returns the first image file name in dir, or "" when there is
// none or dir cannot be read.
func firstImage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && photo.IsImageFile(e.Name()) {
			return e.Name()
		}
	}
	return ""
}
