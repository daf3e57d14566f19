package photo

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap/zaptest"

	"github.com/electronjoe/traveldraft/internal/normalize"
	"github.com/electronjoe/traveldraft/internal/report"
)

// testdata/gps.jpg stores its GPS position as strings rather than rationals.
const gpsFixture = "testdata/gps.jpg"

func TestExifDecoderGPS(t *testing.T) {
	f, err := os.Open(gpsFixture)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tags, err := ExifDecoder{}.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	rec := recordFromTags("gps.jpg", tags)
	if rec.Coordinates == nil {
		t.Fatalf("no coordinates decoded: %+v", tags)
	}

	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	x, err := exif.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	lat, lng, err := x.LatLong()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rec.Coordinates.Lat-lat) > 1e-9 || math.Abs(rec.Coordinates.Lng-lng) > 1e-9 {
		t.Errorf("coordinates = %+v, want %v,%v", *rec.Coordinates, lat, lng)
	}
	if math.Abs(lat-52.8428) > 1e-3 || math.Abs(lng-11.1829) > 1e-3 {
		t.Errorf("LatLong = %v,%v", lat, lng)
	}
	if rec.DateTime == nil || *rec.DateTime != "2014:04:26 19:09:19" {
		t.Errorf("dateTime = %v", rec.DateTime)
	}
}

func writeImage(t *testing.T, path string, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestExtractorImagesWithoutExif(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "germany", "saxony")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeImage(t, filepath.Join(dir, "plain.jpg"), func(f *os.File, m image.Image) error {
		return jpeg.Encode(f, m, nil)
	})
	writeImage(t, filepath.Join(dir, "shot.png"), func(f *os.File, m image.Image) error {
		return png.Encode(f, m)
	})
	fixture, err := os.ReadFile(gpsFixture)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "gps.jpg"), string(fixture))
	writeFile(t, filepath.Join(dir, "clip.mp4"), "video")

	rep, err := NewExtractor(root, ExifDecoder{}, zaptest.NewLogger(t)).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, o := range rep.Outcomes() {
		if o.Status == report.StatusFailed {
			t.Errorf("unexpected failure for %s", o.Unit)
		}
	}

	recs, err := LoadRecords(filepath.Join(dir, "saxony-metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4: %+v", len(recs), recs)
	}
	byName := map[string]Record{}
	for _, r := range recs {
		byName[r.Filename] = r
	}
	for _, name := range []string{"plain.jpg", "shot.png"} {
		r, ok := byName[name]
		if !ok || r.Type != TypeImage || r.Coordinates != nil || r.DateTime != nil {
			t.Errorf("%s = %+v (listed %v)", name, r, ok)
		}
	}
	if r := byName["gps.jpg"]; !r.Geotagged() {
		t.Errorf("gps.jpg = %+v", r)
	}
	if r := byName["clip.mp4"]; r.Type != TypeVideo {
		t.Errorf("clip.mp4 = %+v", r)
	}
}

func TestRecordFromTags(t *testing.T) {
	tags := geoTags("33.865", "151.209", "S", "E", "")
	delete(tags, normalize.TagDateTimeOrig)
	tags[normalize.TagDateTime] = normalize.Tag{Value: "2023:12:31 23:59:00", Description: "2023:12:31 23:59:00"}

	rec := recordFromTags("opera.jpg", tags)
	if rec.Coordinates == nil || rec.Coordinates.Lat != -33.865 || rec.Coordinates.Lng != 151.209 {
		t.Errorf("coordinates = %+v", rec.Coordinates)
	}
	if rec.DateTime == nil || *rec.DateTime != "2023:12:31 23:59:00" {
		t.Errorf("dateTime = %v", rec.DateTime)
	}

	bare := recordFromTags("bare.jpg", nil)
	if bare.Type != TypeImage || bare.Coordinates != nil || bare.DateTime != nil || bare.Geotagged() {
		t.Errorf("bare = %+v", bare)
	}
}
