package photo

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/electronjoe/traveldraft/internal/normalize"
)

// ErrNoExif is returned by a Decoder when the image carries no readable EXIF
// block. The image is still listed, without position or time.
var ErrNoExif = errors.New("no exif data")

// Decoder turns raw image bytes into EXIF tags.
type Decoder interface {
	Decode(r io.Reader) (normalize.TagSet, error)
}

// ExifDecoder decodes EXIF with goexif. GPS positions are rendered as
// unsigned decimal degrees in the tag description; the hemisphere stays in
// the reference tags.
type ExifDecoder struct{}

// Decode implements Decoder.
func (ExifDecoder) Decode(r io.Reader) (normalize.TagSet, error) {
	rr := &readErrReader{r: r}
	x, err := exif.Decode(rr)
	if rr.err != nil {
		return nil, fmt.Errorf("reading image: %w", rr.err)
	}
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrNoExif, err)
	}

	tags := normalize.TagSet{}
	if lat, lng, err := x.LatLong(); err == nil {
		for name, v := range map[exif.FieldName]float64{exif.GPSLatitude: lat, exif.GPSLongitude: lng} {
			tag, err := x.Get(name)
			if err != nil {
				continue
			}
			tags[string(name)] = normalize.Tag{
				Value:       tag.String(),
				Description: strconv.FormatFloat(math.Abs(v), 'f', -1, 64),
			}
		}
	}
	for _, name := range []exif.FieldName{exif.GPSLatitudeRef, exif.GPSLongitudeRef, exif.DateTimeOriginal, exif.DateTime} {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		s = strings.TrimRight(s, "\x00 ")
		tags[string(name)] = normalize.Tag{Value: s, Description: s}
	}
	return tags, nil
}

// readErrReader remembers the first read error other than io.EOF, so that
// I/O failures are not mistaken for a missing EXIF block.
type readErrReader struct {
	r   io.Reader
	err error
}

func (rr *readErrReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && err != io.EOF && rr.err == nil {
		rr.err = err
	}
	return n, err
}

// recordFromTags builds the sidecar record of an image.
func recordFromTags(filename string, tags normalize.TagSet) Record {
	rec := Record{Filename: filename, Type: TypeImage}
	if c, ok := normalize.Coordinate(tags); ok {
		rec.Coordinates = &c
	}
	for _, name := range []string{normalize.TagDateTimeOrig, normalize.TagDateTime} {
		if tag, ok := tags[name]; ok && tag.Description != "" {
			dt := tag.Description
			rec.DateTime = &dt
			break
		}
	}
	return rec
}
