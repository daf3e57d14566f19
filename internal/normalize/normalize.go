package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// EXIF tag names read by the normalizer.
const (
	TagGPSLatitude     = "GPSLatitude"
	TagGPSLatitudeRef  = "GPSLatitudeRef"
	TagGPSLongitude    = "GPSLongitude"
	TagGPSLongitudeRef = "GPSLongitudeRef"
	TagDateTimeOrig    = "DateTimeOriginal"
	TagDateTime        = "DateTime"
)

// DateLayout is the layout of a normalized timestamp.
const DateLayout = "2006-01-02T15:04:05Z"

// Tag is one decoded EXIF field. Description holds the human-readable
// rendering (decimal degrees for GPS positions), Value the raw text.
type Tag struct {
	Value       string
	Description string
}

// TagSet maps EXIF tag names to decoded fields.
type TagSet map[string]Tag

// Coordinates is a decimal-degree position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate reads GPSLatitude/GPSLongitude from their descriptions and
// applies the hemisphere references. Ranges are not validated.
func Coordinate(tags TagSet) (Coordinates, bool) {
	latTag, okLat := tags[TagGPSLatitude]
	lngTag, okLng := tags[TagGPSLongitude]
	if !okLat || !okLng {
		return Coordinates{}, false
	}
	if latTag.Description == "" || lngTag.Description == "" {
		return Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latTag.Description), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngTag.Description), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return Coordinates{}, false
	}

	if ref, ok := tags[TagGPSLongitudeRef]; ok && strings.Contains(ref.Value, "W") && lng > 0 {
		lng = -lng
	}
	if ref, ok := tags[TagGPSLatitudeRef]; ok && strings.Contains(ref.Value, "S") && lat > 0 {
		lat = -lat
	}

	return Coordinates{Lat: lat, Lng: lng}, true
}

// DateTime converts "YYYY:MM:DD HH:MM:SS" into "YYYY-MM-DDTHH:MM:SSZ".
// The local time is kept verbatim; the Z suffix is only a label.
func DateTime(exif string) (string, bool) {
	date, clock, found := strings.Cut(strings.TrimSpace(exif), " ")
	if !found {
		return "", false
	}
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return "", false
	}
	return strings.ReplaceAll(date, ":", "-") + "T" + clock + "Z", true
}

// ParseDate parses a normalized timestamp.
func ParseDate(iso string) (time.Time, error) {
	return time.Parse(DateLayout, iso)
}

// Humanize turns a directory name into a display name: underscores become
// spaces and the first character is upper-cased.
func Humanize(dir string) string {
	name := strings.ReplaceAll(dir, "_", " ")
	if name == "" {
		return name
	}
	r := []rune(name)
	if r[0] < unicode.MaxASCII && (unicode.IsLetter(r[0]) || unicode.IsDigit(r[0])) {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
