package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/electronjoe/traveldraft/internal/config"
)

// ErrNotFound means the service has no place for the coordinates.
var ErrNotFound = errors.New("no place found")

// Geocoder names the place at a position.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// addressKeys are tried in order when the result has no name of its own.
var addressKeys = []string{
	"tourism", "attraction", "leisure", "amenity", "building",
	"neighbourhood", "suburb", "village", "town", "city",
	"municipality", "county", "state", "country",
}

type reverseResponse struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Nominatim is a reverse geocoder backed by the OpenStreetMap Nominatim API.
// Requests are rate limited and answers are cached per rounded position.
type Nominatim struct {
	endpoint  string
	userAgent string
	language  string
	zoom      int

	client  *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]string
}

// NewNominatim creates a client from the geocode section of the config.
func NewNominatim(cfg config.Geocode) *Nominatim {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Nominatim{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		language:  cfg.Language,
		zoom:      cfg.Zoom,
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter:   rate.NewLimiter(limit, 1),
		cache:     make(map[string]string),
	}
}

// Reverse implements Geocoder.
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	n.mu.Lock()
	name, ok := n.cache[key]
	n.mu.Unlock()
	if ok {
		if name == "" {
			return "", ErrNotFound
		}
		return name, nil
	}

	name, err := n.lookup(ctx, lat, lng)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	n.mu.Lock()
	n.cache[key] = name
	n.mu.Unlock()
	return name, err
}

func (n *Nominatim) lookup(ctx context.Context, lat, lng float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	if n.zoom > 0 {
		q.Set("zoom", strconv.Itoa(n.zoom))
	}
	if n.language != "" {
		q.Set("accept-language", n.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: unexpected status %s", resp.Status)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reverse geocode: decode response: %w", err)
	}
	if body.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, body.Error)
	}
	if name := friendlyName(body); name != "" {
		return name, nil
	}
	return "", ErrNotFound
}

// friendlyName picks a short place name from a reverse geocoding result.
func friendlyName(r reverseResponse) string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	for _, k := range addressKeys {
		if v := strings.TrimSpace(r.Address[k]); v != "" {
			return v
		}
	}
	first, _, _ := strings.Cut(r.DisplayName, ",")
	return strings.TrimSpace(first)
}
