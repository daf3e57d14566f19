// Package cdn uploads itinerary images to Cloudinary and records the remote
// renditions in each itinerary's upload manifest.
package cdn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/electronjoe/traveldraft/internal/backfill"
	"github.com/electronjoe/traveldraft/internal/config"
	"github.com/electronjoe/traveldraft/internal/jsonfile"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/report"
)

// Profile selects the compression applied by the store.
type Profile int

const (
	// ProfileStandard keeps the original and adds 800x600 and 400x300
	// renditions.
	ProfileStandard Profile = iota
	// ProfileAggressive is used for files over the size limit.
	ProfileAggressive
	// ProfileMaximum is the last resort after a size rejection. No
	// renditions are requested.
	ProfileMaximum
)

const maxCompressionNote = "Maximum compression applied"

// Request describes one upload.
type Request struct {
	PublicID string
	Profile  Profile
}

// Result is what the store returns for an upload. EagerURLs follow the
// order of the requested renditions.
type Result struct {
	PublicID  string
	SecureURL string
	EagerURLs []string
	Bytes     int64
}

// Uploader sends one image to the remote store.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, req Request) (*Result, error)
}

// Options tunes a Service.
type Options struct {
	MaxFileSize       int64
	Timeout           time.Duration
	MaxRetries        int
	RetryCooldown     time.Duration
	RetryExponent     float64
	RequestsPerSecond float64
	Workers           int
}

// OptionsFromConfig maps the upload section of the config file.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MaxFileSize:       cfg.MaxFileSize(),
		Timeout:           cfg.UploadTimeout(),
		MaxRetries:        cfg.Upload.MaxRetries,
		RetryCooldown:     time.Duration(cfg.Upload.RetryCooldown * float64(time.Second)),
		RetryExponent:     cfg.Upload.RetryExponent,
		RequestsPerSecond: cfg.Upload.RequestsPerSecond,
		Workers:           cfg.Workers,
	}
}

// Service uploads the images of itinerary directories.
type Service struct {
	up      Uploader
	opts    Options
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewService creates a Service sending through up.
func NewService(up Uploader, opts Options, logger *zap.Logger) *Service {
	if opts.RetryExponent < 1 {
		opts.RetryExponent = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Service{
		up:      up,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger,
	}
}

// UploadAll uploads every itinerary directory of every travel, or of the
// named travel only. Itinerary directories are handled by up to
// Options.Workers goroutines; uploads within one directory are sequential.
func (s *Service) UploadAll(ctx context.Context, root layout.Root, only string, force bool) (*report.Report, error) {
	rep := report.New("upload")

	travels, err := root.Travels(only)
	if err != nil {
		return rep, err
	}

	var its []layout.Itinerary
	for _, tr := range travels {
		list, err := tr.Itineraries()
		if err != nil {
			s.log.Error("cannot list itineraries", zap.String("travel", tr.ID), zap.Error(err))
			rep.Fail(tr.ID, err)
			continue
		}
		its = append(its, list...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, it := range its {
		it := it
		g.Go(func() error {
			return s.UploadItinerary(gctx, it, force, rep)
		})
	}
	return rep, g.Wait()
}

// UploadItinerary uploads the images of one itinerary directory and upserts
// the results into its manifest. Files already in the manifest are skipped
// unless force is set. Only cancellation is returned as an error; per-file
// failures go to rep.
func (s *Service) UploadItinerary(ctx context.Context, it layout.Itinerary, force bool, rep *report.Report) error {
	files, err := imageFiles(it.Dir)
	if err != nil {
		rep.Fail(s.unit(it, ""), err)
		return nil
	}
	if len(files) == 0 {
		return nil
	}

	var results []backfill.UploadResult
	if jsonfile.Exists(it.ManifestPath()) {
		results, err = backfill.LoadManifest(it.ManifestPath(), s.log)
		if err != nil {
			s.log.Warn("upload manifest unreadable, starting a new one", zap.String("file", it.ManifestPath()), zap.Error(err))
			results = nil
		}
	}
	done := make(map[string]bool, len(results))
	for _, r := range results {
		done[r.OriginalFilename] = true
	}

	s.log.Info("uploading images", zap.String("itinerary", s.unit(it, "")), zap.Int("files", len(files)))
	for _, name := range files {
		unit := s.unit(it, name)
		if done[name] && !force {
			rep.Skip(unit, "already uploaded")
			continue
		}

		res, err := s.uploadFile(ctx, filepath.Join(it.Dir, name), it.PublicID(name))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("failed to upload", zap.String("file", unit), zap.Error(err))
			rep.Fail(unit, err)
			continue
		}
		res.OriginalFilename = name

		results = backfill.UpsertResult(results, *res)
		if err := backfill.SaveManifest(it.ManifestPath(), results); err != nil {
			rep.Fail(unit, err)
			continue
		}
		s.log.Info("uploaded", zap.String("file", unit), zap.String("public_id", res.PublicID), zap.Int64("kb", res.CloudinarySizeKB))
		rep.Success(unit)
	}
	return nil
}

// uploadFile uploads one image, switching to the aggressive profile for
// large files and retrying once with local recompression when the store
// rejects the size.
func (s *Service) uploadFile(ctx context.Context, path, publicID string) (*backfill.UploadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	size := info.Size()

	profile := ProfileStandard
	if s.opts.MaxFileSize > 0 && size > s.opts.MaxFileSize {
		s.log.Warn("file too large, applying aggressive compression",
			zap.String("file", path), zap.String("size_mb", megabytes(size)))
		profile = ProfileAggressive
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := s.send(ctx, body, Request{PublicID: publicID, Profile: profile})
	if err == nil {
		return uploadResult(res, size, ""), nil
	}
	if !errors.Is(err, ErrFileTooLarge) {
		return nil, err
	}

	s.log.Warn("retrying with maximum compression", zap.String("file", path), zap.Error(err))
	small, cerr := recompress(path)
	if cerr != nil {
		return nil, fmt.Errorf("recompress after %v: %w", err, cerr)
	}
	res, err = s.send(ctx, small, Request{PublicID: publicID, Profile: ProfileMaximum})
	if err != nil {
		return nil, fmt.Errorf("failed even with maximum compression: %w", err)
	}
	r := uploadResult(res, size, maxCompressionNote)
	r.OptimizedURL = r.SecureURL
	r.ThumbnailURL = r.SecureURL
	return r, nil
}

// send performs one upload under the rate limiter and the per-call timeout.
// A timed out call is retried with exponential backoff; other errors are
// returned as is.
func (s *Service) send(ctx context.Context, body []byte, req Request) (*Result, error) {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.opts.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		}
		res, err := s.up.Upload(callCtx, bytes.NewReader(body), req)
		timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
		cancel()

		if err == nil {
			return res, nil
		}
		if !timedOut {
			return nil, err
		}
		if attempt >= s.opts.MaxRetries {
			return nil, fmt.Errorf("upload timed out after %d attempts: %w", attempt+1, err)
		}

		delay := time.Duration(float64(s.opts.RetryCooldown) * math.Pow(s.opts.RetryExponent, float64(attempt)))
		s.log.Warn("upload timed out, retrying",
			zap.String("public_id", req.PublicID),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// recompress fits the image into 1500x1200 and re-encodes it as JPEG at
// quality 30.
func recompress(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	img = imaging.Fit(img, 1500, 1200, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(30)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func uploadResult(res *Result, size int64, note string) *backfill.UploadResult {
	r := &backfill.UploadResult{
		OriginalSizeMB:   megabytes(size),
		PublicID:         res.PublicID,
		SecureURL:        res.SecureURL,
		OptimizedURL:     res.SecureURL,
		ThumbnailURL:     res.SecureURL,
		CloudinarySizeKB: int64(math.Round(float64(res.Bytes) / 1024)),
		Note:             note,
	}
	if len(res.EagerURLs) > 0 && res.EagerURLs[0] != "" {
		r.OptimizedURL = res.EagerURLs[0]
	}
	if len(res.EagerURLs) > 1 && res.EagerURLs[1] != "" {
		r.ThumbnailURL = res.EagerURLs[1]
	}
	return r
}

func megabytes(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/1024/1024)
}

func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, e.Name())
		}
	}
	return files, nil
}

func (s *Service) unit(it layout.Itinerary, name string) string {
	u := it.Travel.ID + "/" + it.ID
	if name != "" {
		u += "/" + name
	}
	return u
}
