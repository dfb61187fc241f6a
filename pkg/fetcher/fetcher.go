// Package fetcher downloads image candidates, validates them, and
// normalizes everything to white-backed JPEG on disk.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/provider"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/ratelimit"
)

// Fetcher downloads and normalizes one candidate at a time. A shared
// token bucket caps the aggregate download rate across workers.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	minFileSize int64
	jpegQuality int
	limiter     ratelimit.Limiter
	log         logger.Logger
}

// New creates a Fetcher from scrape settings
func New(cfg config.ScrapeConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:      &http.Client{Timeout: cfg.DownloadTimeout},
		userAgent:   cfg.UserAgent,
		minFileSize: cfg.MinFileSize,
		jpegQuality: cfg.JPEGQuality,
		limiter:     ratelimit.NewTokenBucket(cfg.RequestsPerMinute, time.Minute),
		log:         log,
	}
}

// Fetch downloads the candidate, validates it, and writes a normalized
// JPEG at destPath. On success exactly one file exists at destPath; on
// any failure no file is left behind.
func (f *Fetcher) Fetch(ctx context.Context, candidate provider.Candidate, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.Ref, nil)
	if err != nil {
		return errors.Wrap(errors.TypeCandidateInvalid, err, "invalid candidate URL")
	}
	req.Header.Set("User-Agent", f.userAgent)

	if !f.limiter.Allow() {
		f.limiter.Wait()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.TypeFetchTransient, err, "download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.TypeFetchTransient, "download returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return errors.Newf(errors.TypeCandidateInvalid, "not an image: content type %q", contentType)
	}

	if resp.ContentLength > 0 && resp.ContentLength < f.minFileSize {
		return errors.Newf(errors.TypeCandidateInvalid, "declared size %d below minimum %d", resp.ContentLength, f.minFileSize)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.TypeFetchTransient, err, "reading response body failed")
	}
	if int64(len(body)) < f.minFileSize {
		return errors.Newf(errors.TypeCandidateInvalid, "size %d below minimum %d", len(body), f.minFileSize)
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(errors.TypeCandidateInvalid, err, "image decode failed")
	}

	normalized := flattenToWhite(img)

	if err := f.writeJPEG(normalized, destPath); err != nil {
		return err
	}

	f.log.DebugWithFields("image stored", map[string]interface{}{
		"source":   candidate.Ref,
		"provider": string(candidate.Provider),
		"format":   format,
		"path":     destPath,
	})
	return nil
}

// flattenToWhite composites the image onto a white background so alpha
// and palette images survive the JPEG re-encode
func flattenToWhite(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}

// writeJPEG encodes to a temp file in the destination directory and
// renames it into place, removing the temp file on any failure
func (f *Fetcher) writeJPEG(img image.Image, destPath string) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.TypeStorage, err, "creating attraction directory failed")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(destPath)+".tmp*")
	if err != nil {
		return errors.Wrap(errors.TypeStorage, err, "creating temp file failed")
	}
	tmpPath := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: f.jpegQuality}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(errors.TypeStorage, err, "JPEG encode failed")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(errors.TypeStorage, err, "closing temp file failed")
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(errors.TypeStorage, err, fmt.Sprintf("renaming into %s failed", destPath))
	}
	return nil
}
