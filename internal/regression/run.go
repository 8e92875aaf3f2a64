package regression

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"glyph-snapshot/internal/capture"
	diffimage "glyph-snapshot/internal/diff/image"
	"glyph-snapshot/internal/storage"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidConfig = errors.New("invalid config")

type Report struct {
	Result      diffimage.ComparisonResult
	Screenshots [2]string
	DiffPath    string
	DiffAmount  float64
}

// Run draws the base character and the variation sequence, captures both
// regions and compares them. The returned error is the comparison verdict
// (*diffimage.UnequalError, *diffimage.SizeMismatchError) or a capture
// failure. The surface is closed on every path. store may be nil when
// nothing is persisted.
func Run(ctx context.Context, capturer capture.Capturer, store storage.Storage, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	logger := cfg.logger()

	surface, err := capturer.Open(ctx, cfg.Scene())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := surface.Close(); err != nil {
			logger.Warn("Failed to close surface", "error", err)
		}
	}()

	if err := capture.WaitReady(ctx, surface, cfg.ReadyTimeout); err != nil {
		return nil, err
	}

	logger.Info("Taking screenshots")
	var screenshots [2]*diffimage.PixelBuffer
	for i, region := range cfg.Regions() {
		b, err := surface.Render(ctx, region)
		if err != nil {
			return nil, err
		}
		screenshots[i] = b
	}

	report := &Report{}
	if store != nil {
		report.Screenshots = persistScreenshots(ctx, store, cfg.ScreenshotKeys, screenshots, logger)
	}

	logger.Info("Comparing screenshots")
	report.Result = diffimage.Compare(screenshots[0], screenshots[1])

	if report.Result.Outcome != diffimage.Equal {
		diff := diffimage.NewPixelDiff(0.1).Calculate(screenshots[0], screenshots[1])
		report.DiffAmount = diff.DiffAmount

		if store != nil && cfg.DiffKey != "" {
			var buffer bytes.Buffer
			if err := png.Encode(&buffer, diff.Image); err != nil {
				logger.Warn("Failed to encode diff image", "error", err)
			} else if path, err := store.Put(ctx, cfg.DiffKey, buffer.Bytes()); err != nil {
				logger.Warn("Failed to save diff image", "error", err)
			} else {
				report.DiffPath = path
			}
		}
	}

	return report, report.Result.Err()
}

// persistScreenshots stores the screenshots whose key is set. Uploads are
// independent: a failed one is logged and does not cancel the other.
// Saved screenshots are for inspection and never decide the outcome.
func persistScreenshots(ctx context.Context, store storage.Storage, keys [2]string, screenshots [2]*diffimage.PixelBuffer, logger *slog.Logger) [2]string {
	var paths [2]string

	var eg errgroup.Group
	for i := range keys {
		if keys[i] == "" {
			continue
		}

		eg.Go(func() error {
			var buffer bytes.Buffer
			if err := png.Encode(&buffer, screenshots[i].Image()); err != nil {
				logger.Warn("Failed to encode screenshot", "index", i+1, "error", err)
				return nil
			}

			path, err := store.Put(ctx, keys[i], buffer.Bytes())
			if err != nil {
				logger.Warn("Failed to save screenshot", "index", i+1, "key", keys[i], "error", err)
				return nil
			}
			paths[i] = path
			return nil
		})
	}
	_ = eg.Wait()

	return paths
}
