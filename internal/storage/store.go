// Package storage uploads extracted frames to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// ObjectStore stores a local file under key and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key, filePath string) (string, error)
	URL(key string) string
}

// UploadFrames uploads every file in paths under prefix with at most
// concurrency uploads in flight. The returned URLs follow the order of paths.
// The first failure cancels the remaining uploads.
func UploadFrames(ctx context.Context, store ObjectStore, prefix string, paths []string, concurrency int) ([]string, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx = logger.WithComponent(logger.WithStage(ctx, logger.LogStages.FrameUpload), logger.ComponentNames.ObjectStore)

	urls := make([]string, len(paths))
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		g.Go(func() error {
			key := path.Join(prefix, filepath.Base(p))
			url, err := store.Upload(gctx, key, p)
			if err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Frames uploaded",
		"frame_count", len(urls),
		"prefix", prefix,
		"concurrency", concurrency,
		"duration_ms", time.Since(start).Milliseconds())
	return urls, nil
}
