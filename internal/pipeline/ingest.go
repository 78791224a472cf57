package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ReelForge/internal/pipeline/storage"
	types "ReelForge/pkg"
)

// Fetcher copies objects between the blob store and a job workspace.
type Fetcher struct {
	storage storage.Storage
	retry   types.RetryConfig
	logger  *zap.Logger
}

func NewFetcher(st storage.Storage, retryCfg types.RetryConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{storage: st, retry: retryCfg, logger: logger}
}

// FetchInputs downloads the hook and demo clips into ws concurrently.
func (f *Fetcher) FetchInputs(ctx context.Context, ws *Workspace, bucket, hookKey, demoKey string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return f.Download(gctx, bucket, hookKey, ws.HookPath()) })
	g.Go(func() error { return f.Download(gctx, bucket, demoKey, ws.DemoPath()) })
	return g.Wait()
}

// Download writes bucket/key to localPath, retrying transient failures.
func (f *Fetcher) Download(ctx context.Context, bucket, key, localPath string) error {
	err := Retry(ctx, f.logger, f.retry, fmt.Sprintf("download %s", key), func() error {
		body, err := f.storage.Download(ctx, bucket, key)
		if err != nil {
			return err
		}
		defer body.Close()

		out, err := os.Create(localPath)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create %s: %w", localPath, err))
		}
		if _, err := io.Copy(out, body); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
	if err != nil {
		f.logger.Error("Download failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	f.logger.Debug("Downloaded input", zap.String("key", key), zap.String("local_path", localPath))
	return nil
}

// Upload stores localPath at bucket/key, retrying transient failures.
func (f *Fetcher) Upload(ctx context.Context, localPath, bucket, key string) error {
	err := Retry(ctx, f.logger, f.retry, fmt.Sprintf("upload %s", key), func() error {
		file, err := os.Open(localPath)
		if err != nil {
			return Permanent(err)
		}
		defer file.Close()
		return f.storage.Upload(ctx, bucket, key, file)
	})
	if err != nil {
		f.logger.Error("Upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	f.logger.Info("Upload completed", zap.String("key", key))
	return nil
}
