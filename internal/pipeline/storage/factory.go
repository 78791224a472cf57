package storage

import (
	"context"
	"fmt"

	types "ReelForge/pkg"
)

func NewStorage(ctx context.Context, cfg types.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "s3":
		st, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "local":
		st, err := NewLocalStorage(cfg.Local)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Type)
	}
}
