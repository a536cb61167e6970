package filestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/acentos/bookstore/internal/config"
)

// Store keeps uploaded cover images. Local disk for single-node deployments,
// S3-compatible object storage otherwise.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error
	Open(ctx context.Context, key string) (ReadSeekCloser, error)
	// URL resolves a stored key to the address browsers load it from. baseURL
	// is the server's own address, used when the store has no public URL.
	URL(key, baseURL string) string
}

type ReadSeekCloser interface {
	Read(p []byte) (n int, err error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

func New(cfg config.FileStoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "local":
		return newLocalStore(cfg)
	case "s3":
		return newS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
}
