// Package storage keeps offloaded blob payloads outside the database.
package storage

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/domain/file"
)

// NewBlobStorage returns the backend selected by BLOB_STORAGE. The database
// backend returns nil so payloads stay inline in the blobs table.
func NewBlobStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (file.BlobStorage, error) {
	switch cfg.BlobStorage {
	case config.BlobStorageS3:
		return NewS3Storage(ctx, cfg, log)
	case config.BlobStorageLocal:
		return NewLocalStorage(cfg, log)
	case config.BlobStorageDatabase, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported blob storage %q", cfg.BlobStorage)
	}
}

// objectKey groups payloads by file and sorts them by creation time.
func objectKey(fileID uint) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return "blobs/" + strconv.FormatUint(uint64(fileID), 10) + "/" + id.String()
}
