package file

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// BlobStore saves blob rows and keeps their payload either inline as base64
// or in an external BlobStorage when one is configured.
type BlobStore struct {
	repo    BlobRepository
	storage BlobStorage
}

// NewBlobStore creates a blob store. A nil storage keeps payloads in the database.
func NewBlobStore(repo BlobRepository, storage BlobStorage) *BlobStore {
	return &BlobStore{repo: repo, storage: storage}
}

// Save stores data for blob. The blob id is generated when empty.
func (s *BlobStore) Save(ctx context.Context, blob *Blob, data []byte) error {
	if blob.ID == "" {
		blob.ID = uuid.NewString()
	}

	if s.storage != nil {
		key, err := s.storage.Put(ctx, blob.FileID, data, blob.Type)
		if err != nil {
			return fmt.Errorf("store blob payload in %s: %w", s.storage.Name(), err)
		}
		blob.StorageKey = &key
		blob.Buffer = ""
	} else {
		blob.Buffer = base64.StdEncoding.EncodeToString(data)
	}

	if err := s.repo.Create(ctx, blob); err != nil {
		if blob.StorageKey != nil {
			_ = s.storage.Delete(ctx, *blob.StorageKey)
		}
		return err
	}
	return nil
}

// Read returns the decoded payload of blob.
func (s *BlobStore) Read(ctx context.Context, blob *Blob) ([]byte, error) {
	if blob.StorageKey != nil && *blob.StorageKey != "" {
		if s.storage == nil {
			return nil, fmt.Errorf("blob %s is offloaded but no blob storage is configured", blob.ID)
		}
		return s.storage.Get(ctx, *blob.StorageKey)
	}
	return base64.StdEncoding.DecodeString(blob.Buffer)
}

// DeleteForFile removes all blobs of a file including offloaded payloads.
func (s *BlobStore) DeleteForFile(ctx context.Context, fileID uint) error {
	if s.storage != nil {
		blobs, err := s.repo.FindByFileID(ctx, fileID)
		if err != nil {
			return err
		}
		for _, blob := range blobs {
			if blob.StorageKey == nil {
				continue
			}
			if err := s.storage.Delete(ctx, *blob.StorageKey); err != nil {
				return fmt.Errorf("delete blob payload %s: %w", *blob.StorageKey, err)
			}
		}
	}
	return s.repo.DeleteByFileID(ctx, fileID)
}

// FindOriginal returns the original upload of a file, or nil when there is none.
func (s *BlobStore) FindOriginal(ctx context.Context, fileID uint) (*Blob, error) {
	return s.repo.FindByFileAndCategory(ctx, fileID, BlobCategoryOriginal)
}
