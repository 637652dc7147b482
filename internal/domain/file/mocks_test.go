package file

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

type memoryFiles struct {
	items  map[uint]*File
	nextID uint
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{items: map[uint]*File{}}
}

func (m *memoryFiles) notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "file not found", nil, "")
}

func (m *memoryFiles) Create(ctx context.Context, f *File) error {
	m.nextID++
	f.ID = m.nextID
	copied := *f
	m.items[f.ID] = &copied
	return nil
}

func (m *memoryFiles) Update(ctx context.Context, f *File) error {
	copied := *f
	m.items[f.ID] = &copied
	return nil
}

func (m *memoryFiles) Delete(ctx context.Context, id uint) error {
	delete(m.items, id)
	return nil
}

func (m *memoryFiles) FindByID(ctx context.Context, id uint) (*File, error) {
	if f, ok := m.items[id]; ok {
		return f, nil
	}
	return nil, m.notFound(ctx)
}

func (m *memoryFiles) FindByIDAndBucket(ctx context.Context, id uint, bucketID uint) (*File, error) {
	f, ok := m.items[id]
	if !ok || f.BucketID == nil || *f.BucketID != bucketID {
		return nil, m.notFound(ctx)
	}
	return f, nil
}

func (m *memoryFiles) CountByUserAndBucket(ctx context.Context, userID string, bucketID uint) (int64, error) {
	var count int64
	for _, f := range m.items {
		if f.OwnedBy(userID) && f.BucketID != nil && *f.BucketID == bucketID {
			count++
		}
	}
	return count, nil
}

func (m *memoryFiles) filter(keep func(f *File) bool) ([]*File, int64, error) {
	var out []*File
	for id := uint(1); id <= m.nextID; id++ {
		if f, ok := m.items[id]; ok && keep(f) {
			out = append(out, f)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryFiles) FindByBucket(ctx context.Context, bucketID uint, p query.Pagination) ([]*File, int64, error) {
	return m.filter(func(f *File) bool { return f.BucketID != nil && *f.BucketID == bucketID })
}

func (m *memoryFiles) FindByUserAndBucket(ctx context.Context, userID string, bucketID uint, p query.Pagination) ([]*File, int64, error) {
	return m.filter(func(f *File) bool {
		return f.OwnedBy(userID) && f.BucketID != nil && *f.BucketID == bucketID
	})
}

func (m *memoryFiles) FindByIDsAndUser(ctx context.Context, ids []uint, userID string, p query.Pagination) ([]*File, int64, error) {
	return m.filter(func(f *File) bool {
		if !f.OwnedBy(userID) {
			return false
		}
		for _, id := range ids {
			if f.ID == id {
				return true
			}
		}
		return false
	})
}

func (m *memoryFiles) FindStaleInProgress(ctx context.Context, updatedBefore time.Time) ([]*File, error) {
	files, _, err := m.filter(func(f *File) bool {
		return f.UploadStatus == UploadStatusInProgress && f.UpdatedAt.Before(updatedBefore)
	})
	return files, err
}

type memoryBlobs struct {
	items []*Blob
}

func (m *memoryBlobs) Create(ctx context.Context, b *Blob) error {
	m.items = append(m.items, b)
	return nil
}

func (m *memoryBlobs) FindByFileID(ctx context.Context, fileID uint) ([]*Blob, error) {
	var out []*Blob
	for _, b := range m.items {
		if b.FileID == fileID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBlobs) FindByFileAndCategory(ctx context.Context, fileID uint, category BlobCategory) (*Blob, error) {
	for _, b := range m.items {
		if b.FileID == fileID && b.Category == category {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memoryBlobs) DeleteByFileID(ctx context.Context, fileID uint) error {
	var kept []*Blob
	for _, b := range m.items {
		if b.FileID != fileID {
			kept = append(kept, b)
		}
	}
	m.items = kept
	return nil
}

type memoryConversationFiles struct {
	items []*ConversationFile
}

func (m *memoryConversationFiles) Create(ctx context.Context, cf *ConversationFile) error {
	cf.ID = uint(len(m.items) + 1)
	m.items = append(m.items, cf)
	return nil
}

func (m *memoryConversationFiles) FindByConversation(ctx context.Context, conversationID uint) ([]*ConversationFile, error) {
	var out []*ConversationFile
	for _, cf := range m.items {
		if cf.ConversationID == conversationID {
			out = append(out, cf)
		}
	}
	return out, nil
}

func (m *memoryConversationFiles) FindByConversationAndFiles(ctx context.Context, conversationID uint, fileIDs []uint) ([]*ConversationFile, error) {
	return nil, nil
}

func (m *memoryConversationFiles) AssignMessage(ctx context.Context, ids []uint, messageID uint) error {
	return nil
}

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Name() string { return "memory" }

func (m *memoryStorage) Put(ctx context.Context, fileID uint, data []byte, contentType string) (string, error) {
	key := "files/" + string(rune('a'+len(m.objects)))
	m.objects[key] = data
	return key, nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return m.objects[key], nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type MockFilesAPI struct {
	GetFileTypesFunc func(ctx context.Context) ([]retrieval.FileType, error)
	UploadFileFunc   func(ctx context.Context, req retrieval.UploadFileRequest) error
	ProcessFileFunc  func(ctx context.Context, req retrieval.ProcessFileRequest) (json.RawMessage, error)
	DeleteFileFunc   func(ctx context.Context, id string) error
	SearchFunc       func(ctx context.Context, req retrieval.SearchRequest) ([]message.Source, error)
}

func (m *MockFilesAPI) GetFileTypes(ctx context.Context) ([]retrieval.FileType, error) {
	if m.GetFileTypesFunc != nil {
		return m.GetFileTypesFunc(ctx)
	}
	return []retrieval.FileType{
		{FileNameExtension: ".pdf", MimeType: "application/pdf"},
		{FileNameExtension: ".txt", MimeType: "text/plain"},
	}, nil
}

func (m *MockFilesAPI) UploadFile(ctx context.Context, req retrieval.UploadFileRequest) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, req)
	}
	return nil
}

func (m *MockFilesAPI) ProcessFile(ctx context.Context, req retrieval.ProcessFileRequest) (json.RawMessage, error) {
	if m.ProcessFileFunc != nil {
		return m.ProcessFileFunc(ctx, req)
	}
	return json.RawMessage(`{"chunks":[]}`), nil
}

func (m *MockFilesAPI) DeleteFile(ctx context.Context, id string) error {
	if m.DeleteFileFunc != nil {
		return m.DeleteFileFunc(ctx, id)
	}
	return nil
}

func (m *MockFilesAPI) GetChunks(ctx context.Context, documentURI string, chunkURIs []string) ([]string, error) {
	return nil, nil
}

func (m *MockFilesAPI) GetDocument(ctx context.Context, uri string) (*retrieval.Document, error) {
	return nil, nil
}

func (m *MockFilesAPI) Search(ctx context.Context, req retrieval.SearchRequest) ([]message.Source, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, req)
	}
	return nil, nil
}

type staticClients struct {
	api *MockFilesAPI
}

func (c staticClients) ForEndpoint(endpoint string, headers map[string]string) retrieval.FilesAPI {
	return c.api
}

func (c staticClients) Forget(endpoint string, headers map[string]string) {}

type staticBuckets map[uint]*bucket.Bucket

func (b staticBuckets) FindByID(ctx context.Context, id uint) (*bucket.Bucket, error) {
	if found, ok := b[id]; ok {
		return found, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "bucket not found", nil, "")
}

func (b staticBuckets) ResolveBucket(ctx context.Context, idOrType string) (*bucket.Bucket, error) {
	for _, found := range b {
		if string(found.Type) == idOrType || strconv.FormatUint(uint64(found.ID), 10) == idOrType {
			return found, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "Bucket not found.", nil, "")
}

type keyTranslator struct{}

func (keyTranslator) Translate(ctx context.Context, key string, args map[string]string) string {
	if format, ok := args["format"]; ok {
		return key + ":" + format
	}
	return key
}

type staticExtensions struct {
	externalID string
}

func (s staticExtensions) ExternalIDForBucket(ctx context.Context, bucketID uint) (string, bool, error) {
	return s.externalID, s.externalID != "", nil
}
