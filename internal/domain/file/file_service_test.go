package file

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

type fileFixture struct {
	files   *memoryFiles
	blobs   *memoryBlobs
	links   *memoryConversationFiles
	storage *memoryStorage
	api     *MockFilesAPI
	service *FileService
}

func newFileFixture(extensions BucketExtensions) *fileFixture {
	fx := &fileFixture{
		files:   newMemoryFiles(),
		blobs:   &memoryBlobs{},
		links:   &memoryConversationFiles{},
		storage: &memoryStorage{objects: map[string][]byte{}},
		api:     &MockFilesAPI{},
	}
	buckets := staticBuckets{
		1: {ID: 1, Type: bucket.BucketTypeGeneral},
		2: {ID: 2, Type: bucket.BucketTypeUser},
		3: {ID: 3, Type: bucket.BucketTypeConversation},
	}
	fx.service = NewFileService(fx.files, fx.links, NewBlobStore(fx.blobs, fx.storage), buckets, extensions,
		staticClients{api: fx.api}, zerolog.Nop())
	return fx
}

func (fx *fileFixture) addFile(t *testing.T, owner string, bucketID uint) *File {
	t.Helper()
	f := &File{FileName: "a.pdf", UploadStatus: UploadStatusSuccessful, UpdatedAt: time.Now()}
	if owner != "" {
		f.UserID = ptr(owner)
	}
	if bucketID > 0 {
		f.BucketID = ptr(bucketID)
	}
	require.NoError(t, fx.files.Create(context.Background(), f))
	return f
}

func TestGetFilesByBucketType(t *testing.T) {
	fx := newFileFixture(nil)
	fx.addFile(t, "", 1)
	mine := fx.addFile(t, "u1", 2)
	fx.addFile(t, "u2", 2)
	linked := fx.addFile(t, "u1", 3)
	fx.addFile(t, "u1", 3)
	require.NoError(t, fx.links.Create(context.Background(), &ConversationFile{ConversationID: 9, FileID: linked.ID}))

	u := &user.User{ID: "u1"}
	p := query.NewPagination(1, 20)

	general, total, err := fx.service.GetFiles(context.Background(), u, "general", nil, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, general, 1)

	own, _, err := fx.service.GetFiles(context.Background(), u, "user", nil, p)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	conv, _, err := fx.service.GetFiles(context.Background(), u, "conversation", ptr(uint(9)), p)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, linked.ID, conv[0].ID)

	empty, total, err := fx.service.GetFiles(context.Background(), u, "conversation", ptr(uint(10)), p)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Zero(t, total)
}

func TestDeleteFileToleratesRemoteNotFound(t *testing.T) {
	fx := newFileFixture(nil)
	f := fx.addFile(t, "u1", 2)
	require.NoError(t, fx.service.blobs.Save(context.Background(), &Blob{FileID: f.ID, Category: BlobCategoryOriginal}, []byte("x")))
	fx.api.DeleteFileFunc = func(ctx context.Context, id string) error {
		return &retrieval.ResponseError{StatusCode: 404}
	}

	require.NoError(t, fx.service.DeleteFile(context.Background(), &user.User{ID: "u1"}, 2, f.ID))
	assert.Empty(t, fx.files.items)
	assert.Empty(t, fx.blobs.items)
	assert.Empty(t, fx.storage.objects)
}

func TestDeleteFileFailsOnRemoteError(t *testing.T) {
	fx := newFileFixture(nil)
	f := fx.addFile(t, "u1", 2)
	fx.api.DeleteFileFunc = func(ctx context.Context, id string) error {
		return errors.New("timeout")
	}

	err := fx.service.DeleteFile(context.Background(), &user.User{ID: "u1"}, 2, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.Len(t, fx.files.items, 1)
}

func TestDeleteFileOfOtherUserIsNotFound(t *testing.T) {
	fx := newFileFixture(nil)
	f := fx.addFile(t, "u2", 2)

	err := fx.service.DeleteFile(context.Background(), &user.User{ID: "u1"}, 2, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestDeleteFileFromGeneralBucketRequiresAdmin(t *testing.T) {
	fx := newFileFixture(nil)
	f := fx.addFile(t, "", 1)
	deleted := false
	fx.api.DeleteFileFunc = func(ctx context.Context, id string) error {
		deleted = true
		return nil
	}

	err := fx.service.DeleteFile(context.Background(), &user.User{ID: "u1"}, 1, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
	assert.False(t, deleted)
	assert.Len(t, fx.files.items, 1)

	require.NoError(t, fx.service.DeleteFile(context.Background(), &user.User{ID: "admin", Admin: true}, 1, f.ID))
	assert.True(t, deleted)
	assert.Empty(t, fx.files.items)
}

func TestIsGeneralUpload(t *testing.T) {
	fx := newFileFixture(nil)
	ctx := context.Background()

	general, err := fx.service.IsGeneralUpload(ctx, &user.User{ID: "admin", Admin: true}, 1)
	require.NoError(t, err)
	assert.True(t, general)

	_, err = fx.service.IsGeneralUpload(ctx, &user.User{ID: "u1"}, 1)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))

	general, err = fx.service.IsGeneralUpload(ctx, &user.User{ID: "u1"}, 2)
	require.NoError(t, err)
	assert.False(t, general)
}

func TestSearchFilesTagsExtension(t *testing.T) {
	fx := newFileFixture(staticExtensions{externalID: "files_4"})
	var got retrieval.SearchRequest
	fx.api.SearchFunc = func(ctx context.Context, req retrieval.SearchRequest) ([]message.Source, error) {
		got = req
		return []message.Source{{Title: "a"}, {Title: "b"}}, nil
	}

	sources, err := fx.service.SearchFiles(context.Background(), &user.User{ID: "u1"}, 3, "budget", 0, ptr(uint(12)))
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "files_4", sources[0].ExtensionExternalID)
	assert.Equal(t, "files_4", sources[1].ExtensionExternalID)
	assert.Equal(t, "conversation-12", got.Bucket)
	assert.Equal(t, 20, got.Take)
}

func TestSearchFilesRequiresQuery(t *testing.T) {
	fx := newFileFixture(nil)
	_, err := fx.service.SearchFiles(context.Background(), &user.User{ID: "u1"}, 2, "  ", 5, nil)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestDownloadFileReadsOffloadedBlob(t *testing.T) {
	fx := newFileFixture(nil)
	f := fx.addFile(t, "u1", 0)
	require.NoError(t, fx.service.blobs.Save(context.Background(), &Blob{FileID: f.ID, Category: BlobCategoryOriginal, Type: "text/plain"}, []byte("content")))
	require.NotNil(t, fx.blobs.items[0].StorageKey)
	assert.Empty(t, fx.blobs.items[0].Buffer)

	got, data, err := fx.service.DownloadFile(context.Background(), &user.User{ID: "u1"}, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, []byte("content"), data)

	_, _, err = fx.service.DownloadFile(context.Background(), &user.User{ID: "u2"}, f.ID)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestCleanupStaleUploads(t *testing.T) {
	fx := newFileFixture(nil)
	stale := fx.addFile(t, "u1", 2)
	stale.UploadStatus = UploadStatusInProgress
	stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, fx.files.Update(context.Background(), stale))

	fresh := fx.addFile(t, "u1", 2)
	fresh.UploadStatus = UploadStatusInProgress
	require.NoError(t, fx.files.Update(context.Background(), fresh))

	done := fx.addFile(t, "u1", 2)

	removed, err := fx.service.CleanupStaleUploads(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = fx.files.FindByID(context.Background(), stale.ID)
	assert.Error(t, err)
	_, err = fx.files.FindByID(context.Background(), fresh.ID)
	assert.NoError(t, err)
	_, err = fx.files.FindByID(context.Background(), done.ID)
	assert.NoError(t, err)
}
