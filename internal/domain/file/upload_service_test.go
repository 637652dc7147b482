package file

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
	"jan-server/services/assistant-api/pkg/telemetry"
)

type uploadFixture struct {
	files   *memoryFiles
	blobs   *memoryBlobs
	links   *memoryConversationFiles
	api     *MockFilesAPI
	service *UploadService
}

func newUploadFixture(buckets ...*bucket.Bucket) *uploadFixture {
	f := &uploadFixture{
		files: newMemoryFiles(),
		blobs: &memoryBlobs{},
		links: &memoryConversationFiles{},
		api:   &MockFilesAPI{},
	}
	finder := staticBuckets{}
	for _, b := range buckets {
		finder[b.ID] = b
	}
	f.service = NewUploadService(
		f.files,
		f.links,
		NewBlobStore(f.blobs, nil),
		finder,
		staticClients{api: f.api},
		keyTranslator{},
		telemetry.NewSanitizer(telemetry.PIILevelFull, "test"),
		zerolog.Nop(),
	)
	return f
}

func ptr[T any](v T) *T {
	return &v
}

func userBucket() *bucket.Bucket {
	return &bucket.Bucket{ID: 1, Name: "user", Endpoint: "http://files", IndexName: "idx", Type: bucket.BucketTypeUser, PerUserQuota: 10}
}

func TestUploadFileToUserBucket(t *testing.T) {
	fx := newUploadFixture(userBucket())
	var sent retrieval.UploadFileRequest
	fx.api.UploadFileFunc = func(ctx context.Context, req retrieval.UploadFileRequest) error {
		sent = req
		return nil
	}

	f, err := fx.service.UploadFile(context.Background(), UploadParams{
		User:      &user.User{ID: "u1"},
		Buffer:    []byte("%PDF"),
		MimeType:  "application/pdf",
		FileName:  "my report.pdf",
		FileSize:  4,
		BucketID:  ptr(uint(1)),
		EmbedType: EmbedTypeVector,
	})
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, "my%20report.pdf", sent.FileName)
	assert.Equal(t, "user-u1", sent.Bucket)
	assert.Equal(t, "idx", sent.IndexName)
	assert.Equal(t, "1", sent.ID)

	stored, err := fx.files.FindByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, UploadStatusSuccessful, stored.UploadStatus)
	require.NotNil(t, stored.BucketID)
	assert.Equal(t, uint(1), *stored.BucketID)
	assert.True(t, stored.OwnedBy("u1"))
}

func TestUploadFileStoresProcessedTextBlob(t *testing.T) {
	fx := newUploadFixture(userBucket())
	fx.api.ProcessFileFunc = func(ctx context.Context, req retrieval.ProcessFileRequest) (json.RawMessage, error) {
		assert.Equal(t, processChunkSize, req.ChunkSize)
		return json.RawMessage(`{"text":"hello"}`), nil
	}

	f, err := fx.service.UploadFile(context.Background(), UploadParams{
		User:      &user.User{ID: "u1"},
		Buffer:    []byte("hello"),
		MimeType:  "text/plain",
		FileName:  "notes.txt",
		FileSize:  5,
		BucketID:  ptr(uint(1)),
		EmbedType: EmbedTypeText,
	})
	require.NoError(t, err)

	require.Len(t, fx.blobs.items, 1)
	blob := fx.blobs.items[0]
	assert.Equal(t, f.ID, blob.FileID)
	assert.Equal(t, BlobCategoryProcessed, blob.Category)
	assert.Equal(t, ProcessedMimeType, blob.Type)
	decoded, err := base64.StdEncoding.DecodeString(blob.Buffer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello"}`, string(decoded))
}

func TestUploadFileValidation(t *testing.T) {
	general := &bucket.Bucket{ID: 2, Type: bucket.BucketTypeGeneral}
	restricted := &bucket.Bucket{ID: 3, Type: bucket.BucketTypeUser, PerUserQuota: 10, AllowedFileNameExtensions: []string{".txt"}}
	limited := &bucket.Bucket{ID: 4, Type: bucket.BucketTypeUser, PerUserQuota: 10, FileSizeLimits: map[string]float64{"general": 1}}
	conversationBucket := &bucket.Bucket{ID: 5, Type: bucket.BucketTypeConversation}

	tests := []struct {
		name     string
		params   UploadParams
		errType  platformerrors.ErrorType
		contains string
	}{
		{
			name:     "unknown embed type",
			params:   UploadParams{FileName: "a.pdf", EmbedType: "magic", BucketID: ptr(uint(1))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "embedType must be one of",
		},
		{
			name:     "unknown bucket",
			params:   UploadParams{FileName: "a.pdf", EmbedType: EmbedTypeVector, BucketID: ptr(uint(99))},
			errType:  platformerrors.ErrorTypeNotFound,
			contains: "No bucket configured.",
		},
		{
			name:     "user upload into general bucket",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "a.pdf", EmbedType: EmbedTypeVector, BucketID: ptr(uint(2))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "not allowed to store in general bucket",
		},
		{
			name:     "anonymous upload into conversation bucket",
			params:   UploadParams{FileName: "a.pdf", EmbedType: EmbedTypeVector, BucketID: ptr(uint(5))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "not allowed to store in conversation bucket",
		},
		{
			name:     "conversation upload into user bucket",
			params:   UploadParams{User: &user.User{ID: "u1"}, ConversationID: ptr(uint(7)), FileName: "a.pdf", EmbedType: EmbedTypeVector, BucketID: ptr(uint(1))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "not allowed to store in user bucket",
		},
		{
			name:     "image",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "photo.JPG", EmbedType: EmbedTypeVector, BucketID: ptr(uint(1))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "errorNotSupportedFileTypeImage",
		},
		{
			name:     "outdated office format",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "old.doc", EmbedType: EmbedTypeVector, BucketID: ptr(uint(1))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "errorOutdatedFileType:.docx",
		},
		{
			name:     "unsupported type",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "data.xyz", EmbedType: EmbedTypeVector, BucketID: ptr(uint(1))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "errorNotSupportedFileType",
		},
		{
			name:     "extension not allowed by bucket",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "a.pdf", EmbedType: EmbedTypeVector, BucketID: ptr(uint(3))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "errorNotAllowedFileType",
		},
		{
			name:     "file too large",
			params:   UploadParams{User: &user.User{ID: "u1"}, FileName: "a.pdf", FileSize: 1_000_001, EmbedType: EmbedTypeVector, BucketID: ptr(uint(4))},
			errType:  platformerrors.ErrorTypeValidation,
			contains: "errorFileTooLarge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newUploadFixture(userBucket(), general, restricted, limited, conversationBucket)
			_, err := fx.service.UploadFile(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tt.errType), err.Error())
			assert.Contains(t, err.Error(), tt.contains)
			assert.Empty(t, fx.files.items)
		})
	}
}

func TestUploadFileEnforcesUserQuota(t *testing.T) {
	b := userBucket()
	b.PerUserQuota = 1
	fx := newUploadFixture(b)
	params := UploadParams{
		User:      &user.User{ID: "u1"},
		FileName:  "a.pdf",
		MimeType:  "application/pdf",
		BucketID:  ptr(uint(1)),
		EmbedType: EmbedTypeVector,
	}

	_, err := fx.service.UploadFile(context.Background(), params)
	require.NoError(t, err)

	_, err = fx.service.UploadFile(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User quota of 1 files exceeded.")
}

func TestUploadFileRollsBackOnRemoteFailure(t *testing.T) {
	tests := []struct {
		status int
		key    string
	}{
		{400, "errorUploadingFileDamaged"},
		{413, "errorFileTooLarge"},
		{415, "errorNotSupportedFileType"},
		{422, "errorUploadingREISConfiguration"},
		{500, "errorUploadingFile"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			fx := newUploadFixture(userBucket())
			fx.api.UploadFileFunc = func(ctx context.Context, req retrieval.UploadFileRequest) error {
				return &retrieval.ResponseError{StatusCode: tt.status, Body: "rejected"}
			}

			_, err := fx.service.UploadFile(context.Background(), UploadParams{
				User:      &user.User{ID: "u1"},
				FileName:  "a.pdf",
				BucketID:  ptr(uint(1)),
				EmbedType: EmbedTypeVector,
			})
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))
			assert.Contains(t, err.Error(), messageKeyPrefix+tt.key)
			assert.Empty(t, fx.files.items)
		})
	}
}

func TestUploadFileWithoutBucket(t *testing.T) {
	fx := newUploadFixture()

	f, err := fx.service.UploadFile(context.Background(), UploadParams{
		User:           &user.User{ID: "u1"},
		Buffer:         []byte("raw"),
		MimeType:       "text/plain",
		FileName:       "a.txt",
		FileSize:       3,
		EmbedType:      EmbedTypeNone,
		ConversationID: ptr(uint(8)),
	})
	require.NoError(t, err)
	assert.Equal(t, UploadStatusSuccessful, f.UploadStatus)
	assert.Nil(t, f.BucketID)

	require.Len(t, fx.links.items, 1)
	assert.Equal(t, uint(8), fx.links.items[0].ConversationID)
	assert.Nil(t, fx.links.items[0].MessageID)

	require.Len(t, fx.blobs.items, 1)
	assert.Equal(t, BlobCategoryOriginal, fx.blobs.items[0].Category)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw")), fx.blobs.items[0].Buffer)
}

func TestUploadFileWithoutBucketRequiresEmbedNone(t *testing.T) {
	fx := newUploadFixture()

	_, err := fx.service.UploadFile(context.Background(), UploadParams{FileName: "a.txt", EmbedType: EmbedTypeVector})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed to store non embedded files without bucket")
}

func TestRelevantSizeLimitPrecedence(t *testing.T) {
	limits := map[string]float64{
		"application/pdf": 5,
		"pdf":             3,
		"general":         1,
	}

	limit, ok := RelevantSizeLimit(limits, "a.PDF", "application/pdf")
	require.True(t, ok)
	assert.Equal(t, 5.0, limit)

	limit, ok = RelevantSizeLimit(limits, "a.PDF", "application/octet-stream")
	require.True(t, ok)
	assert.Equal(t, 3.0, limit)

	limit, ok = RelevantSizeLimit(limits, "a.txt", "text/plain")
	require.True(t, ok)
	assert.Equal(t, 1.0, limit)

	_, ok = RelevantSizeLimit(map[string]float64{"pdf": 1}, "a.txt", "text/plain")
	assert.False(t, ok)
}

func TestIsFileSizeWithinLimits(t *testing.T) {
	limits := map[string]float64{"general": 1.5}

	assert.True(t, IsFileSizeWithinLimits(nil, "a.pdf", "application/pdf", 1<<40))
	assert.True(t, IsFileSizeWithinLimits(limits, "a.pdf", "application/pdf", 1_500_000))
	assert.False(t, IsFileSizeWithinLimits(limits, "a.pdf", "application/pdf", 1_500_001))
	assert.True(t, IsFileSizeWithinLimits(map[string]float64{"docx": 1}, "a.pdf", "application/pdf", 10_000_000))
}

func TestEncodeURIComponentKeepsUnreservedMarks(t *testing.T) {
	assert.Equal(t, "report%20(final)!'*.pdf", encodeURIComponent("report (final)!'*.pdf"))
	assert.Equal(t, "a%2Bb%26c%C3%A4~-_.pdf", encodeURIComponent("a+b&cä~-_.pdf"))
}
