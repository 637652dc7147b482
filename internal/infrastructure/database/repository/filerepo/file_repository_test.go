package filerepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/infrastructure/database/databasetest"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

func ptr[T any](v T) *T {
	return &v
}

func seedFile(t *testing.T, repo file.FileRepository, userID string, bucketID uint, status file.UploadStatus) *file.File {
	t.Helper()
	f := &file.File{
		FileName:     "doc.pdf",
		MimeType:     "application/pdf",
		FileSize:     10,
		UserID:       ptr(userID),
		BucketID:     ptr(bucketID),
		UploadStatus: status,
	}
	require.NoError(t, repo.Create(context.Background(), f))
	return f
}

func TestFileRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewFileGormRepository(db)

	var ids []uint
	for i := 0; i < 3; i++ {
		ids = append(ids, seedFile(t, repo, "u1", 1, file.UploadStatusSuccessful).ID)
	}
	seedFile(t, repo, "u2", 1, file.UploadStatusSuccessful)
	seedFile(t, repo, "u1", 2, file.UploadStatusSuccessful)

	page, total, err := repo.FindByUserAndBucket(ctx, "u1", 1, query.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)

	all, total, err := repo.FindByBucket(ctx, 1, query.NewPagination(0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	count, err := repo.CountByUserAndBucket(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	byIDs, total, err := repo.FindByIDsAndUser(ctx, []uint{ids[0], ids[2], 999}, "u1", query.NewPagination(0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, byIDs, 2)
	assert.Equal(t, ids[0], byIDs[0].ID)

	empty, total, err := repo.FindByIDsAndUser(ctx, nil, "u1", query.NewPagination(0, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, empty)
}

func TestFileRepository_FindByIDAndBucket(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewFileGormRepository(db)

	f := seedFile(t, repo, "u1", 1, file.UploadStatusInProgress)

	found, err := repo.FindByIDAndBucket(ctx, f.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, file.UploadStatusInProgress, found.UploadStatus)

	_, err = repo.FindByIDAndBucket(ctx, f.ID, 2)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestFileRepository_FindStaleInProgress(t *testing.T) {
	ctx := context.Background()
	db, gormDB := databasetest.New(t)
	repo := NewFileGormRepository(db)

	stale := seedFile(t, repo, "u1", 1, file.UploadStatusInProgress)
	seedFile(t, repo, "u1", 1, file.UploadStatusInProgress)
	done := seedFile(t, repo, "u1", 1, file.UploadStatusSuccessful)

	old := time.Now().Add(-2 * time.Hour)
	for _, id := range []uint{stale.ID, done.ID} {
		require.NoError(t, gormDB.Model(&entities.File{}).Where("id = ?", id).UpdateColumn("updated_at", old).Error)
	}

	found, err := repo.FindStaleInProgress(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}

func TestFileRepository_DeleteRemovesLinksAndBlobs(t *testing.T) {
	ctx := context.Background()
	db, gormDB := databasetest.New(t)
	files := NewFileGormRepository(db)
	blobs := NewBlobGormRepository(db)
	links := NewConversationFileGormRepository(db)

	f := seedFile(t, files, "u1", 1, file.UploadStatusSuccessful)
	require.NoError(t, blobs.Create(ctx, &file.Blob{ID: "b1", FileID: f.ID, Category: file.BlobCategoryOriginal, Buffer: "aGk="}))
	require.NoError(t, links.Create(ctx, &file.ConversationFile{ConversationID: 3, FileID: f.ID}))

	require.NoError(t, files.Delete(ctx, f.ID))

	var blobCount, linkCount int64
	require.NoError(t, gormDB.Model(&entities.Blob{}).Count(&blobCount).Error)
	require.NoError(t, gormDB.Model(&entities.ConversationFile{}).Count(&linkCount).Error)
	assert.Zero(t, blobCount)
	assert.Zero(t, linkCount)
}

func TestBlobRepository_FindByFileAndCategory(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewBlobGormRepository(db)

	require.NoError(t, repo.Create(ctx, &file.Blob{ID: "orig", FileID: 1, Type: "application/pdf", Category: file.BlobCategoryOriginal, Buffer: "aGk="}))
	require.NoError(t, repo.Create(ctx, &file.Blob{ID: "proc", FileID: 1, Type: file.ProcessedMimeType, Category: file.BlobCategoryProcessed, StorageKey: ptr("1/key")}))

	original, err := repo.FindByFileAndCategory(ctx, 1, file.BlobCategoryOriginal)
	require.NoError(t, err)
	assert.Equal(t, "orig", original.ID)
	assert.Equal(t, "aGk=", original.Buffer)

	processed, err := repo.FindByFileAndCategory(ctx, 1, file.BlobCategoryProcessed)
	require.NoError(t, err)
	require.NotNil(t, processed.StorageKey)
	assert.Equal(t, "1/key", *processed.StorageKey)

	missing, err := repo.FindByFileAndCategory(ctx, 2, file.BlobCategoryOriginal)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.DeleteByFileID(ctx, 1))
	left, err := repo.FindByFileID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestConversationFileRepository_AssignMessage(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewConversationFileGormRepository(db)

	a := &file.ConversationFile{ConversationID: 1, FileID: 10}
	b := &file.ConversationFile{ConversationID: 1, FileID: 11}
	other := &file.ConversationFile{ConversationID: 2, FileID: 10}
	for _, cf := range []*file.ConversationFile{a, b, other} {
		require.NoError(t, repo.Create(ctx, cf))
	}

	matched, err := repo.FindByConversationAndFiles(ctx, 1, []uint{10})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, a.ID, matched[0].ID)

	require.NoError(t, repo.AssignMessage(ctx, []uint{a.ID, b.ID}, 77))
	require.NoError(t, repo.AssignMessage(ctx, nil, 78))

	linked, err := repo.FindByConversation(ctx, 1)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	for _, cf := range linked {
		require.NotNil(t, cf.MessageID)
		assert.Equal(t, uint(77), *cf.MessageID)
	}
}
