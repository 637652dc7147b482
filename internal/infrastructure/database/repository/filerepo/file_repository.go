package filerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// FileGormRepository implements file.FileRepository using GORM
type FileGormRepository struct {
	db *transaction.Database
}

var _ file.FileRepository = (*FileGormRepository)(nil)

func NewFileGormRepository(db *transaction.Database) file.FileRepository {
	return &FileGormRepository{db: db}
}

func (repo *FileGormRepository) Create(ctx context.Context, f *file.File) error {
	model := entities.NewSchemaFile(f)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create file", err, "f3a9a261-1541-4689-b0d3-1b281d44141c")
	}
	f.ID = model.ID
	f.CreatedAt = model.CreatedAt
	f.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *FileGormRepository) Update(ctx context.Context, f *file.File) error {
	model := entities.NewSchemaFile(f)
	if err := repo.db.GetTx(ctx).Save(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update file", err, "14879acd-f404-4185-b769-37b65d884771")
	}
	f.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes the file row and its conversation links. Blobs are removed
// by the blob store beforehand so offloaded payloads are not orphaned.
func (repo *FileGormRepository) Delete(ctx context.Context, id uint) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx)
		if err := tx.Where("file_id = ?", id).Delete(&entities.ConversationFile{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete file links", err, "3276f1db-e3b0-4ea4-8ab8-3a420769b4bd")
		}
		if err := tx.Where("file_id = ?", id).Delete(&entities.Blob{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete file blobs", err, "76cfd51c-00de-4fe9-ae74-2b56f6ec528e")
		}
		if err := tx.Delete(&entities.File{}, id).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete file", err, "8b7033f6-82dd-46d7-be40-ac82246c48e8")
		}
		return nil
	})
}

func (repo *FileGormRepository) FindByID(ctx context.Context, id uint) (*file.File, error) {
	return repo.first(ctx, repo.db.GetTx(ctx).Where("id = ?", id))
}

func (repo *FileGormRepository) FindByIDAndBucket(ctx context.Context, id uint, bucketID uint) (*file.File, error) {
	return repo.first(ctx, repo.db.GetTx(ctx).Where("id = ? AND bucket_id = ?", id, bucketID))
}

func (repo *FileGormRepository) CountByUserAndBucket(ctx context.Context, userID string, bucketID uint) (int64, error) {
	var count int64
	if err := repo.db.GetTx(ctx).
		Model(&entities.File{}).
		Where("user_id = ? AND bucket_id = ?", userID, bucketID).
		Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count files", err, "ffc23537-e294-47b9-aed0-6a5309a31311")
	}
	return count, nil
}

func (repo *FileGormRepository) FindByBucket(ctx context.Context, bucketID uint, pagination query.Pagination) ([]*file.File, int64, error) {
	return repo.page(ctx, repo.db.GetTx(ctx).Model(&entities.File{}).Where("bucket_id = ?", bucketID), pagination)
}

func (repo *FileGormRepository) FindByUserAndBucket(ctx context.Context, userID string, bucketID uint, pagination query.Pagination) ([]*file.File, int64, error) {
	return repo.page(ctx, repo.db.GetTx(ctx).Model(&entities.File{}).Where("user_id = ? AND bucket_id = ?", userID, bucketID), pagination)
}

func (repo *FileGormRepository) FindByIDsAndUser(ctx context.Context, ids []uint, userID string, pagination query.Pagination) ([]*file.File, int64, error) {
	if len(ids) == 0 {
		return []*file.File{}, 0, nil
	}
	return repo.page(ctx, repo.db.GetTx(ctx).Model(&entities.File{}).Where("id IN ? AND user_id = ?", ids, userID), pagination)
}

// FindStaleInProgress returns uploads that never completed and were last touched before updatedBefore.
func (repo *FileGormRepository) FindStaleInProgress(ctx context.Context, updatedBefore time.Time) ([]*file.File, error) {
	var rows []entities.File
	if err := repo.db.GetTx(ctx).
		Where("upload_status = ? AND updated_at < ?", string(file.UploadStatusInProgress), updatedBefore).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find stale uploads", err, "48538763-0533-4ca5-814b-5ac7ee0a0137")
	}
	return functional.Map(rows, func(item entities.File) *file.File {
		return item.EtoD()
	}), nil
}

func (repo *FileGormRepository) first(ctx context.Context, db *gorm.DB) (*file.File, error) {
	var model entities.File
	if err := db.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "file not found", err, "dabe6aaf-c897-401d-8a33-c3de603e3164")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find file", err, "70ddf7ac-efc1-448c-b66a-cf9ed8b7ba4b")
	}
	return model.EtoD(), nil
}

// page counts db and returns one page ordered by id.
func (repo *FileGormRepository) page(ctx context.Context, db *gorm.DB, pagination query.Pagination) ([]*file.File, int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count files", err, "04082d96-3b1d-46d7-ad1c-43ff972fcb56")
	}
	var rows []entities.File
	if err := db.Order("id ASC").Offset(pagination.Offset()).Limit(pagination.Limit()).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find files", err, "7524f3b4-99e8-469c-b063-011320a9e1ef")
	}
	return functional.Map(rows, func(item entities.File) *file.File {
		return item.EtoD()
	}), total, nil
}
