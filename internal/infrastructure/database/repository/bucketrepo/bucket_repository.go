package bucketrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// BucketGormRepository implements bucket.BucketRepository using GORM
type BucketGormRepository struct {
	db *transaction.Database
}

var _ bucket.BucketRepository = (*BucketGormRepository)(nil)

func NewBucketGormRepository(db *transaction.Database) bucket.BucketRepository {
	return &BucketGormRepository{db: db}
}

func (repo *BucketGormRepository) Create(ctx context.Context, b *bucket.Bucket) error {
	model := entities.NewSchemaBucket(b)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create bucket", err, "e5ae33b8-8802-4719-b2e7-a2cb919b3993")
	}
	b.ID = model.ID
	b.CreatedAt = model.CreatedAt
	b.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *BucketGormRepository) Update(ctx context.Context, b *bucket.Bucket) error {
	model := entities.NewSchemaBucket(b)
	if err := repo.db.GetTx(ctx).Save(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update bucket", err, "1a8ba809-41fb-4637-bee9-eaf8c6151684")
	}
	b.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes the bucket and its files. Extensions using the bucket are detached.
func (repo *BucketGormRepository) Delete(ctx context.Context, id uint) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx)
		if err := tx.Model(&entities.Extension{}).Where("bucket_id = ?", id).Update("bucket_id", nil).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to detach extensions", err, "73bb3060-3997-44a5-af82-cd5230530b01")
		}
		files := tx.Model(&entities.File{}).Select("id").Where("bucket_id = ?", id)
		if err := tx.Where("file_id IN (?)", files).Delete(&entities.Blob{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete bucket blobs", err, "8e00c017-a662-4ef2-a780-84396407b9c8")
		}
		if err := tx.Where("file_id IN (?)", files).Delete(&entities.ConversationFile{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete bucket file links", err, "a8e2bd6c-2a19-47e8-bd48-b6313916d98b")
		}
		if err := tx.Where("bucket_id = ?", id).Delete(&entities.File{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete bucket files", err, "fe0380db-719c-4c95-b450-aa6bb5eaa607")
		}
		if err := tx.Delete(&entities.Bucket{}, id).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete bucket", err, "2fc8de4c-0a1a-4bab-8400-7a4a859ab810")
		}
		return nil
	})
}

func (repo *BucketGormRepository) FindByID(ctx context.Context, id uint) (*bucket.Bucket, error) {
	var model entities.Bucket
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Bucket not found.", err, "1a7425f5-7f05-48fc-b960-c32125e48e16")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find bucket", err, "677980ab-61d7-4c09-b2a9-2181e41c4880")
	}
	return model.EtoD(), nil
}

func (repo *BucketGormRepository) FindAll(ctx context.Context) ([]*bucket.Bucket, error) {
	var rows []entities.Bucket
	if err := repo.db.GetTx(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list buckets", err, "3d92d8b8-e09d-484f-913a-17e849558b2f")
	}
	return functional.Map(rows, func(item entities.Bucket) *bucket.Bucket {
		return item.EtoD()
	}), nil
}

func (repo *BucketGormRepository) FindFirstByType(ctx context.Context, t bucket.BucketType) (*bucket.Bucket, error) {
	var rows []entities.Bucket
	if err := repo.db.GetTx(ctx).Where("type = ?", string(t)).Order("id ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find bucket by type", err, "d2cd24ce-bca6-4c3f-8f8e-d6b7de9b0095")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].EtoD(), nil
}

func (repo *BucketGormRepository) ClearDefault(ctx context.Context, exceptID uint) error {
	if err := repo.db.GetTx(ctx).
		Model(&entities.Bucket{}).
		Where("id <> ? AND is_default = ?", exceptID, true).
		Update("is_default", false).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to clear default bucket", err, "f3dcc240-3cf4-4eac-bbbd-dffd0976b693")
	}
	return nil
}
