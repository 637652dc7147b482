package filerepo

import (
	"context"

	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// BlobGormRepository implements file.BlobRepository using GORM
type BlobGormRepository struct {
	db *transaction.Database
}

var _ file.BlobRepository = (*BlobGormRepository)(nil)

func NewBlobGormRepository(db *transaction.Database) file.BlobRepository {
	return &BlobGormRepository{db: db}
}

func (repo *BlobGormRepository) Create(ctx context.Context, b *file.Blob) error {
	model := entities.NewSchemaBlob(b)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create blob", err, "c6012f5c-fa86-43e5-a748-3ba437221ffc")
	}
	b.CreatedAt = model.CreatedAt
	return nil
}

func (repo *BlobGormRepository) FindByFileID(ctx context.Context, fileID uint) ([]*file.Blob, error) {
	var rows []entities.Blob
	if err := repo.db.GetTx(ctx).Where("file_id = ?", fileID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find blobs", err, "54b8ffc3-0579-4d2c-abd4-cb44d6df96d9")
	}
	return functional.Map(rows, func(item entities.Blob) *file.Blob {
		return item.EtoD()
	}), nil
}

func (repo *BlobGormRepository) FindByFileAndCategory(ctx context.Context, fileID uint, category file.BlobCategory) (*file.Blob, error) {
	var rows []entities.Blob
	if err := repo.db.GetTx(ctx).
		Where("file_id = ? AND category = ?", fileID, string(category)).
		Order("created_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find blob", err, "4719cd9b-59cd-4ffa-8874-a83c45303178")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].EtoD(), nil
}

func (repo *BlobGormRepository) DeleteByFileID(ctx context.Context, fileID uint) error {
	if err := repo.db.GetTx(ctx).Where("file_id = ?", fileID).Delete(&entities.Blob{}).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete blobs", err, "e162e5f0-5fab-4856-840e-8f20cef8a32e")
	}
	return nil
}
