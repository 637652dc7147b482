package extensionrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/extension"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// ExtensionGormRepository implements extension.ExtensionRepository using GORM
type ExtensionGormRepository struct {
	db *transaction.Database
}

var _ extension.ExtensionRepository = (*ExtensionGormRepository)(nil)

func NewExtensionGormRepository(db *transaction.Database) extension.ExtensionRepository {
	return &ExtensionGormRepository{db: db}
}

func (repo *ExtensionGormRepository) Create(ctx context.Context, ext *extension.Extension) error {
	model := entities.NewSchemaExtension(ext)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create extension", err, "7a68bd22-5841-4db4-8ad0-c78622f749ab")
	}
	ext.ID = model.ID
	ext.CreatedAt = model.CreatedAt
	ext.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *ExtensionGormRepository) Update(ctx context.Context, ext *extension.Extension) error {
	model := entities.NewSchemaExtension(ext)
	if err := repo.db.GetTx(ctx).Save(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update extension", err, "2981832b-075b-4774-821c-f56de89501c3")
	}
	ext.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *ExtensionGormRepository) Delete(ctx context.Context, id uint) error {
	if err := repo.db.GetTx(ctx).Delete(&entities.Extension{}, id).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete extension", err, "7308903d-e856-47fa-bc6f-c404f97cfeaa")
	}
	return nil
}

func (repo *ExtensionGormRepository) FindByID(ctx context.Context, id uint) (*extension.Extension, error) {
	var model entities.Extension
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Extension not found.", err, "4c7476f2-204d-419a-af4d-89b406cf17a8")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find extension", err, "aeb0b321-9161-4708-b880-328f28a82d13")
	}
	return model.EtoD(), nil
}

func (repo *ExtensionGormRepository) FindByConfiguration(ctx context.Context, configurationID uint) ([]*extension.Extension, error) {
	var rows []entities.Extension
	if err := repo.db.GetTx(ctx).Where("configuration_id = ?", configurationID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list extensions", err, "d657d6cf-cc07-4b54-b7e0-b56c0c75dbe1")
	}
	return functional.Map(rows, func(item entities.Extension) *extension.Extension {
		return item.EtoD()
	}), nil
}

func (repo *ExtensionGormRepository) FindByExternalID(ctx context.Context, externalID string) (*extension.Extension, error) {
	var model entities.Extension
	if err := repo.db.GetTx(ctx).Where("external_id = ?", externalID).Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Extension not found.", err, "02ed49b3-a683-48d3-a69a-8c51053e0421")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find extension", err, "95751da2-b343-4e8f-8c51-876f4e934a90")
	}
	return model.EtoD(), nil
}

func (repo *ExtensionGormRepository) FindByBucketID(ctx context.Context, bucketID uint) (*extension.Extension, error) {
	var rows []entities.Extension
	if err := repo.db.GetTx(ctx).Where("bucket_id = ?", bucketID).Order("id ASC").Limit(1).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find extension by bucket", err, "8bb0cd9a-2310-444f-a1c9-c8d6e25e9690")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].EtoD(), nil
}
