package configurationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/configuration"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// ConfigurationGormRepository implements configuration.ConfigurationRepository using GORM
type ConfigurationGormRepository struct {
	db *transaction.Database
}

var _ configuration.ConfigurationRepository = (*ConfigurationGormRepository)(nil)

func NewConfigurationGormRepository(db *transaction.Database) configuration.ConfigurationRepository {
	return &ConfigurationGormRepository{db: db}
}

func (repo *ConfigurationGormRepository) Create(ctx context.Context, c *configuration.Configuration) error {
	model := entities.NewSchemaConfiguration(c)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create configuration", err, "3a4bfabc-8cdf-4913-8c6c-02848a4cb5ed")
	}
	c.ID = model.ID
	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *ConfigurationGormRepository) Update(ctx context.Context, c *configuration.Configuration) error {
	model := entities.NewSchemaConfiguration(c)
	if err := repo.db.GetTx(ctx).Save(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update configuration", err, "a92a3136-7684-4996-a90c-f4cea3f420e6")
	}
	c.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes the configuration together with its extensions.
func (repo *ConfigurationGormRepository) Delete(ctx context.Context, id uint) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx)
		if err := tx.Where("configuration_id = ?", id).Delete(&entities.Extension{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete extensions", err, "d7ec5bd6-2ef8-4585-88c0-507a1768ac14")
		}
		if err := tx.Delete(&entities.Configuration{}, id).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete configuration", err, "5852c02f-96f0-407c-b041-a4d1626e7a15")
		}
		return nil
	})
}

func (repo *ConfigurationGormRepository) FindByID(ctx context.Context, id uint) (*configuration.Configuration, error) {
	var model entities.Configuration
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "Configuration not found.", err, "d3c3007c-1c38-49d8-b859-eda9db9a9dfd")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find configuration", err, "7229081c-fc51-4f51-b721-12006f4497c1")
	}
	return model.EtoD(), nil
}

func (repo *ConfigurationGormRepository) FindAll(ctx context.Context, enabledOnly bool) ([]*configuration.Configuration, error) {
	db := repo.db.GetTx(ctx)
	if enabledOnly {
		db = db.Where("enabled = ?", true)
	}
	var rows []entities.Configuration
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list configurations", err, "041093b3-8e3a-4868-86a4-a70150b7a03d")
	}
	return functional.Map(rows, func(item entities.Configuration) *configuration.Configuration {
		return item.EtoD()
	}), nil
}
