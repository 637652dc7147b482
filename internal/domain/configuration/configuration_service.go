package configuration

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

type ConfigurationService struct {
	repo ConfigurationRepository
	log  zerolog.Logger
}

func NewConfigurationService(repo ConfigurationRepository, log zerolog.Logger) *ConfigurationService {
	return &ConfigurationService{
		repo: repo,
		log:  log.With().Str("component", "configuration-service").Logger(),
	}
}

func (s *ConfigurationService) CreateConfiguration(ctx context.Context, c *Configuration) (*Configuration, error) {
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create configuration")
	}
	return c, nil
}

func (s *ConfigurationService) UpdateConfiguration(ctx context.Context, id uint, c *Configuration) (*Configuration, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "configuration not found")
	}
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update configuration")
	}
	return c, nil
}

func (s *ConfigurationService) DeleteConfiguration(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "configuration not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete configuration")
	}
	return nil
}

// GetConfigurations lists the configurations visible to the user. Admins may
// request disabled ones as well.
func (s *ConfigurationService) GetConfigurations(ctx context.Context, u *user.User, enabledOnly bool) ([]*Configuration, error) {
	all, err := s.repo.FindAll(ctx, enabledOnly || !u.IsAdmin())
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list configurations")
	}
	return functional.Filter(all, func(c *Configuration) bool {
		return c.IsVisibleTo(u)
	}), nil
}

// GetConfiguration returns the configuration if the user may see it.
func (s *ConfigurationService) GetConfiguration(ctx context.Context, u *user.User, id uint) (*Configuration, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "configuration not found")
	}
	if !c.IsVisibleTo(u) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find a configuration with id %d for this user", id), nil, "62cbbee6-6c4e-4e6f-9f14-6ad737c9fd25")
	}
	return c, nil
}

func (s *ConfigurationService) validate(ctx context.Context, c *Configuration) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"name is required", nil, "4a2988c1-ce7e-4870-899b-5c3a97e004d9")
	}
	if c.UserGroupIDs == nil {
		c.UserGroupIDs = []string{}
	}
	return nil
}
