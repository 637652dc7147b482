package configuration

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

type MockConfigurationRepository struct {
	CreateFunc   func(ctx context.Context, c *Configuration) error
	UpdateFunc   func(ctx context.Context, c *Configuration) error
	DeleteFunc   func(ctx context.Context, id uint) error
	FindByIDFunc func(ctx context.Context, id uint) (*Configuration, error)
	FindAllFunc  func(ctx context.Context, enabledOnly bool) ([]*Configuration, error)
}

func (m *MockConfigurationRepository) Create(ctx context.Context, c *Configuration) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return nil
}

func (m *MockConfigurationRepository) Update(ctx context.Context, c *Configuration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	return nil
}

func (m *MockConfigurationRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockConfigurationRepository) FindByID(ctx context.Context, id uint) (*Configuration, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "configuration not found", nil, "")
}

func (m *MockConfigurationRepository) FindAll(ctx context.Context, enabledOnly bool) ([]*Configuration, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, enabledOnly)
	}
	return nil, nil
}

func TestIsVisibleTo(t *testing.T) {
	open := &Configuration{Enabled: true}
	grouped := &Configuration{Enabled: true, UserGroupIDs: []string{"sales"}}
	disabled := &Configuration{Enabled: false}

	admin := &user.User{ID: "a", Admin: true}
	member := &user.User{ID: "m", Groups: []string{"sales"}}
	primary := &user.User{ID: "p", UserGroupID: "sales"}
	other := &user.User{ID: "o", Groups: []string{"support"}}

	assert.True(t, open.IsVisibleTo(other))
	assert.True(t, grouped.IsVisibleTo(member))
	assert.True(t, grouped.IsVisibleTo(primary))
	assert.False(t, grouped.IsVisibleTo(other))
	assert.False(t, disabled.IsVisibleTo(member))
	assert.True(t, disabled.IsVisibleTo(admin))
	assert.True(t, grouped.IsVisibleTo(admin))
}

func TestGetConfigurationsFiltersForNonAdmins(t *testing.T) {
	var requestedEnabledOnly []bool
	repo := &MockConfigurationRepository{FindAllFunc: func(ctx context.Context, enabledOnly bool) ([]*Configuration, error) {
		requestedEnabledOnly = append(requestedEnabledOnly, enabledOnly)
		return []*Configuration{
			{ID: 1, Enabled: true},
			{ID: 2, Enabled: true, UserGroupIDs: []string{"sales"}},
			{ID: 3, Enabled: false},
		}, nil
	}}
	svc := NewConfigurationService(repo, zerolog.Nop())

	visible, err := svc.GetConfigurations(context.Background(), &user.User{ID: "u"}, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, uint(1), visible[0].ID)

	all, err := svc.GetConfigurations(context.Background(), &user.User{ID: "a", Admin: true}, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	assert.Equal(t, []bool{true, false}, requestedEnabledOnly)
}

func TestGetConfigurationHiddenIsNotFound(t *testing.T) {
	repo := &MockConfigurationRepository{FindByIDFunc: func(ctx context.Context, id uint) (*Configuration, error) {
		return &Configuration{ID: id, Enabled: true, UserGroupIDs: []string{"sales"}}, nil
	}}
	svc := NewConfigurationService(repo, zerolog.Nop())

	_, err := svc.GetConfiguration(context.Background(), &user.User{ID: "u"}, 4)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "Cannot find a configuration with id 4")
}

func TestCreateConfigurationRequiresName(t *testing.T) {
	svc := NewConfigurationService(&MockConfigurationRepository{}, zerolog.Nop())

	_, err := svc.CreateConfiguration(context.Background(), &Configuration{Name: "  "})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	c, err := svc.CreateConfiguration(context.Background(), &Configuration{Name: " Assistant "})
	require.NoError(t, err)
	assert.Equal(t, "Assistant", c.Name)
	assert.NotNil(t, c.UserGroupIDs)
}
