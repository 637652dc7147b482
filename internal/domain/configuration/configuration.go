package configuration

import (
	"context"
	"time"

	"jan-server/services/assistant-api/internal/domain/user"
)

// Configuration is an assistant: a named set of extensions offered to user groups.
type Configuration struct {
	ID           uint
	Name         string
	Description  string
	Enabled      bool
	UserGroupIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsVisibleTo reports whether u may chat with the configuration. Admins see
// everything; other users need an enabled configuration that is open to all
// groups or lists one of theirs.
func (c *Configuration) IsVisibleTo(u *user.User) bool {
	if u.IsAdmin() {
		return true
	}
	if !c.Enabled {
		return false
	}
	if len(c.UserGroupIDs) == 0 {
		return true
	}
	for _, group := range c.UserGroupIDs {
		if u.InGroup(group) {
			return true
		}
	}
	return false
}

type ConfigurationRepository interface {
	Create(ctx context.Context, c *Configuration) error
	Update(ctx context.Context, c *Configuration) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Configuration, error)
	FindAll(ctx context.Context, enabledOnly bool) ([]*Configuration, error)
}
