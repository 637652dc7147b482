package conversationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// ConversationGormRepository implements conversation.ConversationRepository using GORM
type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.ConversationRepository {
	return &ConversationGormRepository{db: db}
}

func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := entities.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create conversation", err, "67a8e5bf-4499-4044-b714-6beb7abda7bc")
	}
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *ConversationGormRepository) Update(ctx context.Context, conv *conversation.Conversation) error {
	model := entities.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).Save(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update conversation", err, "db6a914b-dd5a-4c1b-ae96-de1e6afe970c")
	}
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes the conversation with its messages and file links.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id uint) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx)
		if err := tx.Where("conversation_id = ?", id).Delete(&entities.ConversationFile{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete conversation files", err, "eba4dbff-b3f3-4b9e-9a13-803c8e8a6e59")
		}
		if err := tx.Model(&entities.Message{}).Where("conversation_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to detach messages", err, "38d51103-8f41-4314-963a-c37b2f267d2f")
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&entities.Message{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete messages", err, "8afa1f65-b99b-4095-bb87-1b8450b2e177")
		}
		if err := tx.Delete(&entities.Conversation{}, id).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete conversation", err, "979eb4db-27be-413c-bd61-2f9a640b8a1d")
		}
		return nil
	})
}

func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var model entities.Conversation
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "8992bcd5-1e3d-4b3f-96fb-595ebcba5069")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation", err, "fae45bcd-4ed3-423e-a4de-978d75f1cd91")
	}
	return model.EtoD(), nil
}

// FindByUserID returns the user's conversations, newest first.
func (repo *ConversationGormRepository) FindByUserID(ctx context.Context, userID string, pagination query.Pagination) ([]*conversation.Conversation, error) {
	var rows []entities.Conversation
	if err := repo.db.GetTx(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversations", err, "d0744073-2569-4c6f-9c74-3255f5c569af")
	}
	return functional.Map(rows, func(item entities.Conversation) *conversation.Conversation {
		return item.EtoD()
	}), nil
}

func (repo *ConversationGormRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := repo.db.GetTx(ctx).Model(&entities.Conversation{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to count conversations", err, "2162225b-3bcb-47c5-a72c-999d6744a6cf")
	}
	return count, nil
}
