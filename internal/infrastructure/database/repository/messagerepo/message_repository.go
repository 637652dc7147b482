package messagerepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// MessageGormRepository implements message.MessageRepository using GORM
type MessageGormRepository struct {
	db *transaction.Database
}

var _ message.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) message.MessageRepository {
	return &MessageGormRepository{db: db}
}

func (repo *MessageGormRepository) Create(ctx context.Context, msg *message.Message) error {
	model := entities.NewSchemaMessage(msg)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create message", err, "e6ec6156-89bb-477e-b1d6-3cd7253a6252")
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	msg.UpdatedAt = model.UpdatedAt
	return nil
}

func (repo *MessageGormRepository) FindByID(ctx context.Context, id uint) (*message.Message, error) {
	var model entities.Message
	if err := repo.db.GetTx(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", err, "b0cd22ec-d9d1-4db0-8272-3bdcab467bc9")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find message", err, "33fcd669-db4c-4480-85bd-339662e63fd8")
	}
	return model.EtoD(), nil
}

func (repo *MessageGormRepository) FindLatest(ctx context.Context, conversationID uint) (*message.Message, error) {
	var rows []entities.Message
	if err := repo.db.GetTx(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find latest message", err, "d0283808-8021-4af6-b5c2-9dfef4ed4d31")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].EtoD(), nil
}

// GetThread loads the conversation once and follows parent ids from leafID
// up to the root. A parent outside the conversation ends the walk.
func (repo *MessageGormRepository) GetThread(ctx context.Context, conversationID uint, leafID uint) ([]*message.Message, error) {
	all, err := repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*message.Message, len(all))
	for _, msg := range all {
		byID[msg.ID] = msg
	}

	var reversed []*message.Message
	seen := make(map[uint]bool)
	current, ok := byID[leafID]
	for ok && !seen[current.ID] {
		seen[current.ID] = true
		reversed = append(reversed, current)
		if current.ParentID == nil {
			break
		}
		current, ok = byID[*current.ParentID]
	}

	thread := make([]*message.Message, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		thread = append(thread, reversed[i])
	}
	return thread, nil
}

func (repo *MessageGormRepository) ListByConversation(ctx context.Context, conversationID uint) ([]*message.Message, error) {
	var rows []entities.Message
	if err := repo.db.GetTx(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list messages", err, "98648b6f-6103-45c1-9474-daaf46d100c2")
	}
	return functional.Map(rows, func(item entities.Message) *message.Message {
		return item.EtoD()
	}), nil
}

func (repo *MessageGormRepository) UpdateRating(ctx context.Context, id uint, rating message.Rating, comment *string) error {
	result := repo.db.GetTx(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":         string(rating),
			"rating_comment": comment,
		})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to rate message", result.Error, "64dbe729-e2a9-45d0-9f48-3dd30f5b9899")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "e9bcf0be-8913-4000-b44b-465035b3ddb7")
	}
	return nil
}
