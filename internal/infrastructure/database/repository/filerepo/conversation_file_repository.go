package filerepo

import (
	"context"

	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// ConversationFileGormRepository implements file.ConversationFileRepository using GORM
type ConversationFileGormRepository struct {
	db *transaction.Database
}

var _ file.ConversationFileRepository = (*ConversationFileGormRepository)(nil)

func NewConversationFileGormRepository(db *transaction.Database) file.ConversationFileRepository {
	return &ConversationFileGormRepository{db: db}
}

func (repo *ConversationFileGormRepository) Create(ctx context.Context, cf *file.ConversationFile) error {
	model := entities.NewSchemaConversationFile(cf)
	if err := repo.db.GetTx(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to link file to conversation", err, "218a26b2-20a0-4447-bca9-4bb27dfe5e65")
	}
	cf.ID = model.ID
	cf.CreatedAt = model.CreatedAt
	return nil
}

func (repo *ConversationFileGormRepository) FindByConversation(ctx context.Context, conversationID uint) ([]*file.ConversationFile, error) {
	var rows []entities.ConversationFile
	if err := repo.db.GetTx(ctx).Where("conversation_id = ?", conversationID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation files", err, "2e217fe0-dc46-45a2-814f-ccfdb4792390")
	}
	return functional.Map(rows, func(item entities.ConversationFile) *file.ConversationFile {
		return item.EtoD()
	}), nil
}

func (repo *ConversationFileGormRepository) FindByConversationAndFiles(ctx context.Context, conversationID uint, fileIDs []uint) ([]*file.ConversationFile, error) {
	if len(fileIDs) == 0 {
		return []*file.ConversationFile{}, nil
	}
	var rows []entities.ConversationFile
	if err := repo.db.GetTx(ctx).
		Where("conversation_id = ? AND file_id IN ?", conversationID, fileIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation files", err, "75cc7cb2-5ce5-403e-be6c-b07a54a40148")
	}
	return functional.Map(rows, func(item entities.ConversationFile) *file.ConversationFile {
		return item.EtoD()
	}), nil
}

// AssignMessage binds the given links to the message they were sent with.
func (repo *ConversationFileGormRepository) AssignMessage(ctx context.Context, ids []uint, messageID uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := repo.db.GetTx(ctx).
		Model(&entities.ConversationFile{}).
		Where("id IN ?", ids).
		Update("message_id", messageID).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to assign message to files", err, "ffef61a5-63d4-47a7-9ef7-ff6a696c4039")
	}
	return nil
}
