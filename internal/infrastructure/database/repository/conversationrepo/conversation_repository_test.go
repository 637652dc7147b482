package conversationrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/conversation"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/infrastructure/database/databasetest"
	"jan-server/services/assistant-api/internal/infrastructure/database/entities"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

func TestConversationRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewConversationGormRepository(db)

	conv := &conversation.Conversation{UserID: "u1", ConfigurationID: 3, Name: "Hello"}
	require.NoError(t, repo.Create(ctx, conv))
	require.NotZero(t, conv.ID)
	assert.False(t, conv.CreatedAt.IsZero())

	found, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", found.Name)
	assert.Equal(t, uint(3), found.ConfigurationID)

	found.Name = "Renamed"
	found.IsNameSetManually = true
	require.NoError(t, repo.Update(ctx, found))

	updated, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsNameSetManually)
}

func TestConversationRepository_FindByIDNotFound(t *testing.T) {
	db, _ := databasetest.New(t)
	repo := NewConversationGormRepository(db)

	_, err := repo.FindByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestConversationRepository_FindByUserIDNewestFirst(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewConversationGormRepository(db)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &conversation.Conversation{UserID: "u1", ConfigurationID: 1, Name: name}))
	}
	require.NoError(t, repo.Create(ctx, &conversation.Conversation{UserID: "u2", ConfigurationID: 1, Name: "other"}))

	first, err := repo.FindByUserID(ctx, "u1", query.NewPagination(0, 2))
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "c", first[0].Name)
	assert.Equal(t, "b", first[1].Name)

	second, err := repo.FindByUserID(ctx, "u1", query.NewPagination(1, 2))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "a", second[0].Name)

	total, err := repo.CountByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestConversationRepository_DeleteRemovesMessagesAndLinks(t *testing.T) {
	ctx := context.Background()
	db, gormDB := databasetest.New(t)
	repo := NewConversationGormRepository(db)

	conv := &conversation.Conversation{UserID: "u1", ConfigurationID: 1, Name: "x"}
	require.NoError(t, repo.Create(ctx, conv))

	root := entities.NewSchemaMessage(&message.Message{ConversationID: conv.ID, Type: message.MessageTypeHuman, ConfigurationID: 1})
	require.NoError(t, gormDB.Create(root).Error)
	child := entities.NewSchemaMessage(&message.Message{ConversationID: conv.ID, ParentID: &root.ID, Type: message.MessageTypeAI, ConfigurationID: 1})
	require.NoError(t, gormDB.Create(child).Error)
	require.NoError(t, gormDB.Create(entities.NewSchemaConversationFile(&file.ConversationFile{ConversationID: conv.ID, FileID: 9})).Error)

	require.NoError(t, repo.Delete(ctx, conv.ID))

	var messages, links int64
	require.NoError(t, gormDB.Model(&entities.Message{}).Count(&messages).Error)
	require.NoError(t, gormDB.Model(&entities.ConversationFile{}).Count(&links).Error)
	assert.Zero(t, messages)
	assert.Zero(t, links)

	_, err := repo.FindByID(ctx, conv.ID)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
