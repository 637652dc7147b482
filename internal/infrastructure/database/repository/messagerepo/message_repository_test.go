package messagerepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/infrastructure/database/databasetest"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

func newMessage(conversationID uint, parentID *uint, msgType message.MessageType, content string) *message.Message {
	return &message.Message{
		ConversationID:  conversationID,
		ParentID:        parentID,
		Type:            msgType,
		Data:            message.Data{Content: content},
		ConfigurationID: 1,
	}
}

func TestMessageRepository_GetThreadFollowsParents(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewMessageGormRepository(db)

	q1 := newMessage(1, nil, message.MessageTypeHuman, "q1")
	require.NoError(t, repo.Create(ctx, q1))
	a1 := newMessage(1, &q1.ID, message.MessageTypeAI, "a1")
	require.NoError(t, repo.Create(ctx, a1))
	q2 := newMessage(1, &a1.ID, message.MessageTypeHuman, "q2")
	require.NoError(t, repo.Create(ctx, q2))
	// an edit of q2 creates a sibling branch
	q2edit := newMessage(1, &a1.ID, message.MessageTypeHuman, "q2 edited")
	require.NoError(t, repo.Create(ctx, q2edit))
	require.NoError(t, repo.Create(ctx, newMessage(2, nil, message.MessageTypeHuman, "elsewhere")))

	thread, err := repo.GetThread(ctx, 1, q2edit.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "q1", thread[0].Data.Content)
	assert.Equal(t, "a1", thread[1].Data.Content)
	assert.Equal(t, "q2 edited", thread[2].Data.Content)

	all, err := repo.ListByConversation(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, q1.ID, all[0].ID)

	latest, err := repo.FindLatest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, q2edit.ID, latest.ID)
}

func TestMessageRepository_FindLatestEmptyConversation(t *testing.T) {
	db, _ := databasetest.New(t)
	repo := NewMessageGormRepository(db)

	latest, err := repo.FindLatest(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMessageRepository_StoresSourcesAndTools(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewMessageGormRepository(db)

	errText := "boom"
	msg := newMessage(1, nil, message.MessageTypeAI, "answer")
	msg.Tools = []string{"files_1"}
	msg.Error = &errText
	msg.Sources = []message.Source{{
		Title:               "doc.pdf",
		ExtensionExternalID: "files_1",
		Chunk:               message.Chunk{URI: "c1", MimeType: "text/plain", Pages: []int{2}},
		Document:            message.Document{URI: "d1", MimeType: "application/pdf"},
	}}
	require.NoError(t, repo.Create(ctx, msg))

	found, err := repo.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"files_1"}, found.Tools)
	assert.Empty(t, found.Debug)
	require.Len(t, found.Sources, 1)
	assert.Equal(t, "c1", found.Sources[0].Chunk.URI)
	assert.Equal(t, []int{2}, found.Sources[0].Chunk.Pages)
	require.NotNil(t, found.Error)
	assert.Equal(t, "boom", *found.Error)
	assert.Nil(t, found.Rating)
}

func TestMessageRepository_UpdateRating(t *testing.T) {
	ctx := context.Background()
	db, _ := databasetest.New(t)
	repo := NewMessageGormRepository(db)

	msg := newMessage(1, nil, message.MessageTypeAI, "answer")
	require.NoError(t, repo.Create(ctx, msg))

	comment := "spot on"
	require.NoError(t, repo.UpdateRating(ctx, msg.ID, message.RatingGood, &comment))

	found, err := repo.FindByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Rating)
	assert.Equal(t, message.RatingGood, *found.Rating)
	assert.Equal(t, "spot on", *found.RatingComment)

	err = repo.UpdateRating(ctx, 999, message.RatingLame, nil)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
