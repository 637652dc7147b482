package repository

import (
	"github.com/google/wire"

	"jan-server/services/assistant-api/internal/infrastructure/database/repository/bucketrepo"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository/configurationrepo"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository/conversationrepo"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository/extensionrepo"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository/filerepo"
	"jan-server/services/assistant-api/internal/infrastructure/database/repository/messagerepo"
)

var RepositoryProvider = wire.NewSet(
	conversationrepo.NewConversationGormRepository,
	messagerepo.NewMessageGormRepository,
	bucketrepo.NewBucketGormRepository,
	configurationrepo.NewConfigurationGormRepository,
	extensionrepo.NewExtensionGormRepository,
	filerepo.NewFileGormRepository,
	filerepo.NewBlobGormRepository,
	filerepo.NewConversationFileGormRepository,
)
