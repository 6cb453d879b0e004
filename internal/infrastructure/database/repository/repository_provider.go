package repository

import (
	"arbor-server/chat-api/internal/infrastructure/database/repository/conversationrepo"

	"github.com/google/wire"
)

var RepositoryProvider = wire.NewSet(
	conversationrepo.NewConversationGormRepository,
	conversationrepo.NewMessageGormRepository,
	conversationrepo.NewBranchGormRepository,
)
