package handlers

import (
	"github.com/google/wire"

	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/chathandler"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
)

var HandlerProvider = wire.NewSet(
	chathandler.NewChatHandler,
	conversationhandler.NewConversationHandler,
	conversationhandler.NewBranchHandler,
)
