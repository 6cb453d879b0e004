package routes

import (
	"github.com/google/wire"

	v1 "arbor-server/chat-api/internal/interfaces/httpserver/routes/v1"
	"arbor-server/chat-api/internal/interfaces/httpserver/routes/v1/chat"
	"arbor-server/chat-api/internal/interfaces/httpserver/routes/v1/conversation"
)

var RouteProvider = wire.NewSet(
	v1.NewV1Route,
	chat.NewChatCompletionRoute,
	conversation.NewConversationRoute,
	conversation.NewBranchRoute,
)
