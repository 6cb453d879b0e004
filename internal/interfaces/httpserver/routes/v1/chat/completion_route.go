package chat

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"arbor-server/chat-api/internal/infrastructure/authclient"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/chathandler"
	"arbor-server/chat-api/internal/interfaces/httpserver/middlewares"
)

// anonymous turns carry no principal to key on, so the bucket falls back to
// client IP
const anonymousRatePerMinute = 30

// ChatCompletionRoute exposes the streaming chat relay. Auth is optional:
// an anonymous caller still gets a stream, just no persistence.
type ChatCompletionRoute struct {
	chatHandler *chathandler.ChatHandler
	resolver    authclient.Resolver
	logger      zerolog.Logger
}

func NewChatCompletionRoute(
	chatHandler *chathandler.ChatHandler,
	resolver authclient.Resolver,
	logger zerolog.Logger,
) *ChatCompletionRoute {
	return &ChatCompletionRoute{
		chatHandler: chatHandler,
		resolver:    resolver,
		logger:      logger,
	}
}

func (route *ChatCompletionRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/chat",
		middlewares.OptionalAuthMiddleware(route.resolver, route.logger),
		middlewares.RateLimitMiddleware(anonymousRatePerMinute),
		route.chatHandler.CreateChatCompletion,
	)
}
