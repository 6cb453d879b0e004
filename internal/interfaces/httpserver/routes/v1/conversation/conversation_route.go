package conversation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"arbor-server/chat-api/internal/infrastructure/authclient"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"arbor-server/chat-api/internal/interfaces/httpserver/middlewares"
	"arbor-server/chat-api/internal/interfaces/httpserver/responses"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// ConversationRoute exposes conversation listing and deletion.
type ConversationRoute struct {
	handler  *conversationhandler.ConversationHandler
	resolver authclient.Resolver
	logger   zerolog.Logger
}

func NewConversationRoute(
	handler *conversationhandler.ConversationHandler,
	resolver authclient.Resolver,
	logger zerolog.Logger,
) *ConversationRoute {
	return &ConversationRoute{
		handler:  handler,
		resolver: resolver,
		logger:   logger,
	}
}

func (route *ConversationRoute) RegisterRouter(router gin.IRouter) {
	auth := middlewares.AuthMiddleware(route.resolver, route.logger)

	conversations := router.Group("/conversations")
	conversations.GET("", auth, route.listConversations)
	conversations.DELETE("/:conversation_id", auth, route.deleteConversation)
}

// listConversations returns the caller's conversations ordered by recency.
func (route *ConversationRoute) listConversations(reqCtx *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "f1b83a60-2479-4dce-9b5a-07c3e8d1f264")
		return
	}

	response, err := route.handler.ListConversations(reqCtx.Request.Context(), principal)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list conversations")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// deleteConversation removes a conversation the caller owns. Unknown and
// foreign ids succeed without effect.
func (route *ConversationRoute) deleteConversation(reqCtx *gin.Context) {
	principal, ok := middlewares.PrincipalFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeUnauthorized, "authentication required", "8e25c4f7-091a-4b6d-83ce-5a2d7f90b416")
		return
	}

	id, ok := parseConversationID(reqCtx)
	if !ok {
		// Malformed ids behave like unknown ones: reported as success.
		reqCtx.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	response, err := route.handler.DeleteConversation(reqCtx.Request.Context(), id, principal)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// parseConversationID reads the :conversation_id route param.
func parseConversationID(reqCtx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(reqCtx.Param("conversation_id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
