package conversationhandler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/metrics"
	"arbor-server/chat-api/internal/interfaces/httpserver/middlewares"
	"arbor-server/chat-api/internal/interfaces/httpserver/responses"
	conversationresponses "arbor-server/chat-api/internal/interfaces/httpserver/responses/conversation"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

const conversationContextKey = "owned_conversation"

// ConversationHandler handles conversation-level HTTP requests
type ConversationHandler struct {
	service *conversation.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service *conversation.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations lists the caller's conversations, most recently updated
// first.
func (h *ConversationHandler) ListConversations(ctx context.Context, principal domain.Principal) (*conversationresponses.ConversationListResponse, error) {
	conversations, err := h.service.ListConversations(ctx, principal.ID, ownerKind(principal))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list conversations")
	}
	return conversationresponses.NewConversationListResponse(conversations), nil
}

// DeleteConversation deletes the conversation when the caller owns it.
// Unknown or foreign ids report success without touching anything, so the
// response never reveals whether the conversation exists.
func (h *ConversationHandler) DeleteConversation(ctx context.Context, id uint, principal domain.Principal) (*conversationresponses.ConversationDeletedResponse, error) {
	if err := h.service.DeleteConversation(ctx, id, principal.ID, ownerKind(principal)); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to delete conversation")
	}
	metrics.ConversationsDeletedTotal.Inc()
	return &conversationresponses.ConversationDeletedResponse{Success: true}, nil
}

// ConversationMiddleware loads the conversation named by the
// :conversation_id route param, scoped to the authenticated principal, and
// stores it in the gin context. Missing and foreign conversations are both
// 404.
func (h *ConversationHandler) ConversationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middlewares.PrincipalFromContext(c)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "c58f2a17-94db-4e60-b3a8-0df671c2e945")
			return
		}

		id, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "conversation not found", "2a91e7d3-6f48-4c0b-85d2-b37a90c1f586")
			return
		}

		conv, err := h.service.GetOwnedConversation(c.Request.Context(), uint(id), principal.ID, ownerKind(principal))
		if err != nil {
			responses.HandleError(c, err, "conversation not found")
			return
		}

		c.Set(conversationContextKey, conv)
		c.Next()
	}
}

// ConversationFromContext returns the conversation loaded by
// ConversationMiddleware.
func ConversationFromContext(c *gin.Context) (*conversation.Conversation, bool) {
	val, ok := c.Get(conversationContextKey)
	if !ok {
		return nil, false
	}
	conv, ok := val.(*conversation.Conversation)
	return conv, ok
}

func ownerKind(principal domain.Principal) conversation.OwnerKind {
	if principal.IsAdmin() {
		return conversation.OwnerKindAdmin
	}
	return conversation.OwnerKindUser
}
