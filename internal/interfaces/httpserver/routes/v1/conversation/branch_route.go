package conversation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"arbor-server/chat-api/internal/infrastructure/authclient"
	"arbor-server/chat-api/internal/interfaces/httpserver/handlers/conversationhandler"
	"arbor-server/chat-api/internal/interfaces/httpserver/middlewares"
	conversationrequests "arbor-server/chat-api/internal/interfaces/httpserver/requests/conversation"
	"arbor-server/chat-api/internal/interfaces/httpserver/responses"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// BranchRoute exposes branch listing, forking and transcript reads, all
// scoped to a conversation the caller owns.
type BranchRoute struct {
	handler             *conversationhandler.BranchHandler
	conversationHandler *conversationhandler.ConversationHandler
	resolver            authclient.Resolver
	logger              zerolog.Logger
}

func NewBranchRoute(
	handler *conversationhandler.BranchHandler,
	conversationHandler *conversationhandler.ConversationHandler,
	resolver authclient.Resolver,
	logger zerolog.Logger,
) *BranchRoute {
	return &BranchRoute{
		handler:             handler,
		conversationHandler: conversationHandler,
		resolver:            resolver,
		logger:              logger,
	}
}

func (route *BranchRoute) RegisterRouter(router gin.IRouter) {
	auth := middlewares.AuthMiddleware(route.resolver, route.logger)
	owned := route.conversationHandler.ConversationMiddleware()

	conversations := router.Group("/conversations/:conversation_id")
	conversations.GET("/branches", auth, owned, route.listBranches)
	conversations.POST("/fork", auth, owned, route.forkConversation)
	conversations.GET("/messages", auth, owned, route.getTranscript)
}

// listBranches returns the synthetic main descriptor followed by stored
// branches.
func (route *BranchRoute) listBranches(reqCtx *gin.Context) {
	conv, ok := conversationhandler.ConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "61f0d2c8-3b5a-47e9-9d14-c82a60f53b97")
		return
	}

	response, err := route.handler.ListBranches(reqCtx.Request.Context(), conv)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list branches")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// forkConversation creates a branch anchored at the requested message.
func (route *BranchRoute) forkConversation(reqCtx *gin.Context) {
	conv, ok := conversationhandler.ConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "7c4e91b5-d06f-4328-a8d1-592e3f07c6ab")
		return
	}

	var req conversationrequests.ForkConversationRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "messageId is required", "d93b57a2-41e8-4f60-bc29-0a86f5d21e73")
		return
	}

	response, err := route.handler.Fork(reqCtx.Request.Context(), conv, req)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to fork conversation")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}

// getTranscript resolves the transcript of the branch named by ?branchId.
// Unknown branches return an empty list.
func (route *BranchRoute) getTranscript(reqCtx *gin.Context) {
	conv, ok := conversationhandler.ConversationFromContext(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "conversation not found", "b05f8c31-97ad-4e26-8d43-16c2e9f7a058")
		return
	}

	var params conversationrequests.TranscriptQueryParams
	if err := reqCtx.ShouldBindQuery(&params); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "invalid query parameters", "35a9d1e7-64cf-40b8-92e5-d708b3f6c214")
		return
	}

	response, err := route.handler.GetTranscript(reqCtx.Request.Context(), conv, params.BranchID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to resolve transcript")
		return
	}
	reqCtx.JSON(http.StatusOK, response)
}
