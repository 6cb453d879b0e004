package conversationhandler

import (
	"context"

	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/metrics"
	conversationrequests "arbor-server/chat-api/internal/interfaces/httpserver/requests/conversation"
	conversationresponses "arbor-server/chat-api/internal/interfaces/httpserver/responses/conversation"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// BranchHandler handles branch-related HTTP requests
type BranchHandler struct {
	branchService *conversation.BranchService
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(branchService *conversation.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// ListBranches lists the branches of a conversation, the synthetic main
// entry first.
func (h *BranchHandler) ListBranches(ctx context.Context, conv *conversation.Conversation) (*conversationresponses.BranchListResponse, error) {
	branches, err := h.branchService.ListBranches(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to list branches")
	}
	return conversationresponses.NewBranchListResponse(branches), nil
}

// Fork creates a branch anchored at the requested message.
func (h *BranchHandler) Fork(ctx context.Context, conv *conversation.Conversation, req conversationrequests.ForkConversationRequest) (*conversationresponses.ForkResponse, error) {
	branch, err := h.branchService.Fork(ctx, conv, conversation.ForkInput{
		MessageID: req.MessageID,
		Name:      req.BranchName,
	})
	if err != nil {
		metrics.RecordFork("error")
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to fork conversation")
	}

	metrics.RecordFork("ok")
	return conversationresponses.NewForkResponse(branch), nil
}

// GetTranscript resolves the linear transcript of a branch. An unknown
// branch id yields an empty transcript, not an error.
func (h *BranchHandler) GetTranscript(ctx context.Context, conv *conversation.Conversation, branchID string) (*conversationresponses.TranscriptResponse, error) {
	messages, err := h.branchService.ResolveTranscript(ctx, conv, branchID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to resolve transcript")
	}

	metrics.RecordTranscriptResolution(branchID == "" || branchID == conversation.MainBranchID)
	return conversationresponses.NewTranscriptResponse(messages), nil
}
