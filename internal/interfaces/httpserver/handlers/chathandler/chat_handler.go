package chathandler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/inference"
	"arbor-server/chat-api/internal/infrastructure/metrics"
	"arbor-server/chat-api/internal/interfaces/httpserver/middlewares"
	chatrequests "arbor-server/chat-api/internal/interfaces/httpserver/requests/chat"
	"arbor-server/chat-api/internal/interfaces/httpserver/responses"
	chatresponses "arbor-server/chat-api/internal/interfaces/httpserver/responses/chat"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// ChatHandler relays chat turns to the inference upstream over SSE.
//
// Authenticated turns are durable: the caller's message and the assistant
// reply land in a conversation, which is created on the first turn.
// Anonymous turns stream the same way but persist nothing.
type ChatHandler struct {
	conversations *conversation.ConversationService
	branches      *conversation.BranchService
	inference     inference.Client
	logger        zerolog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	conversations *conversation.ConversationService,
	branches *conversation.BranchService,
	inferenceClient inference.Client,
	logger zerolog.Logger,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		branches:      branches,
		inference:     inferenceClient,
		logger:        logger,
	}
}

// CreateChatCompletion handles one chat turn and streams the reply.
func (h *ChatHandler) CreateChatCompletion(reqCtx *gin.Context) {
	var req chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "message is required", "e84c1f92-5b37-4da0-9c68-2f01d7b3a654")
		return
	}

	principal, authenticated := middlewares.PrincipalFromContext(reqCtx)
	if authenticated {
		h.authenticatedTurn(reqCtx, principal, req)
		return
	}
	h.anonymousTurn(reqCtx, req)
}

// anonymousTurn streams a completion without creating any durable state.
func (h *ChatHandler) anonymousTurn(reqCtx *gin.Context, req chatrequests.ChatRequest) {
	transcript := []*conversation.Message{{
		Role:    conversation.MessageRoleUser,
		Content: req.Message,
	}}

	if _, ok := middlewares.PrepareSSE(reqCtx); !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "streaming unsupported", "6d30b8e5-f192-4a7c-bd45-98c2e6f01a37")
		return
	}

	if _, streamed := h.relayStream(reqCtx, transcript); streamed {
		h.writeSSEDone(reqCtx)
	}
}

// authenticatedTurn persists the caller's message, streams the reply, and
// persists the assistant text. A turn without a conversation id creates one
// and announces it on the stream before any content.
func (h *ChatHandler) authenticatedTurn(reqCtx *gin.Context, principal domain.Principal, req chatrequests.ChatRequest) {
	ctx := reqCtx.Request.Context()
	kind := conversation.OwnerKindUser
	if principal.IsAdmin() {
		kind = conversation.OwnerKindAdmin
	}

	branchID := req.BranchID
	if branchID == "" {
		branchID = conversation.MainBranchID
	}

	var conv *conversation.Conversation
	created := false
	if req.ConversationID == nil {
		var err error
		conv, err = h.conversations.CreateConversation(ctx, conversation.CreateConversationInput{
			OwnerID:             principal.ID,
			OwnerKind:           kind,
			FirstMessageContent: req.Message,
		})
		if err != nil {
			responses.HandleError(reqCtx, err, "failed to create conversation")
			return
		}
		created = true
		metrics.ConversationsCreatedTotal.Inc()
	} else {
		var err error
		conv, err = h.conversations.GetOwnedConversation(ctx, *req.ConversationID, principal.ID, kind)
		if err != nil {
			responses.HandleError(reqCtx, err, "conversation not found")
			return
		}
	}

	userMsg, err := h.conversations.AppendMessage(ctx, conv, conversation.AppendMessageInput{
		BranchID: branchID,
		Role:     conversation.MessageRoleUser,
		Content:  req.Message,
	})
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to append message")
		return
	}
	metrics.RecordMessageAppended(string(conversation.MessageRoleUser), branchID == conversation.MainBranchID)

	transcript, err := h.branches.ResolveTranscript(ctx, conv, branchID)
	if err != nil {
		responses.HandleError(reqCtx, err, "failed to resolve transcript")
		return
	}

	if _, ok := middlewares.PrepareSSE(reqCtx); !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "streaming unsupported", "0c47f2a9-8d1e-4b63-a570-3e96d8b21fc4")
		return
	}

	if created {
		if err := h.writeSSEJSON(reqCtx, chatresponses.StreamConversationCreated{ConversationID: conv.ID}); err != nil {
			return
		}
	}

	accumulated, streamed := h.relayStream(reqCtx, transcript)

	// Persist whatever text arrived, even when the client went away. An
	// empty accumulation persists nothing, which is the other allowed
	// outcome for a cancelled stream.
	if accumulated != "" {
		persistCtx := context.WithoutCancel(ctx)
		parentID := userMsg.ID
		if _, err := h.conversations.AppendMessage(persistCtx, conv, conversation.AppendMessageInput{
			BranchID:        branchID,
			ParentMessageID: &parentID,
			Role:            conversation.MessageRoleAssistant,
			Content:         accumulated,
		}); err != nil {
			h.logger.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to persist assistant message")
		} else {
			metrics.RecordMessageAppended(string(conversation.MessageRoleAssistant), branchID == conversation.MainBranchID)
		}
	}

	if streamed {
		h.writeSSEDone(reqCtx)
	}
}

// relayStream drives the upstream stream and forwards deltas to the client.
// It returns the accumulated text and whether the client connection is still
// usable for the terminating sentinel.
func (h *ChatHandler) relayStream(reqCtx *gin.Context, transcript []*conversation.Message) (string, bool) {
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	start := time.Now()
	clientGone := false
	firstToken := true

	accumulated, err := h.inference.StreamCompletion(reqCtx.Request.Context(), transcript, func(delta string) error {
		if firstToken {
			firstToken = false
			metrics.RecordFirstToken(time.Since(start).Seconds())
		}
		return h.writeSSEJSON(reqCtx, chatresponses.StreamDelta{Content: delta})
	})

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		clientGone = true
	default:
		metrics.RecordInferenceError("stream")
		h.logger.Error().Err(err).Msg("completion stream failed")
		// Headers are already out; the best we can do is drop the
		// connection after reporting the error as a stream event.
		_ = h.writeSSEJSON(reqCtx, gin.H{"error": "completion failed"})
		clientGone = true
	}

	metrics.RecordInference(accumulated != "", time.Since(start).Seconds())
	return accumulated, !clientGone
}

func (h *ChatHandler) writeSSEJSON(reqCtx *gin.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.writeSSEData(reqCtx, string(data))
}

func (h *ChatHandler) writeSSEDone(reqCtx *gin.Context) {
	_ = h.writeSSEData(reqCtx, chatresponses.StreamDone)
}

// writeSSEData writes an SSE data event to the response
func (h *ChatHandler) writeSSEData(reqCtx *gin.Context, data string) error {
	if _, err := reqCtx.Writer.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := reqCtx.Writer.Write([]byte(data)); err != nil {
		return err
	}
	if _, err := reqCtx.Writer.Write([]byte("\n\n")); err != nil {
		return err
	}
	reqCtx.Writer.Flush()
	return nil
}
