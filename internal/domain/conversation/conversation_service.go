package conversation

import (
	"context"
	"time"

	"arbor-server/chat-api/internal/utils/platformerrors"
	"arbor-server/chat-api/internal/utils/stringutils"
)

// Transactor runs a function inside a database transaction. Repository calls
// made with the provided context join that transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ConversationService handles conversation lifecycle and message appends.
type ConversationService struct {
	conversations ConversationRepository
	messages      MessageRepository
	tx            Transactor
}

// NewConversationService creates a new conversation service
func NewConversationService(
	conversations ConversationRepository,
	messages MessageRepository,
	tx Transactor,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		tx:            tx,
	}
}

// CreateConversationInput represents the input for creating a conversation
type CreateConversationInput struct {
	OwnerID   string
	OwnerKind OwnerKind
	Title     *string
	// FirstMessageContent derives a title when Title is nil.
	FirstMessageContent string
}

// CreateConversation creates a conversation for the given owner. When no
// title is supplied one is derived from the first message content.
func (s *ConversationService) CreateConversation(ctx context.Context, input CreateConversationInput) (*Conversation, error) {
	if input.OwnerID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"conversation owner is required", nil, "4f8a2e91-7c3b-4d6a-9e0f-1b5c8d2a7e43")
	}

	title := input.Title
	if title == nil && input.FirstMessageContent != "" {
		if generated := stringutils.GenerateTitle(input.FirstMessageContent, stringutils.DefaultTitleMaxLen); generated != "" {
			title = &generated
		}
	}

	conv := NewConversation(input.OwnerID, input.OwnerKind, title)
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}

	return conv, nil
}

// GetOwnedConversation retrieves a conversation and validates ownership.
// A conversation owned by someone else is indistinguishable from a missing
// one: both return a not-found error.
func (s *ConversationService) GetOwnedConversation(ctx context.Context, id uint, ownerID string, ownerKind OwnerKind) (*Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}

	if !conv.IsOwnedBy(ownerID, ownerKind) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"conversation not found", nil, "9d1c6b24-3f8e-4a05-b7d2-e64a90c5f318")
	}

	return conv, nil
}

// ListConversations returns the owner's conversations, most recently
// updated first.
func (s *ConversationService) ListConversations(ctx context.Context, ownerID string, ownerKind OwnerKind) ([]*Conversation, error) {
	conversations, err := s.conversations.FindByOwner(ctx, ownerID, ownerKind)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	return conversations, nil
}

// DeleteConversation removes the conversation with its messages and
// branches. Deleting a conversation the owner does not have is a silent
// no-op, so the endpoint does not leak other tenants' conversation IDs.
func (s *ConversationService) DeleteConversation(ctx context.Context, id uint, ownerID string, ownerKind OwnerKind) error {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}

	if !conv.IsOwnedBy(ownerID, ownerKind) {
		return nil
	}

	if err := s.conversations.Delete(ctx, conv.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// AppendMessageInput represents the input for appending a message
type AppendMessageInput struct {
	BranchID        string
	ParentMessageID *uint
	Role            MessageRole
	Content         string
}

// AppendMessage appends a message to the conversation and bumps its
// UpdatedAt in the same transaction, so listings never observe a message
// without the recency bump.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *Conversation, input AppendMessageInput) (*Message, error) {
	if input.Content == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"message content is required", nil, "b3e07f52-8a14-4c9d-a6e3-5d2f91b8c074")
	}

	branchID := input.BranchID
	if branchID == "" {
		branchID = MainBranchID
	}

	msg := &Message{
		ConversationID:  conv.ID,
		ParentMessageID: input.ParentMessageID,
		BranchID:        branchID,
		Role:            input.Role,
		Content:         input.Content,
		CreatedAt:       time.Now(),
	}

	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.messages.Create(txCtx, msg); err != nil {
			return err
		}
		return s.conversations.Touch(txCtx, conv.ID, msg.CreatedAt)
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to append message")
	}

	conv.UpdatedAt = msg.CreatedAt
	return msg, nil
}
