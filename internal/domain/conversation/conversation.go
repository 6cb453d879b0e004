package conversation

import (
	"context"
	"time"
)

// MainBranchID is the reserved identifier for the trunk of every
// conversation. It is never persisted as a branch row; the branch listing
// synthesizes it so clients always see exactly one main entry.
const MainBranchID = "main"

// OwnerKind distinguishes the account namespace a conversation belongs to.
// A user and an admin sharing the same ID are different owners.
type OwnerKind string

const (
	OwnerKindUser  OwnerKind = "user"
	OwnerKindAdmin OwnerKind = "admin"
)

// MessageRole identifies who authored a message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Conversation is the root aggregate: a message tree owned by a single
// principal. UpdatedAt moves whenever a message is appended, which drives
// the recency ordering of conversation listings.
type Conversation struct {
	ID        uint
	OwnerID   string
	OwnerKind OwnerKind
	Title     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy reports whether the conversation belongs to the given owner.
func (c *Conversation) IsOwnedBy(ownerID string, ownerKind OwnerKind) bool {
	return c.OwnerID == ownerID && c.OwnerKind == ownerKind
}

// Message is one turn of a conversation. IDs are assigned by the database
// sequence, so they are globally creation ordered and serve as the
// deterministic tie-break when two messages share a timestamp.
//
// ParentMessageID records the message this one was appended after. It is
// kept for lineage only: transcript resolution orders messages by
// (CreatedAt, ID) within a branch and never walks parent links.
type Message struct {
	ID              uint
	ConversationID  uint
	ParentMessageID *uint
	BranchID        string
	Role            MessageRole
	Content         string
	CreatedAt       time.Time
}

// Branch is a named fork point. BranchID is a random token unique within
// the conversation, and ParentMessageID is the main-branch message the
// fork was taken from. Persisted branches are never the main branch; the
// synthetic main entry is produced by NewMainBranch at read time.
type Branch struct {
	ID              uint
	ConversationID  uint
	BranchID        string
	Name            string
	ParentMessageID *uint
	IsMainBranch    bool
	CreatedAt       time.Time
}

// NewMainBranch builds the synthetic main entry for a conversation's branch
// listing. It is never written to storage.
func NewMainBranch(conv *Conversation) *Branch {
	return &Branch{
		ID:              0,
		ConversationID:  conv.ID,
		BranchID:        MainBranchID,
		Name:            "Main conversation",
		ParentMessageID: nil,
		IsMainBranch:    true,
		CreatedAt:       conv.CreatedAt,
	}
}

// NewConversation creates a conversation owned by the given principal.
func NewConversation(ownerID string, ownerKind OwnerKind, title *string) *Conversation {
	now := time.Now()
	return &Conversation{
		OwnerID:   ownerID,
		OwnerKind: ownerKind,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConversationRepository persists conversations. Delete removes the
// conversation together with its messages and branches.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	FindByOwner(ctx context.Context, ownerID string, ownerKind OwnerKind) ([]*Conversation, error)
	Touch(ctx context.Context, id uint, at time.Time) error
	Delete(ctx context.Context, id uint) error
}

// MessageRepository persists messages. ListByBranch returns messages of one
// branch ordered by (created_at, id) ascending.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, conversationID, messageID uint) (*Message, error)
	ListByBranch(ctx context.Context, conversationID uint, branchID string) ([]*Message, error)
	DeleteByConversation(ctx context.Context, conversationID uint) error
}

// BranchRepository persists fork-point branches. Create must fail with a
// conflict error when the (conversation_id, branch_id) pair already exists.
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	FindByBranchID(ctx context.Context, conversationID uint, branchID string) (*Branch, error)
	ListByConversation(ctx context.Context, conversationID uint) ([]*Branch, error)
	ExistsBranchID(ctx context.Context, conversationID uint, branchID string) (bool, error)
	DeleteByConversation(ctx context.Context, conversationID uint) error
}
