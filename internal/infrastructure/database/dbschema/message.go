package dbschema

import (
	"time"

	"arbor-server/chat-api/internal/domain/conversation"
)

// Message represents the database schema for conversation messages. IDs come
// from the table's sequence, so they order messages globally by creation.
// There is no updated_at: messages are immutable once written.
type Message struct {
	ID              uint      `gorm:"primaryKey"`
	ConversationID  uint      `gorm:"index:idx_messages_conversation_branch_order;not null"`
	ParentMessageID *uint
	BranchID        string    `gorm:"type:varchar(32);index:idx_messages_conversation_branch_order;not null;default:'main'"`
	Role            string    `gorm:"type:varchar(20);not null"`
	Content         string    `gorm:"type:text;not null"`
	CreatedAt       time.Time `gorm:"index:idx_messages_conversation_branch_order;not null"`
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		ParentMessageID: m.ParentMessageID,
		BranchID:        m.BranchID,
		Role:            string(m.Role),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}

// EtoD converts the database schema to a domain message (Entity to Domain)
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		ParentMessageID: m.ParentMessageID,
		BranchID:        m.BranchID,
		Role:            conversation.MessageRole(m.Role),
		Content:         m.Content,
		CreatedAt:       m.CreatedAt,
	}
}
