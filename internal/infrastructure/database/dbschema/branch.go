package dbschema

import (
	"time"

	"arbor-server/chat-api/internal/domain/conversation"
)

// Branch represents the database schema for fork-point branches. The main
// branch is never stored here; is_main_branch stays false for every row and
// exists so a future promotion feature has somewhere to land.
type Branch struct {
	ID              uint   `gorm:"primaryKey"`
	ConversationID  uint   `gorm:"uniqueIndex:idx_branches_conversation_branch;not null"`
	BranchID        string `gorm:"type:varchar(32);uniqueIndex:idx_branches_conversation_branch;not null"`
	Name            string `gorm:"type:varchar(256);not null"`
	ParentMessageID *uint
	IsMainBranch    bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
}

// NewSchemaBranch creates a database schema from a domain branch
func NewSchemaBranch(b *conversation.Branch) *Branch {
	return &Branch{
		ID:              b.ID,
		ConversationID:  b.ConversationID,
		BranchID:        b.BranchID,
		Name:            b.Name,
		ParentMessageID: b.ParentMessageID,
		IsMainBranch:    false,
		CreatedAt:       b.CreatedAt,
	}
}

// EtoD converts the database schema to a domain branch (Entity to Domain)
func (b *Branch) EtoD() *conversation.Branch {
	return &conversation.Branch{
		ID:              b.ID,
		ConversationID:  b.ConversationID,
		BranchID:        b.BranchID,
		Name:            b.Name,
		ParentMessageID: b.ParentMessageID,
		IsMainBranch:    b.IsMainBranch,
		CreatedAt:       b.CreatedAt,
	}
}
