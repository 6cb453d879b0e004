package dbschema

import (
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Message{})
	database.RegisterSchemaForAutoMigrate(Branch{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	BaseModel
	OwnerID   string  `gorm:"type:varchar(64);index:idx_conversations_owner_updated;not null"`
	OwnerKind string  `gorm:"type:varchar(10);index:idx_conversations_owner_updated;not null"`
	Title     *string `gorm:"type:varchar(256)"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Branches []Branch  `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		BaseModel: BaseModel{
			ID:        c.ID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		OwnerID:   c.OwnerID,
		OwnerKind: string(c.OwnerKind),
		Title:     c.Title,
	}
}

// EtoD converts the database schema to a domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		OwnerKind: conversation.OwnerKind(c.OwnerKind),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
