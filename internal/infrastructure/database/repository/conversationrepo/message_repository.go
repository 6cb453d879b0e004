package conversationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/database/dbschema"
	"arbor-server/chat-api/internal/infrastructure/database/transaction"
	"arbor-server/chat-api/internal/utils/functional"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

type MessageGormRepository struct {
	db *transaction.Database
}

var _ conversation.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *transaction.Database) conversation.MessageRepository {
	return &MessageGormRepository{db}
}

// Create implements conversation.MessageRepository.
func (repo *MessageGormRepository) Create(ctx context.Context, msg *conversation.Message) error {
	model := dbschema.NewSchemaMessage(msg)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create message")
	}
	msg.ID = model.ID
	msg.CreatedAt = model.CreatedAt
	return nil
}

// FindByID implements conversation.MessageRepository. The conversation
// scope is part of the lookup, so a message ID from another conversation
// reads as not found.
func (repo *MessageGormRepository) FindByID(ctx context.Context, conversationID, messageID uint) (*conversation.Message, error) {
	var model dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ? AND id = ?", conversationID, messageID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"message not found", err, "8b4e2f90-6c1a-43d7-a5e8-f39d10c67b24")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find message")
	}
	return model.EtoD(), nil
}

// ListByBranch implements conversation.MessageRepository. Ordering is
// (created_at, id): the id tie-break keeps same-timestamp messages in a
// deterministic creation order.
func (repo *MessageGormRepository) ListByBranch(ctx context.Context, conversationID uint, branchID string) ([]*conversation.Message, error) {
	var models []*dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ? AND branch_id = ?", conversationID, branchID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list messages")
	}

	return functional.Map(models, func(model *dbschema.Message) *conversation.Message {
		return model.EtoD()
	}), nil
}

// DeleteByConversation implements conversation.MessageRepository.
func (repo *MessageGormRepository) DeleteByConversation(ctx context.Context, conversationID uint) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&dbschema.Message{}).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete messages")
	}
	return nil
}
