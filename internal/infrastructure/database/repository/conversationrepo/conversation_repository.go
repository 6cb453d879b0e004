package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/database/dbschema"
	"arbor-server/chat-api/internal/infrastructure/database/transaction"
	"arbor-server/chat-api/internal/utils/functional"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.ConversationRepository {
	return &ConversationGormRepository{db}
}

// Create implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create conversation")
	}
	// Propagate generated ID and timestamps back to the domain object
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var model dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"conversation not found", err, "63f0b8d2-4a1e-47c9-9b5d-e82a71c04f36")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversation by ID")
	}
	return model.EtoD(), nil
}

// FindByOwner implements conversation.ConversationRepository. Results are
// ordered by recency of update, newest first.
func (repo *ConversationGormRepository) FindByOwner(ctx context.Context, ownerID string, ownerKind conversation.OwnerKind) ([]*conversation.Conversation, error) {
	var models []*dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("owner_id = ? AND owner_kind = ?", ownerID, string(ownerKind)).
		Order("updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversations")
	}

	return functional.Map(models, func(model *dbschema.Conversation) *conversation.Conversation {
		return model.EtoD()
	}), nil
}

// Touch implements conversation.ConversationRepository. It bumps updated_at
// with a single UPDATE so concurrent appends cannot lose each other's bump.
func (repo *ConversationGormRepository) Touch(ctx context.Context, id uint, at time.Time) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to touch conversation")
	}
	return nil
}

// Delete implements conversation.ConversationRepository. Messages and
// branches go in the same transaction, so a half-deleted conversation is
// never observable even on storage engines without FK cascade.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id uint) error {
	err := repo.db.RunInTransaction(ctx, func(txCtx context.Context) error {
		tx := repo.db.GetTx(txCtx).WithContext(txCtx)
		if err := tx.Where("conversation_id = ?", id).Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&dbschema.Branch{}).Error; err != nil {
			return err
		}
		return tx.Delete(&dbschema.Conversation{}, id).Error
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete conversation")
	}
	return nil
}
