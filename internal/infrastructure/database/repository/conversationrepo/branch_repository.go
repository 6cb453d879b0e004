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

type BranchGormRepository struct {
	db *transaction.Database
}

var _ conversation.BranchRepository = (*BranchGormRepository)(nil)

func NewBranchGormRepository(db *transaction.Database) conversation.BranchRepository {
	return &BranchGormRepository{db}
}

// Create implements conversation.BranchRepository. The unique index on
// (conversation_id, branch_id) surfaces token races as a conflict error the
// fork loop can retry on.
func (repo *BranchGormRepository) Create(ctx context.Context, branch *conversation.Branch) error {
	model := dbschema.NewSchemaBranch(branch)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
				"branch token already exists", err, "d27a5c91-3e80-4f6b-b41c-09e8f3a26d57")
		}
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create branch")
	}
	branch.ID = model.ID
	branch.CreatedAt = model.CreatedAt
	return nil
}

// FindByBranchID implements conversation.BranchRepository.
func (repo *BranchGormRepository) FindByBranchID(ctx context.Context, conversationID uint, branchID string) (*conversation.Branch, error) {
	var model dbschema.Branch
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ? AND branch_id = ?", conversationID, branchID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"branch not found", err, "1c6f0d84-9b27-4e35-8a0f-52d3e17c94ab")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find branch")
	}
	return model.EtoD(), nil
}

// ListByConversation implements conversation.BranchRepository. Branches are
// returned in creation order.
func (repo *BranchGormRepository) ListByConversation(ctx context.Context, conversationID uint) ([]*conversation.Branch, error) {
	var models []*dbschema.Branch
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list branches")
	}

	return functional.Map(models, func(model *dbschema.Branch) *conversation.Branch {
		return model.EtoD()
	}), nil
}

// ExistsBranchID implements conversation.BranchRepository.
func (repo *BranchGormRepository) ExistsBranchID(ctx context.Context, conversationID uint, branchID string) (bool, error) {
	var count int64
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Branch{}).
		Where("conversation_id = ? AND branch_id = ?", conversationID, branchID).
		Count(&count).Error
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to check branch token")
	}
	return count > 0, nil
}

// DeleteByConversation implements conversation.BranchRepository.
func (repo *BranchGormRepository) DeleteByConversation(ctx context.Context, conversationID uint) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&dbschema.Branch{}).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete branches")
	}
	return nil
}
