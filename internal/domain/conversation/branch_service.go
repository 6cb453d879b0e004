package conversation

import (
	"context"
	"fmt"

	"arbor-server/chat-api/internal/utils/idgen"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// BranchServiceConfig tunes fork behavior.
type BranchServiceConfig struct {
	// StrictForkValidation additionally requires the fork point to sit on
	// the main branch. Off by default: forks taken from branch messages are
	// accepted and resolve to a transcript without a main prefix.
	StrictForkValidation bool
	// TokenMaxRetries bounds the generate-and-insert loop for branch tokens.
	TokenMaxRetries int
}

// BranchService handles fork creation, branch listing and transcript
// resolution.
type BranchService struct {
	branches BranchRepository
	messages MessageRepository
	cfg      BranchServiceConfig
}

// NewBranchService creates a new branch service
func NewBranchService(branches BranchRepository, messages MessageRepository, cfg BranchServiceConfig) *BranchService {
	if cfg.TokenMaxRetries < 1 {
		cfg.TokenMaxRetries = 5
	}
	return &BranchService{
		branches: branches,
		messages: messages,
		cfg:      cfg,
	}
}

// ListBranches returns the synthetic main entry followed by the
// conversation's persisted branches in creation order.
func (s *BranchService) ListBranches(ctx context.Context, conv *Conversation) ([]*Branch, error) {
	stored, err := s.branches.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list branches")
	}

	branches := make([]*Branch, 0, len(stored)+1)
	branches = append(branches, NewMainBranch(conv))
	branches = append(branches, stored...)
	return branches, nil
}

// ForkInput represents the input for forking a conversation
type ForkInput struct {
	MessageID uint
	Name      *string
}

// Fork creates a new branch anchored at the given message. The message must
// exist in the conversation; under strict validation it must also sit on the
// main branch. The branch token is random, so insertion retries with a fresh
// token on collision up to the configured bound.
func (s *BranchService) Fork(ctx context.Context, conv *Conversation, input ForkInput) (*Branch, error) {
	msg, err := s.messages.FindByID(ctx, conv.ID, input.MessageID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "fork point not found")
	}

	if s.cfg.StrictForkValidation && msg.BranchID != MainBranchID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"fork point not found", nil, "7e2d9a40-61cb-4f85-8b3a-c09f4d17e652")
	}

	name := fmt.Sprintf("Branch from message %d", msg.ID)
	if input.Name != nil && *input.Name != "" {
		name = *input.Name
	}

	for attempt := 0; attempt < s.cfg.TokenMaxRetries; attempt++ {
		token, err := idgen.GenerateBranchToken()
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
				"failed to generate branch token", err, "f5a81c36-2d97-4e0b-ba64-83e1c7059d2f")
		}

		exists, err := s.branches.ExistsBranchID(ctx, conv.ID, token)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check branch token")
		}
		if exists {
			continue
		}

		parentID := msg.ID
		branch := &Branch{
			ConversationID:  conv.ID,
			BranchID:        token,
			Name:            name,
			ParentMessageID: &parentID,
			IsMainBranch:    false,
		}

		err = s.branches.Create(ctx, branch)
		if err == nil {
			return branch, nil
		}
		// A concurrent fork can win the token between the existence check
		// and the insert; only that conflict is retryable.
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			continue
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create branch")
	}

	return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
		"could not allocate a unique branch token", nil, "a96c3e18-5b0d-47f2-9c81-64df20b7a5e9")
}

// ResolveTranscript returns the linear message sequence for a branch.
//
// For main, the transcript is every main-branch message ordered by
// (created_at, id). For any other branch it is the main prefix up to the
// branch's fork point followed by the branch's own messages. An unknown
// branch resolves to an empty transcript rather than an error, matching how
// an empty but existing branch reads.
func (s *BranchService) ResolveTranscript(ctx context.Context, conv *Conversation, branchID string) ([]*Message, error) {
	if branchID == "" {
		branchID = MainBranchID
	}

	main, err := s.messages.ListByBranch(ctx, conv.ID, MainBranchID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load main messages")
	}

	if branchID == MainBranchID {
		return main, nil
	}

	branch, err := s.branches.FindByBranchID(ctx, conv.ID, branchID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return []*Message{}, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load branch")
	}

	branchMessages, err := s.messages.ListByBranch(ctx, conv.ID, branchID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load branch messages")
	}

	return AssembleTranscript(main, branch, branchMessages), nil
}
