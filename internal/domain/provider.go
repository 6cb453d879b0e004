package domain

import (
	"github.com/google/wire"

	"arbor-server/chat-api/internal/config"
	"arbor-server/chat-api/internal/domain/conversation"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	conversation.NewConversationService,

	ProvideBranchServiceConfig,
	conversation.NewBranchService,
)

func ProvideBranchServiceConfig(cfg *config.Config) conversation.BranchServiceConfig {
	return conversation.BranchServiceConfig{
		StrictForkValidation: cfg.StrictForkValidation,
		TokenMaxRetries:      cfg.BranchTokenMaxRetries,
	}
}
