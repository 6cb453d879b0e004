package infrastructure

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"arbor-server/chat-api/internal/config"
	"arbor-server/chat-api/internal/domain/conversation"
	"arbor-server/chat-api/internal/infrastructure/authclient"
	"arbor-server/chat-api/internal/infrastructure/database"
	"arbor-server/chat-api/internal/infrastructure/database/repository"
	"arbor-server/chat-api/internal/infrastructure/database/transaction"
	"arbor-server/chat-api/internal/infrastructure/inference"
	"arbor-server/chat-api/internal/infrastructure/logger"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the logger from LOG_LEVEL and LOG_FORMAT.
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// ProvideDatabase provides a database connection
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Run migrations if AUTO_MIGRATE is enabled
	if cfg.AutoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(db); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			return nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, nil
}

// ProvideTransactionDatabase provides a transaction database wrapper
func ProvideTransactionDatabase(db *gorm.DB) *transaction.Database {
	return transaction.NewDatabase(db)
}

// ProvideTransactor exposes the transaction wrapper to the domain layer.
func ProvideTransactor(db *transaction.Database) conversation.Transactor {
	return db
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(db *gorm.DB, logger zerolog.Logger) *Infrastructure {
	return &Infrastructure{
		DB:     db,
		Logger: logger,
	}
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Logger
	ProvideLogger,

	// Database
	ProvideDatabase,
	ProvideTransactionDatabase,
	ProvideTransactor,

	// Repositories
	repository.RepositoryProvider,

	// Auth resolver
	authclient.NewResolver,

	// Inference upstream
	inference.NewClient,

	// Infrastructure struct
	NewInfrastructure,
)
