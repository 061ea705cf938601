package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abfi/platform/internal/config"
	"github.com/abfi/platform/internal/database"
)

// InitializeDatabase opens abfi.db in the data directory and applies the
// schema. Scores and stress test records are audit evidence, so the file uses
// the ledger profile.
func InitializeDatabase(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "abfi",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("path", db.Path()).Str("profile", string(db.Profile())).Msg("Database initialized")
	return &Container{DB: db}, nil
}
