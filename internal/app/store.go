package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-migration-audit/internal/config"
	"go-migration-audit/internal/database"
	"go-migration-audit/internal/repository"
	"go-migration-audit/internal/service"
)

// Store is a run store that can also serve reports.
type Store interface {
	service.RunStore
	service.RunReader
}

type StoreHandle struct {
	Store
	db *database.DB
}

// OpenStore connects to PostgreSQL when DATABASE_URL is set and falls back
// to the JSONL audit trail otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*StoreHandle, error) {
	if cfg.DatabaseURL == "" {
		trail, err := repository.NewTrailRepository(cfg.AuditTrailFile)
		if err != nil {
			return nil, fmt.Errorf("open audit trail: %w", err)
		}
		logger.Debug("using audit trail file", "path", trail.Path())
		return &StoreHandle{Store: trail}, nil
	}

	logger.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return &StoreHandle{Store: repository.NewPostgresStore(db.Pool), db: db}, nil
}

// HealthChecker returns nil for file-backed stores.
func (h *StoreHandle) HealthChecker() *database.DB {
	return h.db
}

func (h *StoreHandle) Close() {
	if h.db != nil {
		h.db.Close()
	}
}
