package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-migration-audit/internal/boxapi"
	"go-migration-audit/internal/compliance"
	"go-migration-audit/internal/config"
	"go-migration-audit/internal/event"
	"go-migration-audit/internal/inventory"
	"go-migration-audit/internal/model"
	"go-migration-audit/internal/service"
)

// RunAudit evaluates the inventory export at source under cfg. In dry-run
// mode without an API token no remote call is made. Progress is published
// on bus when it is not nil.
func RunAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, bus event.Bus, source string) (model.AuditRun, error) {
	evaluator, err := compliance.NewEvaluator(cfg.Policy, cfg.Mode)
	if err != nil {
		return model.AuditRun{}, err
	}

	renamer, err := newRenamer(cfg, logger)
	if err != nil {
		return model.AuditRun{}, err
	}

	reader, err := inventory.Open(source, cfg.Inventory)
	if err != nil {
		return model.AuditRun{}, err
	}
	defer reader.Close()

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return model.AuditRun{}, err
	}
	defer store.Close()

	auditService, err := service.NewAuditService(evaluator, renamer, store, bus, logger)
	if err != nil {
		return model.AuditRun{}, err
	}

	return auditService.Run(ctx, source, reader)
}

func newRenamer(cfg *config.Config, logger *slog.Logger) (*service.RenameService, error) {
	if cfg.BoxToken == "" {
		if cfg.Mode == model.ModeApply {
			return nil, fmt.Errorf("%w: apply mode needs an API token", model.ErrInvalidInput)
		}
		logger.Info("no API token configured; proposed renames are only logged")
		return nil, nil
	}

	client, err := boxapi.New(cfg.BoxBaseURL, cfg.BoxToken, boxapi.WithTimeout(cfg.BoxTimeout))
	if err != nil {
		return nil, err
	}

	opts := service.DefaultRenameOptions()
	opts.Mode = cfg.Mode
	opts.Concurrency = cfg.RenameWorkers
	opts.RatePerSecond = cfg.RenameRate
	opts.MaxAttempts = cfg.RenameAttempts
	opts.BaseBackoff = cfg.RenameBackoff

	return service.NewRenameService(client, opts, logger)
}
