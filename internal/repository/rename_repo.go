package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-migration-audit/internal/model"
)

type RenameRepository struct {
	pool *pgxpool.Pool
}

func NewRenameRepository(pool *pgxpool.Pool) *RenameRepository {
	return &RenameRepository{pool: pool}
}

func (r *RenameRepository) SaveRenames(ctx context.Context, runID string, results []model.RenameResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, result := range results {
		var finishedAt *time.Time
		if t, err := time.Parse(time.RFC3339Nano, result.FinishedAt); err == nil {
			finishedAt = &t
		}

		batch.Queue(
			`INSERT INTO rename_results (run_id, item_id, item_type, current_name, proposed_name,
			  line, idempotency_key, status, previous_name, reason, attempts, finished_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			runID, result.Intent.ItemID, string(result.Intent.ItemType), result.Intent.CurrentName,
			result.Intent.ProposedName, result.Intent.Line, result.Intent.Key(), string(result.Status),
			result.PreviousName, result.Reason, result.Attempts, finishedAt)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range results {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save rename result: %w", err)
		}
	}

	return nil
}

func (r *RenameRepository) ListRenames(ctx context.Context, query model.RenameQuery) ([]model.RenameResult, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 100, 500)

	whereClause := "WHERE run_id::text = $1"
	args := []any{query.RunID}
	if status := strings.TrimSpace(query.Status); status != "" {
		whereClause += " AND status = lower($2)"
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM rename_results "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count rename results: %w", err)
	}

	offset := (page - 1) * limit
	dataQuery := fmt.Sprintf(
		`SELECT item_id, item_type, current_name, proposed_name, line,
		        status, previous_name, reason, attempts, finished_at
		 FROM rename_results %s
		 ORDER BY id
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query rename results: %w", err)
	}
	defer rows.Close()

	results := make([]model.RenameResult, 0)
	for rows.Next() {
		var (
			result           model.RenameResult
			itemType, status string
			finishedAt       *time.Time
		)
		if err := rows.Scan(&result.Intent.ItemID, &itemType, &result.Intent.CurrentName,
			&result.Intent.ProposedName, &result.Intent.Line, &status, &result.PreviousName,
			&result.Reason, &result.Attempts, &finishedAt); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan rename result: %w", err)
		}
		result.Intent.ItemType = model.ItemType(itemType)
		result.Status = model.RenameStatus(status)
		if finishedAt != nil {
			result.FinishedAt = finishedAt.UTC().Format(time.RFC3339Nano)
		}
		results = append(results, result)
	}

	return results, model.NewMeta(page, limit, total), rows.Err()
}
