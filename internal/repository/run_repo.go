package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-migration-audit/internal/model"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) CreateRun(ctx context.Context, run model.AuditRun) error {
	startedAt, _ := time.Parse(time.RFC3339Nano, run.StartedAt)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_runs (id, source, mode, status, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.RunID, run.Source, string(run.Mode), string(run.Status), startedAt)
	if err != nil {
		return fmt.Errorf("create audit run: %w", err)
	}
	return nil
}

func (r *RunRepository) UpdateRun(ctx context.Context, run model.AuditRun) error {
	var finishedAt *time.Time
	if run.FinishedAt != "" {
		t, err := time.Parse(time.RFC3339Nano, run.FinishedAt)
		if err == nil {
			finishedAt = &t
		}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_runs SET status = $2, rows_read = $3, findings = $4, warnings = $5,
		  errors = $6, intents = $7, excluded = $8, renames_ok = $9, renames_failed = $10,
		  finished_at = $11, failure_message = $12
		 WHERE id = $1`,
		run.RunID, string(run.Status), run.Rows, run.Findings, run.Warnings,
		run.Errors, run.Intents, run.Excluded, run.RenamesOK, run.RenamesFailed,
		finishedAt, run.FailureMessage)
	if err != nil {
		return fmt.Errorf("update audit run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrRunNotFound
	}
	return nil
}

const runColumns = `id, source, mode, status, rows_read, findings, warnings, errors,
	intents, excluded, renames_ok, renames_failed, started_at, finished_at, failure_message`

func scanRun(row pgx.Row) (model.AuditRun, error) {
	var (
		run        model.AuditRun
		mode       string
		status     string
		startedAt  time.Time
		finishedAt *time.Time
	)

	err := row.Scan(&run.RunID, &run.Source, &mode, &status,
		&run.Rows, &run.Findings, &run.Warnings, &run.Errors,
		&run.Intents, &run.Excluded, &run.RenamesOK, &run.RenamesFailed,
		&startedAt, &finishedAt, &run.FailureMessage)
	if err != nil {
		return model.AuditRun{}, err
	}

	run.Mode = model.Mode(mode)
	run.Status = model.RunStatus(status)
	run.StartedAt = startedAt.UTC().Format(time.RFC3339Nano)
	if finishedAt != nil {
		run.FinishedAt = finishedAt.UTC().Format(time.RFC3339Nano)
	}
	return run, nil
}

func (r *RunRepository) GetRun(ctx context.Context, runID string) (model.AuditRun, error) {
	run, err := scanRun(r.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM audit_runs WHERE id::text = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AuditRun{}, model.ErrRunNotFound
	}
	if err != nil {
		return model.AuditRun{}, fmt.Errorf("find audit run: %w", err)
	}
	return run, nil
}

func (r *RunRepository) ListRuns(ctx context.Context, query model.RunQuery) ([]model.AuditRun, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 50, 200)

	whereClause := ""
	args := make([]any, 0, 3)
	if status := strings.TrimSpace(query.Status); status != "" {
		whereClause = "WHERE lower(status) = lower($1)"
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_runs "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count audit runs: %w", err)
	}

	offset := (page - 1) * limit
	dataQuery := fmt.Sprintf(
		`SELECT %s FROM audit_runs %s
		 ORDER BY started_at DESC, id
		 LIMIT $%d OFFSET $%d`, runColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query audit runs: %w", err)
	}
	defer rows.Close()

	runs := make([]model.AuditRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan audit run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, model.NewMeta(page, limit, total), rows.Err()
}
