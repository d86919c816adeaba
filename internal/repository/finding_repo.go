package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-migration-audit/internal/model"
)

type FindingRepository struct {
	pool *pgxpool.Pool
}

func NewFindingRepository(pool *pgxpool.Pool) *FindingRepository {
	return &FindingRepository{pool: pool}
}

func (r *FindingRepository) SaveFindings(ctx context.Context, runID string, findings []model.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range findings {
		batch.Queue(
			`INSERT INTO findings (run_id, rule, severity, message, proposed_name, actionable,
			  line, owner_login, path, name, item_id, item_type, size_text, missing)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			runID, string(f.Rule), string(f.Severity), f.Message, f.ProposedName, f.Actionable,
			f.Row.Line, f.Row.OwnerLogin, f.Row.Path, f.Row.Name, f.Row.ItemID,
			string(f.Row.ItemType), f.Row.SizeText, f.Row.Missing)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range findings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save finding: %w", err)
		}
	}

	return nil
}

func (r *FindingRepository) ListFindings(ctx context.Context, query model.FindingQuery) ([]model.Finding, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 100, 500)

	where := []string{"run_id::text = $1"}
	args := []any{query.RunID}
	argIdx := 2

	if rule := strings.TrimSpace(query.Rule); rule != "" {
		where = append(where, fmt.Sprintf("rule = lower($%d)", argIdx))
		args = append(args, rule)
		argIdx++
	}
	if severity := strings.TrimSpace(query.Severity); severity != "" {
		where = append(where, fmt.Sprintf("severity = lower($%d)", argIdx))
		args = append(args, severity)
		argIdx++
	}
	whereClause := "WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM findings "+whereClause, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count findings: %w", err)
	}

	offset := (page - 1) * limit
	dataQuery := fmt.Sprintf(
		`SELECT rule, severity, message, proposed_name, actionable,
		        line, owner_login, path, name, item_id, item_type, size_text, missing
		 FROM findings %s
		 ORDER BY id
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	findings := make([]model.Finding, 0)
	for rows.Next() {
		var (
			f                        model.Finding
			rule, severity, itemType string
		)
		if err := rows.Scan(&rule, &severity, &f.Message, &f.ProposedName, &f.Actionable,
			&f.Row.Line, &f.Row.OwnerLogin, &f.Row.Path, &f.Row.Name, &f.Row.ItemID,
			&itemType, &f.Row.SizeText, &f.Row.Missing); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan finding: %w", err)
		}
		f.Rule = model.RuleKind(rule)
		f.Severity = model.Severity(severity)
		f.Row.ItemType = model.ItemType(itemType)
		findings = append(findings, f)
	}

	return findings, model.NewMeta(page, limit, total), rows.Err()
}
