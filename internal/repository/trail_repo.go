package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-migration-audit/internal/model"
)

const (
	trailKindRun     = "run"
	trailKindFinding = "finding"
	trailKindRename  = "rename"
)

type trailEntry struct {
	Kind       string              `json:"kind"`
	RunID      string              `json:"run_id"`
	OccurredAt string              `json:"occurred_at"`
	Run        *model.AuditRun     `json:"run,omitempty"`
	Finding    *model.Finding      `json:"finding,omitempty"`
	Rename     *model.RenameResult `json:"rename,omitempty"`
}

// TrailRepository keeps the audit trail as one JSON object per line. Run
// updates are appended, the latest entry for a run wins on read.
type TrailRepository struct {
	filePath string
	mu       sync.Mutex
}

func NewTrailRepository(filePath string) (*TrailRepository, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare audit trail directory: %w", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte{}, 0o644); err != nil {
			return nil, fmt.Errorf("initialize audit trail file: %w", err)
		}
	}

	return &TrailRepository{filePath: filePath}, nil
}

func (r *TrailRepository) Path() string {
	return r.filePath
}

func (r *TrailRepository) CreateRun(ctx context.Context, run model.AuditRun) error {
	return r.append(ctx, trailEntry{Kind: trailKindRun, RunID: run.RunID, Run: &run})
}

func (r *TrailRepository) UpdateRun(ctx context.Context, run model.AuditRun) error {
	return r.append(ctx, trailEntry{Kind: trailKindRun, RunID: run.RunID, Run: &run})
}

func (r *TrailRepository) SaveFindings(ctx context.Context, runID string, findings []model.Finding) error {
	entries := make([]trailEntry, 0, len(findings))
	for i := range findings {
		entries = append(entries, trailEntry{Kind: trailKindFinding, RunID: runID, Finding: &findings[i]})
	}
	return r.append(ctx, entries...)
}

func (r *TrailRepository) SaveRenames(ctx context.Context, runID string, results []model.RenameResult) error {
	entries := make([]trailEntry, 0, len(results))
	for i := range results {
		entries = append(entries, trailEntry{Kind: trailKindRename, RunID: runID, Rename: &results[i]})
	}
	return r.append(ctx, entries...)
}

func (r *TrailRepository) append(ctx context.Context, entries ...trailEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var buf []byte
	for _, entry := range entries {
		entry.OccurredAt = now
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode %s entry: %w", entry.Kind, err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit trail: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("append audit trail: %w", err)
	}
	return nil
}

// scan calls fn for every well-formed entry of kind in file order.
func (r *TrailRepository) scan(ctx context.Context, kind string, fn func(trailEntry)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.filePath)
	if err != nil {
		return fmt.Errorf("open audit trail: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry trailEntry
		if unmarshalErr := json.Unmarshal([]byte(line), &entry); unmarshalErr != nil {
			continue
		}
		if entry.Kind != kind {
			continue
		}
		fn(entry)
	}

	return scanner.Err()
}

func (r *TrailRepository) GetRun(ctx context.Context, runID string) (model.AuditRun, error) {
	var (
		found bool
		run   model.AuditRun
	)
	err := r.scan(ctx, trailKindRun, func(entry trailEntry) {
		if entry.RunID == runID && entry.Run != nil {
			run = *entry.Run
			found = true
		}
	})
	if err != nil {
		return model.AuditRun{}, err
	}
	if !found {
		return model.AuditRun{}, model.ErrRunNotFound
	}
	return run, nil
}

func (r *TrailRepository) ListRuns(ctx context.Context, query model.RunQuery) ([]model.AuditRun, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 50, 200)
	status := strings.ToLower(strings.TrimSpace(query.Status))

	latest := map[string]model.AuditRun{}
	err := r.scan(ctx, trailKindRun, func(entry trailEntry) {
		if entry.Run != nil {
			latest[entry.RunID] = *entry.Run
		}
	})
	if err != nil {
		return nil, model.Meta{}, err
	}

	items := make([]model.AuditRun, 0, len(latest))
	for _, run := range latest {
		if status != "" && string(run.Status) != status {
			continue
		}
		items = append(items, run)
	}

	sort.SliceStable(items, func(i int, j int) bool {
		if items[i].StartedAt == items[j].StartedAt {
			return items[i].RunID < items[j].RunID
		}
		return items[i].StartedAt > items[j].StartedAt
	})

	return paginate(items, page, limit)
}

func (r *TrailRepository) ListFindings(ctx context.Context, query model.FindingQuery) ([]model.Finding, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 100, 500)
	rule := strings.ToLower(strings.TrimSpace(query.Rule))
	severity := strings.ToLower(strings.TrimSpace(query.Severity))

	items := make([]model.Finding, 0, 128)
	err := r.scan(ctx, trailKindFinding, func(entry trailEntry) {
		if entry.RunID != query.RunID || entry.Finding == nil {
			return
		}
		if rule != "" && string(entry.Finding.Rule) != rule {
			return
		}
		if severity != "" && string(entry.Finding.Severity) != severity {
			return
		}
		items = append(items, *entry.Finding)
	})
	if err != nil {
		return nil, model.Meta{}, err
	}

	return paginate(items, page, limit)
}

func (r *TrailRepository) ListRenames(ctx context.Context, query model.RenameQuery) ([]model.RenameResult, model.Meta, error) {
	page, limit := model.NormalizePage(query.Page, query.Limit, 100, 500)
	status := strings.ToLower(strings.TrimSpace(query.Status))

	items := make([]model.RenameResult, 0, 64)
	err := r.scan(ctx, trailKindRename, func(entry trailEntry) {
		if entry.RunID != query.RunID || entry.Rename == nil {
			return
		}
		if status != "" && string(entry.Rename.Status) != status {
			return
		}
		items = append(items, *entry.Rename)
	})
	if err != nil {
		return nil, model.Meta{}, err
	}

	return paginate(items, page, limit)
}

func paginate[T any](items []T, pageNum int, limit int) ([]T, model.Meta, error) {
	total := len(items)
	start := (pageNum - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	out := make([]T, 0, end-start)
	return append(out, items[start:end]...), model.NewMeta(pageNum, limit, total), nil
}
