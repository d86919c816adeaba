package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-migration-audit/internal/model"
)

func newTestTrail(t *testing.T) *TrailRepository {
	t.Helper()

	repo, err := NewTrailRepository(filepath.Join(t.TempDir(), "state", "audit-trail.jsonl"))
	require.NoError(t, err)
	return repo
}

func TestTrailRepository_Runs(t *testing.T) {
	ctx := context.Background()
	repo := newTestTrail(t)

	first := model.AuditRun{RunID: "run-1", Source: "a.xlsx", Mode: model.ModeDryRun, Status: model.RunStatusRunning, StartedAt: "2026-01-01T10:00:00Z"}
	second := model.AuditRun{RunID: "run-2", Source: "b.csv", Mode: model.ModeApply, Status: model.RunStatusRunning, StartedAt: "2026-01-02T10:00:00Z"}
	require.NoError(t, repo.CreateRun(ctx, first))
	require.NoError(t, repo.CreateRun(ctx, second))

	first.Status = model.RunStatusCompleted
	first.Rows = 12
	require.NoError(t, repo.UpdateRun(ctx, first))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	assert.Equal(t, 12, got.Rows)

	_, err = repo.GetRun(ctx, "missing")
	require.ErrorIs(t, err, model.ErrRunNotFound)

	runs, meta, err := repo.ListRuns(ctx, model.RunQuery{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 2, meta.Total)

	runs, _, err = repo.ListRuns(ctx, model.RunQuery{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].RunID)
}

func TestTrailRepository_FindingsAndRenames(t *testing.T) {
	ctx := context.Background()
	repo := newTestTrail(t)

	findings := []model.Finding{
		{Rule: model.RuleForbiddenCharacters, Severity: model.SeverityWarn, Row: model.InventoryRow{Line: 2, Name: "a?.txt"}},
		{Rule: model.RuleNotActionable, Severity: model.SeverityError, Row: model.InventoryRow{Line: 2, Name: "a?.txt"}},
		{Rule: model.RulePathTooLong, Severity: model.SeverityError, Row: model.InventoryRow{Line: 3}},
	}
	require.NoError(t, repo.SaveFindings(ctx, "run-1", findings))
	require.NoError(t, repo.SaveFindings(ctx, "run-2", findings[:1]))

	got, meta, err := repo.ListFindings(ctx, model.FindingQuery{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, findings, got)
	assert.Equal(t, 3, meta.Total)

	got, _, err = repo.ListFindings(ctx, model.FindingQuery{RunID: "run-1", Severity: "ERROR"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, meta, err = repo.ListFindings(ctx, model.FindingQuery{RunID: "run-1", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.RulePathTooLong, got[0].Rule)
	assert.Equal(t, 2, meta.TotalPages)

	results := []model.RenameResult{
		{Intent: model.RenameIntent{ItemID: "1", ProposedName: "a .txt"}, Status: model.RenameStatusRenamed, Attempts: 2},
		{Intent: model.RenameIntent{ItemID: "2", ProposedName: "b .txt"}, Status: model.RenameStatusFailed, Reason: "boom"},
	}
	require.NoError(t, repo.SaveRenames(ctx, "run-1", results))

	renames, _, err := repo.ListRenames(ctx, model.RenameQuery{RunID: "run-1", Status: "failed"})
	require.NoError(t, err)
	require.Len(t, renames, 1)
	assert.Equal(t, "boom", renames[0].Reason)

	empty, meta, err := repo.ListRenames(ctx, model.RenameQuery{RunID: "run-9"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Equal(t, 0, meta.Total)
}

func TestTrailRepository_SkipsCorruptLines(t *testing.T) {
	ctx := context.Background()
	repo := newTestTrail(t)

	require.NoError(t, repo.CreateRun(ctx, model.AuditRun{RunID: "run-1", StartedAt: "2026-01-01T10:00:00Z"}))

	f, err := os.OpenFile(repo.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	run, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.RunID)
}
