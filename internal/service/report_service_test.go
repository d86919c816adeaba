package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-migration-audit/internal/model"
	"go-migration-audit/internal/repository"
	"go-migration-audit/pkg/apierror"
)

func newTestReportService(t *testing.T) (*ReportService, string) {
	t.Helper()
	ctx := context.Background()

	trail, err := repository.NewTrailRepository(filepath.Join(t.TempDir(), "trail.jsonl"))
	require.NoError(t, err)

	runID := uuid.NewString()
	require.NoError(t, trail.CreateRun(ctx, model.AuditRun{RunID: runID, Status: model.RunStatusCompleted, StartedAt: "2026-03-01T09:00:00Z"}))
	require.NoError(t, trail.SaveFindings(ctx, runID, []model.Finding{
		{Rule: model.RuleForbiddenCharacters, Severity: model.SeverityWarn},
		{Rule: model.RuleOversizedFile, Severity: model.SeverityError},
	}))
	require.NoError(t, trail.SaveRenames(ctx, runID, []model.RenameResult{
		{Intent: model.RenameIntent{ItemID: "1"}, Status: model.RenameStatusRenamed},
	}))

	return NewReportService(trail), runID
}

func TestReportService(t *testing.T) {
	ctx := context.Background()
	svc, runID := newTestReportService(t)

	run, err := svc.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)

	runs, meta, err := svc.ListRuns(ctx, model.RunQuery{Status: "Completed"})
	require.NoError(t, err)
	assert.Len(t, runs.Items, 1)
	assert.Equal(t, 1, meta.Total)

	findings, _, err := svc.ListFindings(ctx, model.FindingQuery{RunID: runID, Rule: "OVERSIZED_FILE"})
	require.NoError(t, err)
	require.Len(t, findings.Items, 1)
	assert.Equal(t, runID, findings.RunID)

	renames, _, err := svc.ListRenames(ctx, model.RenameQuery{RunID: runID})
	require.NoError(t, err)
	assert.Len(t, renames.Items, 1)
}

func TestReportService_Errors(t *testing.T) {
	ctx := context.Background()
	svc, runID := newTestReportService(t)

	tests := []struct {
		name     string
		call     func() error
		wantCode string
	}{
		{
			name:     "malformed run id",
			call:     func() error { _, err := svc.GetRun(ctx, "../etc"); return err },
			wantCode: "BAD_REQUEST",
		},
		{
			name:     "unknown run",
			call:     func() error { _, err := svc.GetRun(ctx, uuid.NewString()); return err },
			wantCode: "NOT_FOUND",
		},
		{
			name: "unknown rule filter",
			call: func() error {
				_, _, err := svc.ListFindings(ctx, model.FindingQuery{RunID: runID, Rule: "typo"})
				return err
			},
			wantCode: "BAD_REQUEST",
		},
		{
			name: "unknown rename status",
			call: func() error {
				_, _, err := svc.ListRenames(ctx, model.RenameQuery{RunID: runID, Status: "done"})
				return err
			},
			wantCode: "BAD_REQUEST",
		},
		{
			name: "unknown run status",
			call: func() error {
				_, _, err := svc.ListRuns(ctx, model.RunQuery{Status: "paused"})
				return err
			},
			wantCode: "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, ok := apierror.As(tt.call())
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}
