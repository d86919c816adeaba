package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-migration-audit/internal/handler"
	"go-migration-audit/internal/middleware"
	"go-migration-audit/internal/model"
	"go-migration-audit/internal/repository"
	"go-migration-audit/internal/service"
)

type reportFixture struct {
	server *httptest.Server
	token  string
	runID  string
}

func newReportFixture(t *testing.T) reportFixture {
	t.Helper()
	ctx := context.Background()

	trail, err := repository.NewTrailRepository(filepath.Join(t.TempDir(), "trail.jsonl"))
	require.NoError(t, err)

	runID := uuid.NewString()
	require.NoError(t, trail.CreateRun(ctx, model.AuditRun{RunID: runID, Status: model.RunStatusPartial, StartedAt: "2026-05-01T08:00:00Z"}))
	require.NoError(t, trail.SaveFindings(ctx, runID, []model.Finding{
		{Rule: model.RuleForbiddenCharacters, Severity: model.SeverityWarn, Row: model.InventoryRow{Line: 2, Name: "a?.txt"}},
		{Rule: model.RuleNotActionable, Severity: model.SeverityError, Row: model.InventoryRow{Line: 3, Name: "b|c.txt"}},
	}))

	tokens, err := service.NewTokenService("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue("ops", service.RoleAuditor)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(Options{RateLimitRPM: 1000, RequestTimeout: 5 * time.Second}, logger,
		middleware.NewAuthMiddleware(tokens),
		Handlers{
			Runs:   handler.NewRunsHandler(service.NewReportService(trail)),
			Health: handler.NewHealthHandler(nil),
		})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return reportFixture{server: server, token: token.AccessToken, runID: runID}
}

func (f reportFixture) get(t *testing.T, path string, authorized bool) (int, model.APIResponse) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body model.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestRouter(t *testing.T) {
	f := newReportFixture(t)

	status, body := f.get(t, "/health", false)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	status, body = f.get(t, "/api/v1/runs", false)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	status, body = f.get(t, "/api/v1/runs", true)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 1, body.Meta.Total)

	status, body = f.get(t, "/api/v1/runs/"+f.runID+"/findings?severity=error", true)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Meta.Total)

	status, body = f.get(t, "/api/v1/runs/"+f.runID+"/findings?page=abc", true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)

	status, body = f.get(t, "/api/v1/runs/"+uuid.NewString(), true)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	status, _ = f.get(t, "/api/v1/runs/"+f.runID+"/renames", true)
	assert.Equal(t, http.StatusOK, status)
}
