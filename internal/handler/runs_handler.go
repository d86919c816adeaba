package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-migration-audit/internal/model"
)

type reportService interface {
	GetRun(ctx context.Context, runID string) (model.AuditRun, error)
	ListRuns(ctx context.Context, query model.RunQuery) (model.RunListData, model.Meta, error)
	ListFindings(ctx context.Context, query model.FindingQuery) (model.FindingListData, model.Meta, error)
	ListRenames(ctx context.Context, query model.RenameQuery) (model.RenameListData, model.Meta, error)
}

type RunsHandler struct {
	service reportService
}

func NewRunsHandler(service reportService) *RunsHandler {
	return &RunsHandler{service: service}
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, meta, err := h.service.ListRuns(r.Context(), model.RunQuery{
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), chi.URLParam(r, "run_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, run, nil)
}

func (h *RunsHandler) Findings(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	query := r.URL.Query()
	data, meta, err := h.service.ListFindings(r.Context(), model.FindingQuery{
		RunID:    chi.URLParam(r, "run_id"),
		Rule:     query.Get("rule"),
		Severity: query.Get("severity"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}

func (h *RunsHandler) Renames(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, meta, err := h.service.ListRenames(r.Context(), model.RenameQuery{
		RunID:  chi.URLParam(r, "run_id"),
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, data, &meta)
}
