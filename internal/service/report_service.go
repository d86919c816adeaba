package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"go-migration-audit/internal/model"
	"go-migration-audit/pkg/apierror"
)

// RunReader is the read side of a run store.
type RunReader interface {
	GetRun(ctx context.Context, runID string) (model.AuditRun, error)
	ListRuns(ctx context.Context, query model.RunQuery) ([]model.AuditRun, model.Meta, error)
	ListFindings(ctx context.Context, query model.FindingQuery) ([]model.Finding, model.Meta, error)
	ListRenames(ctx context.Context, query model.RenameQuery) ([]model.RenameResult, model.Meta, error)
}

var (
	knownRunStatuses = map[string]struct{}{
		string(model.RunStatusRunning):   {},
		string(model.RunStatusCompleted): {},
		string(model.RunStatusPartial):   {},
		string(model.RunStatusFailed):    {},
	}
	knownRules = map[string]struct{}{
		string(model.RuleForbiddenCharacters):  {},
		string(model.RuleReservedToken):        {},
		string(model.RuleLeadingTilde):         {},
		string(model.RulePathTooLong):          {},
		string(model.RuleOversizedFile):        {},
		string(model.RuleMalformedInput):       {},
		string(model.RuleQualityMarkerSkipped): {},
		string(model.RuleNotActionable):        {},
		string(model.RuleUnknownItemType):      {},
	}
	knownSeverities = map[string]struct{}{
		string(model.SeverityWarn):  {},
		string(model.SeverityError): {},
	}
	knownRenameStatuses = map[string]struct{}{
		string(model.RenameStatusDryRun):    {},
		string(model.RenameStatusRenamed):   {},
		string(model.RenameStatusUnchanged): {},
		string(model.RenameStatusDuplicate): {},
		string(model.RenameStatusFailed):    {},
	}
)

type ReportService struct {
	reader RunReader
}

func NewReportService(reader RunReader) *ReportService {
	return &ReportService{reader: reader}
}

func (s *ReportService) GetRun(ctx context.Context, runID string) (model.AuditRun, error) {
	runID, err := normalizeRunID(runID)
	if err != nil {
		return model.AuditRun{}, err
	}

	run, err := s.reader.GetRun(ctx, runID)
	if errors.Is(err, model.ErrRunNotFound) {
		return model.AuditRun{}, apierror.NotFound("audit run not found", runID)
	}
	return run, err
}

func (s *ReportService) ListRuns(ctx context.Context, query model.RunQuery) (model.RunListData, model.Meta, error) {
	status, err := normalizeFilter(query.Status, knownRunStatuses, "status")
	if err != nil {
		return model.RunListData{}, model.Meta{}, err
	}
	query.Status = status

	runs, meta, err := s.reader.ListRuns(ctx, query)
	if err != nil {
		return model.RunListData{}, model.Meta{}, err
	}
	return model.RunListData{Items: runs}, meta, nil
}

func (s *ReportService) ListFindings(ctx context.Context, query model.FindingQuery) (model.FindingListData, model.Meta, error) {
	run, err := s.GetRun(ctx, query.RunID)
	if err != nil {
		return model.FindingListData{}, model.Meta{}, err
	}
	query.RunID = run.RunID

	if query.Rule, err = normalizeFilter(query.Rule, knownRules, "rule"); err != nil {
		return model.FindingListData{}, model.Meta{}, err
	}
	if query.Severity, err = normalizeFilter(query.Severity, knownSeverities, "severity"); err != nil {
		return model.FindingListData{}, model.Meta{}, err
	}

	findings, meta, err := s.reader.ListFindings(ctx, query)
	if err != nil {
		return model.FindingListData{}, model.Meta{}, err
	}
	return model.FindingListData{RunID: run.RunID, Items: findings}, meta, nil
}

func (s *ReportService) ListRenames(ctx context.Context, query model.RenameQuery) (model.RenameListData, model.Meta, error) {
	run, err := s.GetRun(ctx, query.RunID)
	if err != nil {
		return model.RenameListData{}, model.Meta{}, err
	}
	query.RunID = run.RunID

	if query.Status, err = normalizeFilter(query.Status, knownRenameStatuses, "status"); err != nil {
		return model.RenameListData{}, model.Meta{}, err
	}

	results, meta, err := s.reader.ListRenames(ctx, query)
	if err != nil {
		return model.RenameListData{}, model.Meta{}, err
	}
	return model.RenameListData{RunID: run.RunID, Items: results}, meta, nil
}

func normalizeRunID(raw string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apierror.BadRequest("run id must be a UUID", raw)
	}
	return parsed.String(), nil
}

func normalizeFilter(raw string, allowed map[string]struct{}, field string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", nil
	}
	if _, ok := allowed[value]; !ok {
		return "", apierror.BadRequest("unknown "+field+" filter", raw)
	}
	return value, nil
}
