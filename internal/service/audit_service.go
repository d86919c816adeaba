package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-migration-audit/internal/compliance"
	"go-migration-audit/internal/event"
	"go-migration-audit/internal/model"
)

const defaultFlushSize = 500

// RunStore persists audit runs together with their findings and rename
// results. Implementations must be safe for concurrent use.
type RunStore interface {
	CreateRun(ctx context.Context, run model.AuditRun) error
	UpdateRun(ctx context.Context, run model.AuditRun) error
	SaveFindings(ctx context.Context, runID string, findings []model.Finding) error
	SaveRenames(ctx context.Context, runID string, results []model.RenameResult) error
}

type AuditService struct {
	evaluator *compliance.Evaluator
	renamer   *RenameService
	store     RunStore
	logger    *slog.Logger
	bus       event.Bus
	flushSize int
}

// NewAuditService wires an evaluator to a store. With a nil renamer the run
// is offline: intents are logged and counted but no remote call is made.
// bus may be nil.
func NewAuditService(evaluator *compliance.Evaluator, renamer *RenameService, store RunStore, bus event.Bus, logger *slog.Logger) (*AuditService, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", model.ErrInvalidInput)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: run store is required", model.ErrInvalidInput)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditService{
		evaluator: evaluator,
		renamer:   renamer,
		store:     store,
		logger:    logger,
		bus:       bus,
		flushSize: defaultFlushSize,
	}, nil
}

func (s *AuditService) mode() model.Mode {
	if s.renamer == nil {
		return model.ModeDryRun
	}
	return s.renamer.Mode()
}

// Run audits every row of rows and returns the finished run. The returned
// error is non-nil only when the run could not complete; rule violations and
// failed renames are reported through the run record instead.
func (s *AuditService) Run(ctx context.Context, source string, rows compliance.RowSource) (model.AuditRun, error) {
	run := model.AuditRun{
		RunID:     uuid.NewString(),
		Source:    source,
		Mode:      s.mode(),
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return run, fmt.Errorf("create audit run: %w", err)
	}

	logger := s.logger.With("run_id", run.RunID)
	logger.Info("audit started", "source", source, "mode", run.Mode, "remote", s.renamer != nil)
	s.publish(event.TypeRunStarted, run.RunID, run)

	intents := make(chan model.RenameIntent, 64)
	group, groupCtx := errgroup.WithContext(ctx)

	sink := &runSink{
		ctx:       groupCtx,
		logger:    logger,
		store:     s.store,
		runID:     run.RunID,
		intents:   intents,
		flushSize: s.flushSize,
	}
	tally := &renameTally{ctx: groupCtx, store: s.store, runID: run.RunID, flushSize: s.flushSize}

	var summary compliance.Summary
	group.Go(func() error {
		defer close(intents)

		var err error
		summary, err = s.evaluator.Run(groupCtx, rows, sink)
		if err != nil {
			return err
		}
		return sink.flush(groupCtx)
	})

	group.Go(func() error {
		if s.renamer == nil {
			for intent := range intents {
				logger.Info("rename proposed", "item_id", intent.ItemID, "line", intent.Line,
					"current_name", intent.CurrentName, "proposed_name", intent.ProposedName)
				s.publish(event.TypeRenameProposed, run.RunID, intent)
			}
			return nil
		}

		onResult := func(result model.RenameResult) {
			tally.add(result)
			s.publish(event.TypeRenameCompleted, run.RunID, result)
		}
		if err := s.renamer.Execute(groupCtx, intents, onResult); err != nil {
			return err
		}
		return tally.flush(groupCtx)
	})

	runErr := group.Wait()
	if runErr == nil {
		runErr = sink.failure()
	}
	if runErr == nil {
		runErr = tally.failure()
	}

	s.finalize(&run, summary, tally, runErr)

	if err := s.store.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("failed to record audit run", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("update audit run: %w", err)
		}
	}

	s.publish(event.TypeRunFinished, run.RunID, run)

	attrs := []any{
		"status", run.Status, "rows", run.Rows, "findings", run.Findings,
		"warnings", run.Warnings, "errors", run.Errors, "intents", run.Intents,
		"renames_ok", run.RenamesOK, "renames_failed", run.RenamesFailed,
	}
	if runErr != nil {
		logger.Error("audit failed", append(attrs, "error", runErr)...)
		return run, runErr
	}
	logger.Info("audit finished", attrs...)
	return run, nil
}

func (s *AuditService) publish(eventType event.Type, runID string, payload any) {
	if s.bus != nil {
		s.bus.Publish(event.New(eventType, runID, payload))
	}
}

func (s *AuditService) finalize(run *model.AuditRun, summary compliance.Summary, tally *renameTally, runErr error) {
	run.Rows = summary.Rows
	run.Findings = summary.Findings
	run.Warnings = summary.Warnings
	run.Errors = summary.Errors
	run.Intents = summary.Intents
	run.Excluded = summary.Excluded
	run.RenamesOK, run.RenamesFailed = tally.counts()
	run.FinishedAt = time.Now().UTC().Format(time.RFC3339Nano)

	switch {
	case runErr != nil:
		run.Status = model.RunStatusFailed
		run.FailureMessage = runErr.Error()
	case run.RenamesOK == 0 && run.RenamesFailed > 0:
		run.Status = model.RunStatusFailed
		run.FailureMessage = "every rename failed"
	case run.RenamesOK > 0 && run.RenamesFailed > 0:
		run.Status = model.RunStatusPartial
	default:
		run.Status = model.RunStatusCompleted
	}
}

// runSink logs findings, buffers them for the store and forwards intents to
// the executor. The evaluator calls it from a single goroutine.
type runSink struct {
	ctx       context.Context
	logger    *slog.Logger
	store     RunStore
	runID     string
	intents   chan<- model.RenameIntent
	flushSize int

	pending []model.Finding
	err     error
}

func (r *runSink) Finding(finding model.Finding) {
	level := slog.LevelWarn
	if finding.Severity == model.SeverityError {
		level = slog.LevelError
	}

	attrs := []any{
		"rule", finding.Rule,
		"line", finding.Row.Line,
		"owner", finding.Row.OwnerLogin,
		"path", finding.Row.Path,
		"name", finding.Row.Name,
		"item_id", finding.Row.ItemID,
	}
	if finding.ProposedName != "" {
		attrs = append(attrs, "proposed_name", finding.ProposedName, "actionable", finding.Actionable)
	}
	r.logger.Log(r.ctx, level, finding.Message, attrs...)

	r.pending = append(r.pending, finding)
	if len(r.pending) >= r.flushSize {
		r.record(r.flush(r.ctx))
	}
}

func (r *runSink) Intent(intent model.RenameIntent) {
	select {
	case r.intents <- intent:
	case <-r.ctx.Done():
	}
}

func (r *runSink) flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	err := r.store.SaveFindings(ctx, r.runID, r.pending)
	r.pending = nil
	if err != nil {
		return fmt.Errorf("save findings: %w", err)
	}
	return nil
}

func (r *runSink) record(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func (r *runSink) failure() error {
	return r.err
}

// renameTally counts rename outcomes and batches them into the store.
type renameTally struct {
	ctx       context.Context
	store     RunStore
	runID     string
	flushSize int

	mu      sync.Mutex
	pending []model.RenameResult
	ok      int
	failed  int
	err     error
}

func (t *renameTally) add(result model.RenameResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch result.Status {
	case model.RenameStatusFailed:
		t.failed++
	case model.RenameStatusDuplicate:
	default:
		t.ok++
	}

	t.pending = append(t.pending, result)
	if len(t.pending) >= t.flushSize {
		t.flushLocked(t.ctx)
	}
}

func (t *renameTally) flush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushLocked(ctx)
	return t.err
}

func (t *renameTally) flushLocked(ctx context.Context) {
	if len(t.pending) == 0 {
		return
	}
	err := t.store.SaveRenames(ctx, t.runID, t.pending)
	t.pending = nil
	if err != nil && t.err == nil {
		t.err = fmt.Errorf("save rename results: %w", err)
	}
}

func (t *renameTally) counts() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ok, t.failed
}

func (t *renameTally) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// IsCancelled reports whether err came from the run being interrupted.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
