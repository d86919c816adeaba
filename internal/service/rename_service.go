package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go-migration-audit/internal/boxapi"
	"go-migration-audit/internal/model"
)

// ItemClient reads and renames remote items.
type ItemClient interface {
	GetItem(ctx context.Context, itemType model.ItemType, id string) (boxapi.Item, error)
	RenameItem(ctx context.Context, itemType model.ItemType, id string, name string, idempotencyKey string) (boxapi.Item, error)
}

type RenameOptions struct {
	Mode          model.Mode
	Concurrency   int
	RatePerSecond float64
	Burst         int
	MaxAttempts   int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
}

func DefaultRenameOptions() RenameOptions {
	return RenameOptions{
		Mode:          model.ModeDryRun,
		Concurrency:   4,
		RatePerSecond: 10,
		Burst:         1,
		MaxAttempts:   3,
		BaseBackoff:   500 * time.Millisecond,
		MaxBackoff:    10 * time.Second,
	}
}

type RenameService struct {
	client  ItemClient
	opts    RenameOptions
	limiter *rate.Limiter
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewRenameService(client ItemClient, opts RenameOptions, logger *slog.Logger) (*RenameService, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: item client is required", model.ErrInvalidInput)
	}
	if opts.Mode != model.ModeDryRun && opts.Mode != model.ModeApply {
		return nil, fmt.Errorf("%w: mode must be %q or %q", model.ErrInvalidInput, model.ModeDryRun, model.ModeApply)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &RenameService{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, opts.Burst),
		logger:  logger.With("component", "rename"),
		sleep:   sleepContext,
	}, nil
}

func (s *RenameService) Mode() model.Mode {
	return s.opts.Mode
}

// Execute processes intents until the channel is closed and reports one
// result per intent through onResult. A failed intent never affects the
// others; Execute only returns an error when ctx ends first.
func (s *RenameService) Execute(ctx context.Context, intents <-chan model.RenameIntent, onResult func(model.RenameResult)) error {
	var (
		group errgroup.Group
		mu    sync.Mutex
		seen  = map[string]struct{}{}
	)
	group.SetLimit(s.opts.Concurrency)

	emit := func(result model.RenameResult) {
		s.log(result)
		if onResult == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onResult(result)
	}

	for {
		select {
		case <-ctx.Done():
			_ = group.Wait()
			return ctx.Err()
		case intent, ok := <-intents:
			if !ok {
				return group.Wait()
			}

			key := intent.Key()
			if _, duplicate := seen[key]; duplicate {
				emit(finished(model.RenameResult{
					Intent: intent,
					Status: model.RenameStatusDuplicate,
					Reason: "same rename already scheduled in this run",
				}))
				continue
			}
			seen[key] = struct{}{}

			group.Go(func() error {
				emit(s.process(ctx, intent))
				return nil
			})
		}
	}
}

func (s *RenameService) process(ctx context.Context, intent model.RenameIntent) model.RenameResult {
	result := model.RenameResult{Intent: intent}

	current, attempts, err := s.call(ctx, func(ctx context.Context) (boxapi.Item, error) {
		return s.client.GetItem(ctx, intent.ItemType, intent.ItemID)
	})
	result.Attempts += attempts
	if err != nil {
		result.Status = model.RenameStatusFailed
		result.Reason = fmt.Sprintf("fetch item: %v", err)
		return finished(result)
	}
	result.PreviousName = current.Name

	if current.Name == intent.ProposedName {
		result.Status = model.RenameStatusUnchanged
		return finished(result)
	}

	if s.opts.Mode == model.ModeDryRun {
		result.Status = model.RenameStatusDryRun
		return finished(result)
	}

	_, attempts, err = s.call(ctx, func(ctx context.Context) (boxapi.Item, error) {
		return s.client.RenameItem(ctx, intent.ItemType, intent.ItemID, intent.ProposedName, intent.Key())
	})
	result.Attempts += attempts
	if err != nil {
		result.Status = model.RenameStatusFailed
		result.Reason = fmt.Sprintf("rename item: %v", err)
		return finished(result)
	}

	result.Status = model.RenameStatusRenamed
	return finished(result)
}

// call runs fn under the rate limiter, retrying transient failures with
// exponential backoff. It returns the number of attempts made.
func (s *RenameService) call(ctx context.Context, fn func(context.Context) (boxapi.Item, error)) (boxapi.Item, int, error) {
	attempt := 0
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return boxapi.Item{}, attempt, err
		}
		attempt++

		item, err := fn(ctx)
		if err == nil {
			return item, attempt, nil
		}
		if attempt >= s.opts.MaxAttempts || !retryable(ctx, err) {
			return boxapi.Item{}, attempt, err
		}

		if sleepErr := s.sleep(ctx, s.backoff(attempt, err)); sleepErr != nil {
			return boxapi.Item{}, attempt, err
		}
	}
}

func (s *RenameService) backoff(attempt int, err error) time.Duration {
	delay := s.opts.BaseBackoff << (attempt - 1)
	if s.opts.MaxBackoff > 0 && (delay > s.opts.MaxBackoff || delay <= 0) {
		delay = s.opts.MaxBackoff
	}

	var apiErr *boxapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > delay {
		delay = apiErr.RetryAfter
	}
	return delay
}

func (s *RenameService) log(result model.RenameResult) {
	attrs := []any{
		"item_id", result.Intent.ItemID,
		"item_type", result.Intent.ItemType,
		"line", result.Intent.Line,
		"proposed_name", result.Intent.ProposedName,
		"status", result.Status,
	}
	if result.PreviousName != "" {
		attrs = append(attrs, "current_name", result.PreviousName)
	}

	switch result.Status {
	case model.RenameStatusFailed:
		s.logger.Error("rename failed", append(attrs, "attempts", result.Attempts, "reason", result.Reason)...)
	case model.RenameStatusDuplicate:
		s.logger.Warn("duplicate rename skipped", attrs...)
	case model.RenameStatusDryRun:
		s.logger.Info("rename planned", attrs...)
	case model.RenameStatusUnchanged:
		s.logger.Info("item already compliant", attrs...)
	default:
		s.logger.Info("item renamed", attrs...)
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *boxapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func finished(result model.RenameResult) model.RenameResult {
	result.FinishedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
