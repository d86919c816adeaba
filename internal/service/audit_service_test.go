package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go-migration-audit/internal/boxapi"
	"go-migration-audit/internal/compliance"
	"go-migration-audit/internal/event"
	"go-migration-audit/internal/model"
)

const testOwner = "boxadmin@example.edu.au"

type memoryStore struct {
	mu       sync.Mutex
	runs     map[string]model.AuditRun
	findings []model.Finding
	renames  []model.RenameResult
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[string]model.AuditRun{}}
}

func (m *memoryStore) CreateRun(_ context.Context, run model.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

func (m *memoryStore) UpdateRun(_ context.Context, run model.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = run
	return nil
}

func (m *memoryStore) SaveFindings(_ context.Context, _ string, findings []model.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings = append(m.findings, findings...)
	return nil
}

func (m *memoryStore) SaveRenames(_ context.Context, _ string, results []model.RenameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renames = append(m.renames, results...)
	return nil
}

type rowSlice struct {
	rows []model.InventoryRow
	err  error
}

func (s *rowSlice) Next() (model.InventoryRow, error) {
	if len(s.rows) == 0 {
		if s.err != nil {
			return model.InventoryRow{}, s.err
		}
		return model.InventoryRow{}, io.EOF
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row, nil
}

func auditRow(line int, id string, name string) model.InventoryRow {
	return model.InventoryRow{
		OwnerLogin: testOwner,
		Path:       "/Research/Team",
		Name:       name,
		ItemID:     id,
		ItemType:   model.ItemTypeFile,
		SizeText:   "0.5 GB",
		Line:       line,
	}
}

func newTestAuditService(t *testing.T, mode model.Mode, client ItemClient, store RunStore) *AuditService {
	t.Helper()

	policy := compliance.DefaultPolicy()
	policy.AuthorizedOwners = []string{testOwner}
	evaluator, err := compliance.NewEvaluator(policy, mode)
	require.NoError(t, err)

	var renamer *RenameService
	if client != nil {
		renamer = newTestRenameService(t, client, mode)
	}

	svc, err := NewAuditService(evaluator, renamer, store, nil, discardLogger())
	require.NoError(t, err)
	svc.flushSize = 2
	return svc
}

func TestAuditService_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("offline run records findings only", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuditService(t, model.ModeDryRun, nil, store)

		run, err := svc.Run(context.Background(), "inventory.xlsx", &rowSlice{rows: []model.InventoryRow{
			auditRow(2, "1", "Plan?.docx"),
			auditRow(3, "2", "clean.txt"),
			auditRow(4, "3", "notes_vti_.txt"),
		}})
		require.NoError(t, err)

		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, model.ModeDryRun, run.Mode)
		assert.Equal(t, "inventory.xlsx", run.Source)
		assert.Equal(t, 3, run.Rows)
		assert.Equal(t, 2, run.Findings)
		assert.Equal(t, 2, run.Intents)
		assert.Equal(t, 0, run.RenamesOK)
		assert.NotEmpty(t, run.FinishedAt)

		assert.Len(t, store.findings, 2)
		assert.Empty(t, store.renames)
		assert.Equal(t, run, store.runs[run.RunID])
	})

	t.Run("apply run with some failed renames is partial", func(t *testing.T) {
		client := new(boxapi.MockClient)
		client.On("GetItem", mock.Anything, model.ItemTypeFile, "1").Return(boxapi.Item{ID: "1", Name: "Plan?.docx"}, nil)
		client.On("RenameItem", mock.Anything, model.ItemTypeFile, "1", "Plan .docx", mock.Anything).Return(boxapi.Item{ID: "1", Name: "Plan .docx"}, nil)
		client.On("GetItem", mock.Anything, model.ItemTypeFile, "2").
			Return(boxapi.Item{}, &boxapi.Error{StatusCode: http.StatusNotFound, Message: "Not Found"})

		store := newMemoryStore()
		svc := newTestAuditService(t, model.ModeApply, client, store)

		run, err := svc.Run(context.Background(), "inventory.csv", &rowSlice{rows: []model.InventoryRow{
			auditRow(2, "1", "Plan?.docx"),
			auditRow(3, "2", "Old|draft.txt"),
		}})
		require.NoError(t, err)

		assert.Equal(t, model.RunStatusPartial, run.Status)
		assert.Equal(t, model.ModeApply, run.Mode)
		assert.Equal(t, 1, run.RenamesOK)
		assert.Equal(t, 1, run.RenamesFailed)
		assert.Len(t, store.renames, 2)
		client.AssertExpectations(t)
	})

	t.Run("every rename failing fails the run", func(t *testing.T) {
		client := new(boxapi.MockClient)
		client.On("GetItem", mock.Anything, model.ItemTypeFile, "1").
			Return(boxapi.Item{}, &boxapi.Error{StatusCode: http.StatusForbidden, Message: "denied"})

		store := newMemoryStore()
		svc := newTestAuditService(t, model.ModeApply, client, store)

		run, err := svc.Run(context.Background(), "inventory.csv", &rowSlice{rows: []model.InventoryRow{
			auditRow(2, "1", "Plan?.docx"),
		}})
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.NotEmpty(t, run.FailureMessage)
	})

	t.Run("source failure fails the run", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuditService(t, model.ModeDryRun, nil, store)

		broken := errors.New("zip: not a valid zip file")
		run, err := svc.Run(context.Background(), "broken.xlsx", &rowSlice{
			rows: []model.InventoryRow{auditRow(2, "1", "a?.txt")},
			err:  broken,
		})
		require.ErrorIs(t, err, broken)

		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.Equal(t, 1, run.Rows)
		assert.Contains(t, store.runs[run.RunID].FailureMessage, "not a valid zip file")
	})

	t.Run("cancelled run is recorded as failed", func(t *testing.T) {
		store := newMemoryStore()
		svc := newTestAuditService(t, model.ModeDryRun, nil, store)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run, err := svc.Run(ctx, "inventory.csv", &rowSlice{rows: []model.InventoryRow{auditRow(2, "1", "a?.txt")}})
		require.Error(t, err)
		assert.True(t, IsCancelled(err))
		assert.Equal(t, model.RunStatusFailed, store.runs[run.RunID].Status)
	})
}

func TestNewAuditService_Validation(t *testing.T) {
	_, err := NewAuditService(nil, nil, newMemoryStore(), nil, nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)

	evaluator, err := compliance.NewEvaluator(compliance.DefaultPolicy(), model.ModeDryRun)
	require.NoError(t, err)
	_, err = NewAuditService(evaluator, nil, nil, nil, nil)
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestAuditService_PublishesRunEvents(t *testing.T) {
	policy := compliance.DefaultPolicy()
	policy.AuthorizedOwners = []string{testOwner}
	evaluator, err := compliance.NewEvaluator(policy, model.ModeDryRun)
	require.NoError(t, err)

	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	svc, err := NewAuditService(evaluator, nil, newMemoryStore(), bus, discardLogger())
	require.NoError(t, err)

	run, err := svc.Run(context.Background(), "inventory.csv", &rowSlice{rows: []model.InventoryRow{
		auditRow(2, "1", "Plan?.docx"),
		auditRow(3, "2", "clean.txt"),
	}})
	require.NoError(t, err)

	var types []event.Type
	for len(events) > 0 {
		e := <-events
		assert.Equal(t, run.RunID, e.RunID)
		types = append(types, e.Type)
	}
	assert.Equal(t, []event.Type{event.TypeRunStarted, event.TypeRenameProposed, event.TypeRunFinished}, types)
}
