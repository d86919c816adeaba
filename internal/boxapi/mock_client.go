package boxapi

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-migration-audit/internal/model"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetItem(ctx context.Context, itemType model.ItemType, id string) (Item, error) {
	args := m.Called(ctx, itemType, id)
	return args.Get(0).(Item), args.Error(1)
}

func (m *MockClient) RenameItem(ctx context.Context, itemType model.ItemType, id string, name string, idempotencyKey string) (Item, error) {
	args := m.Called(ctx, itemType, id, name, idempotencyKey)
	return args.Get(0).(Item), args.Error(1)
}
