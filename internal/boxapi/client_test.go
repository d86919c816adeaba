package boxapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-migration-audit/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, "dev-token", WithTimeout(5*time.Second))
	require.NoError(t, err)
	return client
}

func TestGetItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/folders/42", r.URL.Path)
		assert.Equal(t, "id,name,type", r.URL.Query().Get("fields"))
		assert.Equal(t, "Bearer dev-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","type":"folder","name":"~Team"}`))
	})

	item, err := client.GetItem(context.Background(), model.ItemTypeFolder, "42")
	require.NoError(t, err)
	assert.Equal(t, Item{ID: "42", Type: "folder", Name: "~Team"}, item)
}

func TestRenameItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/files/1001", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Plan .docx"}, body)

		_, _ = w.Write([]byte(`{"id":"1001","type":"file","name":"Plan .docx"}`))
	})

	item, err := client.RenameItem(context.Background(), model.ItemTypeFile, "1001", "Plan .docx", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "Plan .docx", item.Name)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		retryAfter    string
		wantTemporary bool
		wantSentinel  error
		wantCode      string
	}{
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"type":"error","status":404,"code":"not_found","message":"Not Found","request_id":"abc"}`,
			wantSentinel: model.ErrItemNotFound,
			wantCode:     "not_found",
		},
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			body:          `{"code":"rate_limit_exceeded","message":"slow down"}`,
			retryAfter:    "3",
			wantTemporary: true,
			wantCode:      "rate_limit_exceeded",
		},
		{
			name:          "server error with plain body",
			status:        http.StatusBadGateway,
			body:          "upstream unavailable",
			wantTemporary: true,
		},
		{
			name:         "name conflict",
			status:       http.StatusConflict,
			body:         `{"code":"item_name_in_use","message":"Item with the same name already exists"}`,
			wantCode:     "item_name_in_use",
			wantSentinel: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetItem(context.Background(), model.ItemTypeFile, "7")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
			assert.Equal(t, tt.wantTemporary, apiErr.Temporary())
			if tt.wantSentinel != nil {
				assert.ErrorIs(t, err, tt.wantSentinel)
			}
			if tt.retryAfter != "" {
				assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
			}
		})
	}
}

func TestItemURLValidation(t *testing.T) {
	client, err := New("https://api.example.test/2.0/", "token")
	require.NoError(t, err)

	_, err = client.GetItem(context.Background(), model.ItemTypeUnknown, "1")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = client.RenameItem(context.Background(), model.ItemTypeFile, "  ", "x", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestNewValidation(t *testing.T) {
	_, err := New("not a url", "token")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = New("", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	client, err := New("", "token")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}
