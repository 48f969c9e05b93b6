package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-filesearch-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOperationName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", "abc123", "operations/abc123"},
		{"already prefixed", "operations/abc123", "operations/abc123"},
		{"full store path", "fileSearchStores/s1/upload/operations/abc", "fileSearchStores/s1/upload/operations/abc"},
		{"contains operations segment", "projects/p/operations/abc", "projects/p/operations/abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOperationName(tt.in))
		})
	}
}

func TestGetOperation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operations/op1", r.URL.Path)
		w.Write([]byte(`{"done":true,"response":{"file":{"name":"files/f1","displayName":"doc.txt"}}}`))
	}))
	defer server.Close()

	op, err := newTestClient(server).GetOperation(context.Background(), "op1")
	require.NoError(t, err)
	// Server omitted the name; the normalized handle fills it.
	assert.Equal(t, "operations/op1", op.Name)
	assert.True(t, op.Done)
	require.NotNil(t, op.Response)
	assert.Equal(t, "doc.txt", op.Response.File.DisplayName)
}

func TestGetOperationNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server).GetOperation(context.Background(), "gone")

	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetOperationServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server).GetOperation(context.Background(), "op1")

	var remoteErr *apperror.RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusInternalServerError, remoteErr.StatusCode)
}
