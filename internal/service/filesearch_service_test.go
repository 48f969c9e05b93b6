package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/repository/contract"
	"ai-filesearch-be/pkg/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileSearchFixture(t *testing.T, handler http.Handler) (IFileSearchService, *fakeTracker, *OperationPoller) {
	svc, tracker, poller, _ := newFileSearchFixtureWithHistory(t, handler)
	return svc, tracker, poller
}

func newFileSearchFixtureWithHistory(t *testing.T, handler http.Handler) (IFileSearchService, *fakeTracker, *OperationPoller, contract.IChatHistoryRepository) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := newTestGeminiClient(server)
	poller := NewOperationPoller(client, pollInterval, 0, nopLogger{})
	t.Cleanup(poller.Teardown)

	tracker := &fakeTracker{}
	historyRepo := newMemoryHistoryRepository()
	return NewFileSearchService(client, poller, historyRepo, tracker, nopLogger{}), tracker, poller, historyRepo
}

func TestAskRejectsInvalidInputBeforeNetwork(t *testing.T) {
	var hits int32
	svc, _, _ := newFileSearchFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))

	tests := []struct {
		name string
		req  dto.FileSearchChatRequest
	}{
		{"empty message", dto.FileSearchChatRequest{Message: "   ", StoreNames: []string{"fileSearchStores/a"}}},
		{"message too long", dto.FileSearchChatRequest{Message: strings.Repeat("x", 1001), StoreNames: []string{"fileSearchStores/a"}}},
		{"no stores", dto.FileSearchChatRequest{Message: "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ask(context.Background(), &tt.req)
			var valErr *apperror.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestAskReturnsAnswerWithCitations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a","displayName":"Docs"}`))
	})
	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"candidates":[{
				"content":{"parts":[{"text":"Grounded answer"}]},
				"groundingMetadata":{"supportAttributions":[
					{"source":{"uri":"files/x","title":"Doc X"},"chunk":{"chunkText":"passage"}},
					{"source":{"fileUri":"files/y"}}
				]}
			}],
			"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8,"totalTokenCount":20}
		}`))
	})

	svc, tracker, _ := newFileSearchFixture(t, mux)

	res, err := svc.Ask(context.Background(), &dto.FileSearchChatRequest{
		Message:    "what do the docs say?",
		StoreNames: []string{"fileSearchStores/a"},
		History: []dto.ChatTurnDTO{
			{Sender: "user", Text: "earlier question"},
			{Sender: "bot", Text: "earlier answer"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Grounded answer", res.Response)
	assert.Equal(t, 20, res.TokenCount)
	assert.Equal(t, 12, res.Usage.PromptTokens)
	require.Len(t, res.Citations, 2)
	assert.Equal(t, 1, res.Citations[0].Index)
	assert.Equal(t, "files/x", res.Citations[0].Source)
	assert.Equal(t, 2, res.Citations[1].Index)
	assert.Equal(t, "files/y", res.Citations[1].Source)
	assert.Equal(t, "Document", res.Citations[1].Title)
	assert.False(t, res.Timestamp.IsZero())

	assert.Contains(t, tracker.tracked(), "File Search Chat")
}

func TestAskProceedsWhenStoreVerificationFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/ghost", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"still answered"}]}}]}`))
	})

	svc, _, _ := newFileSearchFixture(t, mux)

	res, err := svc.Ask(context.Background(), &dto.FileSearchChatRequest{
		Message:    "hello",
		StoreNames: []string{"fileSearchStores/ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, "still answered", res.Response)
}

func TestAskPersistsTurnsWithCitations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a"}`))
	})
	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"candidates":[{
				"content":{"parts":[{"text":"cited answer"}]},
				"groundingMetadata":{"supportAttributions":[
					{"source":{"uri":"files/x","title":"Doc X"},"chunk":{"chunkText":"passage"}}
				]}
			}]
		}`))
	})

	svc, _, _, historyRepo := newFileSearchFixtureWithHistory(t, mux)
	ctx := context.Background()

	_, err := svc.Ask(ctx, &dto.FileSearchChatRequest{
		Message:    "what do the docs say?",
		StoreNames: []string{"fileSearchStores/a"},
		SessionId:  "session-1",
	})
	require.NoError(t, err)

	turns, err := historyRepo.Get(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, gemini.RoleUser, turns[0].Role)
	assert.Equal(t, "what do the docs say?", turns[0].Text)
	assert.Empty(t, turns[0].Citations)
	assert.Equal(t, gemini.RoleModel, turns[1].Role)
	assert.Equal(t, "cited answer", turns[1].Text)
	require.Len(t, turns[1].Citations, 1)
	assert.Equal(t, 1, turns[1].Citations[0].Index)
	assert.Equal(t, "files/x", turns[1].Citations[0].Source)
	assert.Equal(t, "Doc X", turns[1].Citations[0].Title)
	assert.Equal(t, "passage", turns[1].Citations[0].Excerpt)

	// The stored citations survive the history read path too.
	chatSvc := NewChatService(gemini.NewClient("test-key", nopLogger{}), historyRepo, &fakeTracker{}, nopLogger{})
	history, err := chatSvc.History(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	require.Len(t, history.Turns[1].Citations, 1)
	assert.Equal(t, "files/x", history.Turns[1].Citations[0].Source)
}

func TestAskWithoutSessionDoesNotPersist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a"}`))
	})
	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	svc, _, _, historyRepo := newFileSearchFixtureWithHistory(t, mux)
	ctx := context.Background()

	_, err := svc.Ask(ctx, &dto.FileSearchChatRequest{
		Message:    "hello",
		StoreNames: []string{"fileSearchStores/a"},
	})
	require.NoError(t, err)

	turns, err := historyRepo.Get(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAskUsesStoredHistoryWhenRequestCarriesNone(t *testing.T) {
	var gotContents int32
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a"}`))
	})
	mux.HandleFunc("/models/test-model:generateContent", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Contents []interface{} `json:"contents"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		atomic.StoreInt32(&gotContents, int32(len(body.Contents)))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	svc, _, _, historyRepo := newFileSearchFixtureWithHistory(t, mux)
	ctx := context.Background()

	require.NoError(t, historyRepo.Append(ctx, "session-2",
		entity.ChatTurn{Role: gemini.RoleUser, Text: "earlier question"},
		entity.ChatTurn{Role: gemini.RoleModel, Text: "earlier answer"},
	))

	_, err := svc.Ask(ctx, &dto.FileSearchChatRequest{
		Message:    "follow-up",
		StoreNames: []string{"fileSearchStores/a"},
		SessionId:  "session-2",
	})
	require.NoError(t, err)

	// Two stored turns plus the new message.
	assert.Equal(t, int32(3), atomic.LoadInt32(&gotContents))
}

func TestUploadFileValidation(t *testing.T) {
	var hits int32
	svc, _, _ := newFileSearchFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))

	_, err := svc.UploadFile(context.Background(), nil, "fileSearchStores/a", "a.txt", "")
	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = svc.UploadFile(context.Background(), []byte("x"), "  ", "a.txt", "")
	require.ErrorAs(t, err, &valErr)

	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestUploadFileTracksOperation(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/fileSearchStores/a:uploadToFileSearchStore", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Goog-Upload-URL", serverURL+"/transfer")
	})
	mux.HandleFunc("/transfer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a/upload/operations/op9","done":false}`))
	})
	mux.HandleFunc("/fileSearchStores/a/upload/operations/op9", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fileSearchStores/a/upload/operations/op9","done":false}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL

	client := newTestGeminiClient(server)
	poller := NewOperationPoller(client, pollInterval, 0, nopLogger{})
	t.Cleanup(poller.Teardown)
	tracker := &fakeTracker{}
	svc := NewFileSearchService(client, poller, newMemoryHistoryRepository(), tracker, nopLogger{})

	res, err := svc.UploadFile(context.Background(), []byte("content"), "fileSearchStores/a", "doc.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "fileSearchStores/a/upload/operations/op9", res.Operation.Name)
	assert.Equal(t, "doc.txt", res.Operation.FileDisplayName)
	assert.False(t, res.Operation.Done)

	assert.Contains(t, tracker.tracked(), "File Upload Started")
	assert.Len(t, svc.Operations(), 1)
}

func TestOperationStatusFallsBackToRemote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/operations/untracked", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"operations/untracked","done":true,"response":{"file":{"name":"files/z","displayName":"z.pdf"}}}`))
	})
	svc, _, _ := newFileSearchFixture(t, mux)

	res, err := svc.OperationStatus(context.Background(), "untracked")
	require.NoError(t, err)
	assert.True(t, res.Done)
	require.NotNil(t, res.File)
	assert.Equal(t, "z.pdf", res.File.DisplayName)
}

func TestOperationStatusRemote404IsPending(t *testing.T) {
	svc, _, _ := newFileSearchFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))

	res, err := svc.OperationStatus(context.Background(), "fresh-op")
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, "operations/fresh-op", res.Name)
}

func TestListStoresCaches(t *testing.T) {
	var hits int32
	svc, _, _ := newFileSearchFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"fileSearchStores":[{"name":"fileSearchStores/a","displayName":"Docs"}]}`))
	}))

	for i := 0; i < 3; i++ {
		stores, err := svc.ListStores(context.Background())
		require.NoError(t, err)
		require.Len(t, stores, 1)
		assert.Equal(t, "Docs", stores[0].DisplayName)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDeleteStoreDropsWatchesAndCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fileSearchStores/a", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	svc, tracker, poller := newFileSearchFixture(t, mux)

	poller.Track(&gemini.Operation{Name: "op1"}, "fileSearchStores/a", "a.txt")

	require.NoError(t, svc.DeleteStore(context.Background(), "fileSearchStores/a"))

	_, ok := poller.Status("op1")
	assert.False(t, ok)
	assert.Contains(t, tracker.tracked(), "Store Deleted")
}

func TestBuildContents(t *testing.T) {
	contents := buildContents([]dto.ChatTurnDTO{
		{Role: gemini.RoleModel, Sender: "user", Text: "explicit role wins"},
		{Sender: "user", Text: "from sender"},
		{Sender: "assistant", Text: "model fallback"},
		{Text: "no hints"},
	})

	require.Len(t, contents, 4)
	assert.Equal(t, gemini.RoleModel, contents[0].Role)
	assert.Equal(t, gemini.RoleUser, contents[1].Role)
	assert.Equal(t, gemini.RoleModel, contents[2].Role)
	assert.Equal(t, gemini.RoleModel, contents[3].Role)
}
