package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradfinder.dev/gradfinder/internal/core"
	"gradfinder.dev/gradfinder/internal/llm"
	"gradfinder.dev/gradfinder/internal/logger"
	"gradfinder.dev/gradfinder/internal/store"
)

// aiStub is an OpenAI-compatible endpoint whose reply and status the test controls.
type aiStub struct {
	status int32
	reply  atomic.Value
	calls  int32
}

func (a *aiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&a.calls, 1)
	if s := atomic.LoadInt32(&a.status); s != 0 && s != http.StatusOK {
		http.Error(w, "upstream says no", int(s))
		return
	}
	reply, _ := a.reply.Load().(string)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
	})
}

func newIntegrationRouter(t *testing.T, apiKey string) (http.Handler, *aiStub, store.ProgramStore) {
	t.Helper()
	stub := &aiStub{}
	stub.reply.Store("")
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	completer := llm.NewOpenAIClient(llm.OpenAIConfig{BaseURL: srv.URL, APIKey: apiKey}, logger.Nop())
	handler := NewAPIHandler(
		core.NewSearchService(db, completer, logger.Nop()),
		core.NewSummaryService(db, completer, logger.Nop()),
		core.NewCatalogService(db),
		logger.Nop(),
	)
	return NewRouter(handler, logger.Nop()), stub, db
}

const sportsReply = "Here are five strong options for you.\n" +
	`[{"name":"MSc Sports Analytics","university":"Loughborough University","country":"UK","degree_type":"masters","research_areas":["performance"],"ranking":10},` +
	`{"name":"MS Analytics","university":"Georgia Tech","country":"USA"},` +
	`{"name":"PhD Sports Science","university":"Victoria University"},` +
	`{"name":"MSc Data Science","university":"University of Amsterdam","tags":["data"]},` +
	`{"name":"PhD Computer Vision","university":"ETH Zurich","professors":["Prof. Z"]}]` +
	"\nGood luck with your applications!"

func TestEndToEnd_SearchThenSummarize(t *testing.T) {
	h, stub, _ := newIntegrationRouter(t, "key")
	stub.reply.Store(sportsReply)

	rec := doJSON(t, h, http.MethodPost, "/api/search-programs", `{"query":"AI in sports analytics"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var search SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &search))
	require.Len(t, search.Programs, 5)
	for _, p := range search.Programs {
		assert.NotEmpty(t, p.ID)
		assert.Nil(t, p.AISummary)
	}

	id := search.Programs[0].ID
	rec = doJSON(t, h, http.MethodGet, "/api/programs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	stub.reply.Store("A leading sports analytics program.")
	rec = doJSON(t, h, http.MethodPost, "/api/generate-summary", `{"programId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "A leading sports analytics program.", summary.Summary)
	require.NotNil(t, summary.Program.AISummary)
	assert.Equal(t, "A leading sports analytics program.", *summary.Program.AISummary)
	assert.Equal(t, "MSc Sports Analytics", summary.Program.Name)

	rec = doJSON(t, h, http.MethodGet, "/api/programs?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListProgramsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Programs, 5)

	assert.EqualValues(t, 2, atomic.LoadInt32(&stub.calls))
}

func TestEndToEnd_WhitespaceQueryMakesNoAICall(t *testing.T) {
	h, stub, _ := newIntegrationRouter(t, "key")

	rec := doJSON(t, h, http.MethodPost, "/api/search-programs", `{"query":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Query is required", decodeError(t, rec))
	assert.EqualValues(t, 0, atomic.LoadInt32(&stub.calls))
}

func TestEndToEnd_MissingProgramIsNotFoundWithoutAICall(t *testing.T) {
	h, stub, db := newIntegrationRouter(t, "key")

	rec := doJSON(t, h, http.MethodPost, "/api/generate-summary", `{"programId":"does-not-exist"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Program not found", decodeError(t, rec))
	assert.EqualValues(t, 0, atomic.LoadInt32(&stub.calls))

	programs, err := db.ListPrograms(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, programs)
}

func TestEndToEnd_MissingIDIs400(t *testing.T) {
	h, _, _ := newIntegrationRouter(t, "key")

	rec := doJSON(t, h, http.MethodPost, "/api/generate-summary", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Program ID is required", decodeError(t, rec))
}

func TestEndToEnd_ProviderStatusesPassThrough(t *testing.T) {
	tests := []struct {
		upstream int
		want     int
		message  string
	}{
		{http.StatusTooManyRequests, 429, "Rate limit exceeded. Please try again later."},
		{http.StatusPaymentRequired, 402, "AI credits depleted. Please add funds to continue."},
		{http.StatusServiceUnavailable, 500, "AI service error"},
	}
	for _, tt := range tests {
		h, stub, _ := newIntegrationRouter(t, "key")
		atomic.StoreInt32(&stub.status, int32(tt.upstream))

		rec := doJSON(t, h, http.MethodPost, "/api/search-programs", `{"query":"law"}`)

		assert.Equal(t, tt.want, rec.Code)
		assert.Equal(t, tt.message, decodeError(t, rec))
		assert.EqualValues(t, 1, atomic.LoadInt32(&stub.calls))
	}
}

func TestEndToEnd_MissingCredentialIsConfigurationError(t *testing.T) {
	h, stub, _ := newIntegrationRouter(t, "")

	rec := doJSON(t, h, http.MethodPost, "/api/search-programs", `{"query":"law"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Configuration error", decodeError(t, rec))
	assert.EqualValues(t, 0, atomic.LoadInt32(&stub.calls))
}

func TestEndToEnd_UnparsableReplyIsEmptyDegradedList(t *testing.T) {
	h, stub, _ := newIntegrationRouter(t, "key")
	stub.reply.Store("I'm afraid I can only answer in prose today.")

	rec := doJSON(t, h, http.MethodPost, "/api/search-programs", `{"query":"law"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"programs":[],"degraded":true}`, rec.Body.String())
}
