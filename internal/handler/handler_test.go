package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookqa/internal/model"
	appErr "github.com/xxxsen/bookqa/internal/pkg/errors"
)

type fakeChatService struct {
	resp *model.ChatResponse
	err  error
}

func (f *fakeChatService) ProcessQuestion(ctx context.Context, q model.UserQuestion) (*model.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeSearchService struct {
	results []model.SearchResult
	err     error
}

func (f *fakeSearchService) SearchContent(ctx context.Context, q model.SearchQuery) ([]model.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeIndexer struct {
	indexed int
	err     error
	calls   int
}

func (f *fakeIndexer) Reindex(ctx context.Context) (int, error) {
	f.calls++
	return f.indexed, f.err
}

func newTestRouter(chat ChatService, search SearchService, indexer Reindexer, token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api/v1")
	RegisterRoutes(api, RouterDeps{
		Chat:   NewChatHandler(chat),
		Search: NewSearchHandler(search),
		Admin:  NewAdminHandler(indexer, token),
		Info:   NewInfoHandler(),
	})
	return engine
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestChatHandler_Answer(t *testing.T) {
	chat := &fakeChatService{resp: &model.ChatResponse{
		Answer:         "nodes exchange messages over topics",
		Sources:        []string{"c1", "c2"},
		Confidence:     0.95,
		GroundedInBook: true,
		Timestamp:      time.Now(),
	}}
	router := newTestRouter(chat, &fakeSearchService{}, &fakeIndexer{}, "tok")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/chat", map[string]string{"question": "what is a topic?"}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "nodes exchange messages over topics")
	require.Contains(t, resp.Body.String(), "grounded_in_book")
}

func TestChatHandler_EmptyQuestionRejected(t *testing.T) {
	router := newTestRouter(&fakeChatService{}, &fakeSearchService{}, &fakeIndexer{}, "tok")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/chat", map[string]string{"question": "   "}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "question required")
}

func TestChatHandler_MalformedBodyRejected(t *testing.T) {
	router := newTestRouter(&fakeChatService{}, &fakeSearchService{}, &fakeIndexer{}, "tok")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Contains(t, resp.Body.String(), "invalid request")
}

func TestSearchHandler_Results(t *testing.T) {
	search := &fakeSearchService{results: []model.SearchResult{
		{ID: "c1", Title: "Topics", Content: "a topic is a named bus", Module: "ros2", Relevance: 0.9},
	}}
	router := newTestRouter(&fakeChatService{}, search, &fakeIndexer{}, "tok")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/search", map[string]string{"query": "topic"}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "a topic is a named bus")
	require.Contains(t, resp.Body.String(), `"total":1`)
}

func TestSearchHandler_BackendFailureIs503(t *testing.T) {
	search := &fakeSearchService{err: fmt.Errorf("%w: search request failed", appErr.ErrBackend)}
	router := newTestRouter(&fakeChatService{}, search, &fakeIndexer{}, "tok")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/search", map[string]string{"query": "topic"}, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.Contains(t, resp.Body.String(), "content backend unavailable")
}

func TestAdminHandler_ReindexRequiresToken(t *testing.T) {
	indexer := &fakeIndexer{indexed: 42}
	router := newTestRouter(&fakeChatService{}, &fakeSearchService{}, indexer, "secret-token")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/reindex", nil, nil)
	require.Contains(t, resp.Body.String(), "unauthorized")
	require.Zero(t, indexer.calls)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/admin/reindex", nil, map[string]string{"Authorization": "Bearer wrong"})
	require.Contains(t, resp.Body.String(), "unauthorized")
	require.Zero(t, indexer.calls)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/admin/reindex", nil, map[string]string{"Authorization": "Bearer secret-token"})
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"indexed_chunks":42`)
	require.Equal(t, 1, indexer.calls)
}

func TestAdminHandler_EmptyTokenDisablesEndpoint(t *testing.T) {
	indexer := &fakeIndexer{}
	router := newTestRouter(&fakeChatService{}, &fakeSearchService{}, indexer, "")

	resp := doJSON(t, router, http.MethodPost, "/api/v1/admin/reindex", nil, map[string]string{"Authorization": "Bearer "})
	require.Contains(t, resp.Body.String(), "unauthorized")
	require.Zero(t, indexer.calls)
}

func TestInfoHandler_Health(t *testing.T) {
	router := newTestRouter(&fakeChatService{}, &fakeSearchService{}, &fakeIndexer{}, "tok")

	resp := doJSON(t, router, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "healthy")
	require.Contains(t, resp.Body.String(), "bookqa")
}
