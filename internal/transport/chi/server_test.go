package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OpenPecha/openpecha-search/internal/domain"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/result"
	healthuc "github.com/OpenPecha/openpecha-search/internal/usecase/health"
	searchuc "github.com/OpenPecha/openpecha-search/internal/usecase/search"
)

// --- Mocks ---

type mockRepo struct {
	results []result.Result
	err     error

	calls      int
	lastLimit  int
	lastFilter string
}

func (m *mockRepo) record(limit int, filterExpr string) ([]result.Result, error) {
	m.calls++
	m.lastLimit = limit
	m.lastFilter = filterExpr
	return m.results, m.err
}

func (m *mockRepo) SearchBM25(
	_ context.Context, _ string, limit int, filterExpr string, _ bool,
) ([]result.Result, error) {
	return m.record(limit, filterExpr)
}

func (m *mockRepo) SearchSemantic(
	_ context.Context, _ []float32, limit int, filterExpr string, _ bool,
) ([]result.Result, error) {
	return m.record(limit, filterExpr)
}

func (m *mockRepo) SearchExact(
	_ context.Context, _ string, limit int, filterExpr string, _ bool,
) ([]result.Result, error) {
	return m.record(limit, filterExpr)
}

func (m *mockRepo) SearchHybrid(
	_ context.Context, _ string, _ []float32, limit int, filterExpr string, _ bool,
) ([]result.Result, error) {
	return m.record(limit, filterExpr)
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestRouter(repo *mockRepo, embed *mockEmbedder) http.Handler {
	searchSvc := searchuc.New(repo, embed)
	healthSvc := healthuc.New(&mockPinger{}, nil)
	server := NewServer(searchSvc, healthSvc, zap.NewNop())

	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestSearch_Semantic(t *testing.T) {
	repo := &mockRepo{results: []result.Result{
		result.New(float64(1), 0.95, map[string]any{"text": "hello"}),
	}}
	embed := &mockEmbedder{vec: []float32{0.1}}
	router := newTestRouter(repo, embed)

	rec := doJSON(t, router, http.MethodPost, "/search",
		`{"query": "dharma", "search_type": "semantic", "limit": 1}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Query != "dharma" {
		t.Errorf("query = %q", resp.Query)
	}
	if resp.SearchType != "semantic" {
		t.Errorf("search_type = %q", resp.SearchType)
	}
	if resp.Count != 1 || len(resp.Results) != 1 {
		t.Errorf("count = %d, results = %d", resp.Count, len(resp.Results))
	}
	if resp.Results[0].Entity["text"] != "hello" {
		t.Errorf("entity = %v", resp.Results[0].Entity)
	}
	if repo.lastLimit != 1 {
		t.Errorf("limit = %d, want 1", repo.lastLimit)
	}
	if embed.calls != 1 {
		t.Errorf("embed calls = %d, want 1", embed.calls)
	}
}

func TestSearch_DefaultsToHybrid(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{vec: []float32{0.1}}
	router := newTestRouter(repo, embed)

	rec := doJSON(t, router, http.MethodPost, "/search", `{"query": "dharma"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.SearchType != "hybrid" {
		t.Errorf("search_type = %q, want hybrid", resp.SearchType)
	}
	if repo.lastLimit != 10 {
		t.Errorf("default limit = %d, want 10", repo.lastLimit)
	}
}

func TestSearch_InvalidMode(t *testing.T) {
	repo := &mockRepo{}
	embed := &mockEmbedder{}
	router := newTestRouter(repo, embed)

	rec := doJSON(t, router, http.MethodPost, "/search",
		`{"query": "dharma", "search_type": "foo"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != CodeValidationFailed {
		t.Errorf("code = %q", resp.Code)
	}
	for _, m := range []string{"hybrid", "bm25", "semantic", "exact"} {
		if !strings.Contains(resp.Message, m) {
			t.Errorf("message %q should list mode %q", resp.Message, m)
		}
	}
	if repo.calls != 0 {
		t.Error("repository must not be called for an invalid mode")
	}
	if embed.calls != 0 {
		t.Error("embedder must not be called for an invalid mode")
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	router := newTestRouter(&mockRepo{}, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodPost, "/search", `{"query": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearch_ExplicitLimitOutOfRange(t *testing.T) {
	router := newTestRouter(&mockRepo{}, &mockEmbedder{})

	for _, body := range []string{
		`{"query": "q", "limit": 0}`,
		`{"query": "q", "limit": -1}`,
		`{"query": "q", "limit": 101}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/search", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSearch_MalformedJSON(t *testing.T) {
	router := newTestRouter(&mockRepo{}, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodPost, "/search", `{"query": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != CodeBadRequest {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestSearch_FilterForwarded(t *testing.T) {
	repo := &mockRepo{}
	router := newTestRouter(repo, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodPost, "/search",
		`{"query": "q", "search_type": "bm25", "filter": {"title": "Chapter1"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if repo.lastFilter != `title == "Chapter1"` {
		t.Errorf("filter = %q", repo.lastFilter)
	}
}

func TestSearch_EmbeddingProviderError(t *testing.T) {
	embed := &mockEmbedder{err: domain.ErrEmbeddingProviderError}
	router := newTestRouter(&mockRepo{}, embed)

	rec := doJSON(t, router, http.MethodPost, "/search",
		`{"query": "q", "search_type": "semantic"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != CodeEmbeddingProviderError {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestSearch_BackendError_ForwardsDetail(t *testing.T) {
	repo := &mockRepo{err: domain.ErrSearchBackendError}
	router := newTestRouter(repo, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodPost, "/search",
		`{"query": "q", "search_type": "bm25"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != CodeSearchBackendError {
		t.Errorf("code = %q", resp.Code)
	}
	if !strings.Contains(resp.Message, "search backend") {
		t.Errorf("message %q should carry the failure detail", resp.Message)
	}
}

func TestInfo(t *testing.T) {
	router := newTestRouter(&mockRepo{}, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp InfoResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Service != "openpecha-search" {
		t.Errorf("service = %q", resp.Service)
	}
	if resp.Status != "running" {
		t.Errorf("status = %q", resp.Status)
	}
	if len(resp.SearchTypes) != 4 {
		t.Errorf("search types = %v, want all four modes", resp.SearchTypes)
	}
}

func TestHealth_OK(t *testing.T) {
	router := newTestRouter(&mockRepo{}, &mockEmbedder{})

	rec := doJSON(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["search_backend"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
}

func TestHealth_Degraded(t *testing.T) {
	searchSvc := searchuc.New(&mockRepo{}, &mockEmbedder{})
	healthSvc := healthuc.New(&mockPinger{err: context.DeadlineExceeded}, nil)
	server := NewServer(searchSvc, healthSvc, zap.NewNop())

	r := chirouter.NewRouter()
	server.Routes(r)

	rec := doJSON(t, r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
