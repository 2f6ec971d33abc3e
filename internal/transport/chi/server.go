package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OpenPecha/openpecha-search/internal/domain"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/filter"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/mode"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/request"
	"github.com/OpenPecha/openpecha-search/internal/domain/search/result"
	healthuc "github.com/OpenPecha/openpecha-search/internal/usecase/health"
	searchuc "github.com/OpenPecha/openpecha-search/internal/usecase/search"
	"github.com/OpenPecha/openpecha-search/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrSearchBackendError, http.StatusBadGateway, CodeSearchBackendError),
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Info)
	r.Post("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Service: "openpecha-search",
		Version: version.Version,
		Status:  "running",
		SearchTypes: []string{
			string(mode.Hybrid), string(mode.BM25),
			string(mode.Semantic), string(mode.Exact),
		},
	})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchReq, err := searchRequestFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(&resp))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// searchRequestFromDTO validates wire input and builds a domain request.
// Mode strings are parsed only here; everything past this point carries
// the typed mode.
func searchRequestFromDTO(req SearchRequest) (request.Request, error) {
	m, err := mode.Parse(req.SearchType)
	if err != nil {
		return request.Request{}, err
	}

	// An explicit limit must be in range; absence falls through to the default.
	if req.Limit != nil {
		if *req.Limit < request.MinLimit || *req.Limit > request.MaxLimit {
			return request.Request{}, fmt.Errorf("limit must be between %d and %d",
				request.MinLimit, request.MaxLimit)
		}
	}

	var f filter.Filter
	if req.Filter != nil {
		f = filter.New(req.Filter.Title)
	}

	includeText := true
	if req.ReturnText != nil {
		includeText = *req.ReturnText
	}

	r, err := request.New(req.Query, m, derefInt(req.Limit), includeText, f)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return r, nil
}

func searchResponseToDTO(resp *result.Response) SearchResponse {
	results := resp.Results()
	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = SearchResultItem{
			ID:       results[i].ID(),
			Distance: results[i].Distance(),
			Entity:   results[i].Entity(),
		}
	}

	return SearchResponse{
		Query:      resp.Query(),
		SearchType: string(resp.Mode()),
		Results:    items,
		Count:      resp.Count(),
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// domainMessage returns the client-facing message for a failed request.
// Sentinel-classified errors forward their full text so callers can see
// backend and provider detail; anything else is masked.
func domainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrEmbeddingProviderError,
		domain.ErrSearchBackendError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := domainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
