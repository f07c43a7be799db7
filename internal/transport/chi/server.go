package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Server serves the product search HTTP API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	defaultMode   mode.Mode
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultMode applies when a request names no mode;
// empty means request.DefaultMode.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	defaultMode mode.Mode,
	logger *zap.Logger,
) *Server {
	if defaultMode == "" {
		defaultMode = request.DefaultMode
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:        search,
		health:        health,
		defaultMode:   defaultMode,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.SearchProducts)
		r.Get("/search", s.SearchProductsByQuery)
		r.Post("/chat", s.Chat)
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Status: "Online", Message: "AI Search API is running"})
}

// SearchProducts handles POST /api/v1/search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

// SearchProductsByQuery handles GET /api/v1/search.
func (s *Server) SearchProductsByQuery(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	q := r.URL.Query()

	var query *string
	if err := runtime.BindQueryParameter("form", true, false, "query", q, &query); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter query: %s", err))
		return
	}
	if query != nil {
		req.Query = *query
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_price", q, &req.MinPrice); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter min_price: %s", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "max_price", q, &req.MaxPrice); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter max_price: %s", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", q, &req.Category); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter category: %s", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", q, &req.Mode); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid format for parameter mode: %s", err))
		return
	}

	s.runSearch(w, r, &req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, body *SearchRequest) {
	searchReq, err := s.searchRequestFromDTO(body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ranking, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, rankingToResponse(ranking))
}

// Chat handles POST /api/v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateBody(&req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rec, err := s.search.Recommend(ctx, req.Message)
	setEmbeddingHeaders(w, usage)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, ChatResponse{Response: noMatchReply})
	case err != nil:
		s.handleDomainError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, recommendationToResponse(&rec))
	}
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
		Status:   string(report.Status),
		Checks:   checks,
		Products: report.Products,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) searchRequestFromDTO(body *SearchRequest) (request.Request, error) {
	if err := validateBody(body); err != nil {
		return request.Request{}, err
	}

	minPrice, maxPrice := float64(request.DefaultMinPrice), float64(request.DefaultMaxPrice)
	if body.MinPrice != nil {
		minPrice = *body.MinPrice
	}
	if body.MaxPrice != nil {
		maxPrice = *body.MaxPrice
	}

	m := s.defaultMode
	if body.Mode != nil && *body.Mode != "" {
		parsed, err := mode.Parse(*body.Mode)
		if err != nil {
			return request.Request{}, fmt.Errorf("parse mode: %w", err)
		}
		m = parsed
	}

	var category string
	if body.Category != nil {
		category = *body.Category
	}

	r, err := request.New(body.Query, minPrice, maxPrice, category, m)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return r, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
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
