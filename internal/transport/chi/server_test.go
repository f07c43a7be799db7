package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/prodsearch/internal/logger"
	embeddinguc "github.com/kailas-cloud/prodsearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// --- Mocks ---

type mockSource struct {
	products     []product.Product
	err          error
	lastCriteria filter.Criteria
}

func (m *mockSource) Candidates(_ context.Context, c filter.Criteria) ([]product.Product, error) {
	m.lastCriteria = c
	return m.products, m.err
}

func (m *mockSource) Ping(_ context.Context) error { return m.err }

func (m *mockSource) Count(_ context.Context) (int, error) { return len(m.products), m.err }

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 5}, nil
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.err }

func catalog() []product.Product {
	return []product.Product{
		product.Reconstruct("X", "Acme Widget", "Electronics", 89999, 4.5,
			"Color: Red|Weight: 1kg", []float32{0.9, 0.43588989}),
		product.Reconstruct("Y", "Gizmo", "Electronics", 100, 5.0, "", []float32{0.95, 0.31224989}),
		product.Reconstruct("Z", "Teapot", "Kitchen", 40, 3.0, "", []float32{0.1, 0.99498744}),
	}
}

type fixture struct {
	src    *mockSource
	emb    *mockEmbedder
	router http.Handler
}

func newFixture(t *testing.T, defaultMode mode.Mode) *fixture {
	t.Helper()
	f := &fixture{
		src: &mockSource{products: catalog()},
		emb: &mockEmbedder{vec: []float32{1, 0}},
	}
	emb := embeddinguc.NewInstrumentedEmbedder(f.emb, "test", "test-model", 0, zap.NewNop())
	searchSvc := searchuc.New(f.src, emb, ranking.New(), 0, zap.NewNop())
	healthSvc := healthuc.New(f.src, f.emb, zap.NewNop())

	r := chi.NewRouter()
	NewServer(searchSvc, healthSvc, defaultMode, zap.NewNop()).Routes(r)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	if got := decode[ErrorResponse](t, rr); got.Code != code {
		t.Errorf("code: got %s, want %s", got.Code, code)
	}
}

// --- Root & health ---

func TestRoot(t *testing.T) {
	rr := newFixture(t, "").do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decode[RootResponse](t, rr)
	if got.Status != "Online" || got.Message != "AI Search API is running" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestHealth_OK(t *testing.T) {
	rr := newFixture(t, "").do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decode[HealthResponse](t, rr)
	if got.Status != "ok" || got.Products != 3 || got.Checks["embedding"] != "ok" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture(t, "")
	f.emb.err = errors.New("provider down")

	rr := f.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	if got := decode[HealthResponse](t, rr); got.Status != "degraded" {
		t.Errorf("status: got %q", got.Status)
	}
}

// --- Search ---

func TestSearch_Post(t *testing.T) {
	f := newFixture(t, "")
	rr := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"Acme widget pro"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Embedding-Tokens") != "5" {
		t.Errorf("X-Embedding-Tokens: got %q", rr.Header().Get("X-Embedding-Tokens"))
	}

	got := decode[SearchResponse](t, rr)
	if got.Mode != "additive-rating" {
		t.Errorf("mode: got %q", got.Mode)
	}
	if got.Total != 2 || len(got.Items) != 2 {
		t.Fatalf("total: got %d", got.Total)
	}
	best := got.Items[0]
	if best.ProductID != "X" || best.MatchType != "keyword" || best.KeywordBoost != 4 {
		t.Errorf("unexpected best item: %+v", best)
	}
	if f.src.lastCriteria.Price().Max() != 500000 || !f.src.lastCriteria.AnyCategory() {
		t.Error("expected default price range and category")
	}
}

func TestSearch_PostServerDefaultMode(t *testing.T) {
	rr := newFixture(t, mode.WeightedBlend).do(t, http.MethodPost, "/api/v1/search", `{"query":"gizmo"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decode[SearchResponse](t, rr)
	if got.Mode != "weighted-blend" {
		t.Errorf("mode: got %q", got.Mode)
	}
	for _, it := range got.Items {
		if it.MatchType != "exact" && it.MatchType != "recommended" {
			t.Errorf("unexpected match type %q", it.MatchType)
		}
	}
}

func TestSearch_Get(t *testing.T) {
	f := newFixture(t, "")
	rr := f.do(t, http.MethodGet,
		"/api/v1/search?query=teapot&min_price=10&max_price=50&category=Kitchen&mode=weighted-blend", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	got := decode[SearchResponse](t, rr)
	if got.Total != 1 || got.Items[0].ProductID != "Z" {
		t.Errorf("unexpected items: %+v", got.Items)
	}
	if f.src.lastCriteria.Category() != "Kitchen" {
		t.Errorf("category: got %q", f.src.lastCriteria.Category())
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	rr := newFixture(t, "").do(t, http.MethodGet, "/api/v1/search", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decode[SearchResponse](t, rr)
	if got.Total != 0 || got.Items == nil {
		t.Errorf("expected empty non-nil items, got %+v", got)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "" {
		t.Error("no embedding call expected for empty query")
	}
}

func TestSearch_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   ErrorCode
	}{
		{"malformed json", http.MethodPost, "/api/v1/search", `{"query":`, CodeBadRequest},
		{"wrong type", http.MethodPost, "/api/v1/search", `{"min_price":"cheap"}`, CodeBadRequest},
		{"bad query param", http.MethodGet, "/api/v1/search?min_price=abc", "", CodeBadRequest},
		{"unknown mode", http.MethodPost, "/api/v1/search", `{"query":"x","mode":"hybrid"}`, CodeInvalidMode},
		{"negative price", http.MethodPost, "/api/v1/search", `{"query":"x","min_price":-1}`, CodeValidationFailed},
		{"inverted range", http.MethodGet, "/api/v1/search?query=x&min_price=100&max_price=10", "", CodeValidationFailed},
		{"query too long", http.MethodPost, "/api/v1/search",
			fmt.Sprintf(`{"query":%q}`, strings.Repeat("a", 4097)), CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := newFixture(t, "").do(t, tt.method, tt.target, tt.body)
			expectError(t, rr, http.StatusBadRequest, tt.code)
		})
	}
}

func TestSearch_ProviderError_502(t *testing.T) {
	f := newFixture(t, "")
	f.emb.err = fmt.Errorf("%w: status 500", domain.ErrEmbeddingProviderError)

	rr := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"widget"}`)
	expectError(t, rr, http.StatusBadGateway, CodeEmbeddingProviderError)
}

func TestSearch_DimensionMismatch_500(t *testing.T) {
	f := newFixture(t, "")
	f.src.products = append(f.src.products,
		product.Reconstruct("bad", "Widget", "Electronics", 1, 1, "", []float32{1, 0, 0}))

	rr := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"widget"}`)
	expectError(t, rr, http.StatusInternalServerError, CodeDimensionMismatch)
}

func TestSearch_StorageError_500(t *testing.T) {
	f := newFixture(t, "")
	f.src.err = errors.New("connection refused")

	rr := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"widget"}`)
	expectError(t, rr, http.StatusInternalServerError, CodeInternalError)
}

func TestSearch_CorruptRecord_500(t *testing.T) {
	f := newFixture(t, "")
	f.src.err = fmt.Errorf("%w: product P-9: %w", domain.ErrCorruptRecord, domain.NewMissingField("vector"))

	rr := f.do(t, http.MethodPost, "/api/v1/search", `{"query":"widget"}`)
	expectError(t, rr, http.StatusInternalServerError, CodeCorruptRecord)
	if strings.Contains(rr.Body.String(), "P-9") {
		t.Errorf("body leaks record id: %s", rr.Body.String())
	}
}

func TestDomainError_LogsWithRequestLogger(t *testing.T) {
	f := newFixture(t, "")
	f.src.err = fmt.Errorf("%w: product P-9: %w", domain.ErrCorruptRecord, domain.NewMissingField("vector"))

	core, logs := observer.New(zap.ErrorLevel)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{"query":"widget"}`))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(logpkg.ContextWithLogger(req.Context(),
		zap.New(core).With(zap.String("request_id", "req-7"))))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	expectError(t, rr, http.StatusInternalServerError, CodeCorruptRecord)
	entries := logs.FilterMessage("corrupt catalog record").
		FilterField(zap.String("request_id", "req-7")).All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request-scoped error entry, got %d", len(entries))
	}
}

// --- Chat ---

func TestChat_Recommends(t *testing.T) {
	f := newFixture(t, "")
	rr := f.do(t, http.MethodPost, "/api/v1/chat", `{"message":"Acme widget pro"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	got := decode[ChatResponse](t, rr)
	if got.ProductID == nil || *got.ProductID != "X" {
		t.Fatalf("product_id: got %v", got.ProductID)
	}
	if got.BestMatch == nil || got.BestMatch.ProductName != "Acme Widget" {
		t.Fatalf("best_match: got %+v", got.BestMatch)
	}
	for _, want := range []string{"**Acme Widget**", "₹89,999", "Color: Red, Weight: 1kg", "4.5/5.0"} {
		if !strings.Contains(got.Response, want) {
			t.Errorf("response %q does not contain %q", got.Response, want)
		}
	}
	if f.src.lastCriteria.Price().Max() != searchuc.DefaultChatMaxPrice {
		t.Errorf("chat price ceiling: got %v", f.src.lastCriteria.Price().Max())
	}
}

func TestChat_NoMatch(t *testing.T) {
	f := newFixture(t, "")
	f.src.products = nil

	rr := f.do(t, http.MethodPost, "/api/v1/chat", `{"message":"spaceship"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	got := decode[ChatResponse](t, rr)
	if got.Response != noMatchReply {
		t.Errorf("response: got %q", got.Response)
	}
	if got.ProductID != nil || got.BestMatch != nil {
		t.Error("no product expected")
	}
}

func TestChat_ProviderError(t *testing.T) {
	f := newFixture(t, "")
	f.emb.err = fmt.Errorf("%w: timeout", domain.ErrEmbeddingProviderError)

	rr := f.do(t, http.MethodPost, "/api/v1/chat", `{"message":"widget"}`)
	expectError(t, rr, http.StatusBadGateway, CodeEmbeddingProviderError)
}

func TestChat_MalformedBody(t *testing.T) {
	rr := newFixture(t, "").do(t, http.MethodPost, "/api/v1/chat", `not json`)
	expectError(t, rr, http.StatusBadRequest, CodeBadRequest)
}
