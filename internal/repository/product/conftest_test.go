package product

import (
	"context"
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/db"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn         func(ctx context.Context) error
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) error
	saddMultiFn    func(ctx context.Context, items []db.SetMembers) error
	sremFn         func(ctx context.Context, key string, members ...string) error
	smembersFn     func(ctx context.Context, key string) ([]string, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) SAddMulti(ctx context.Context, items []db.SetMembers) error {
	if m.saddMultiFn != nil {
		return m.saddMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) SRem(ctx context.Context, key string, members ...string) error {
	if m.sremFn != nil {
		return m.sremFn(ctx, key, members...)
	}
	return nil
}

func (m *mockStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if m.smembersFn != nil {
		return m.smembersFn(ctx, key)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*HashRepo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return NewHashRepo(ms, "test:", nil), ms
}

func testProduct(t *testing.T, id, category string, price float64) domprod.Product {
	t.Helper()
	p, err := domprod.New(id, "Item "+id, category, price, 4.2, "Color: Black | Size: M", testVector(4))
	if err != nil {
		t.Fatalf("test product: %v", err)
	}
	return p
}

func testVector(dim int) []float32 {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = float32(i+1) * 0.25
	}
	return vec
}

func criteria(t *testing.T, lower, upper float64, category string) filter.Criteria {
	t.Helper()
	r, err := filter.NewRange(lower, upper)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return filter.NewCriteria(r, category)
}
