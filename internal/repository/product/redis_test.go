package product

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

func TestHashFields_RoundTrip(t *testing.T) {
	p := testProduct(t, "P-1", "Electronics", 89999.5)
	fields := buildHashFields(&p)

	assert.Equal(t, "89999.5", fields[fieldPrice])
	assert.Equal(t, "4.2", fields[fieldRating])
	assert.Len(t, fields[fieldVector], 16)

	got, err := parseHashFields("P-1", fields)
	require.NoError(t, err)
	assert.Equal(t, p.Name(), got.Name())
	assert.Equal(t, p.Category(), got.Category())
	assert.Equal(t, p.Price(), got.Price())
	assert.Equal(t, p.Rating(), got.Rating())
	assert.Equal(t, p.Specifications(), got.Specifications())
	assert.Equal(t, p.Embedding(), got.Embedding())
}

func TestParseHashFields_Malformed(t *testing.T) {
	p := testProduct(t, "x", "Electronics", 10)
	valid := buildHashFields(&p)

	bad := maps.Clone(valid)
	bad[fieldPrice] = "abc"
	_, err := parseHashFields("x", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	bad = maps.Clone(valid)
	bad[fieldVector] = "abc"
	_, err = parseHashFields("x", bad)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestParseHashFields_MissingRequiredField(t *testing.T) {
	p := testProduct(t, "x", "Electronics", 10)
	valid := buildHashFields(&p)

	for _, field := range []string{fieldName, fieldCategory, fieldPrice, fieldRating, fieldVector} {
		t.Run("absent "+field, func(t *testing.T) {
			m := maps.Clone(valid)
			delete(m, field)
			_, err := parseHashFields("x", m)
			require.ErrorIs(t, err, domain.ErrMissingField)
			var mf *domain.MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, field, mf.Field)
		})
		t.Run("blank "+field, func(t *testing.T) {
			m := maps.Clone(valid)
			m[field] = ""
			_, err := parseHashFields("x", m)
			assert.ErrorIs(t, err, domain.ErrMissingField)
		})
	}
}

func TestUpsertMany_WritesHashesAndIndexes(t *testing.T) {
	repo, ms := newTestRepo(t)
	products := []domprod.Product{
		testProduct(t, "P-1", "Electronics", 10),
		testProduct(t, "P-2", "Fashion", 20),
		testProduct(t, "P-3", "Electronics", 30),
	}

	var hashKeys []string
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		for _, it := range items {
			hashKeys = append(hashKeys, it.Key)
		}
		return nil
	}
	sets := map[string][]string{}
	ms.saddMultiFn = func(_ context.Context, items []db.SetMembers) error {
		for _, it := range items {
			sets[it.Key] = it.Members
		}
		return nil
	}

	n, err := repo.UpsertMany(context.Background(), products)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"test:product:P-1", "test:product:P-2", "test:product:P-3"}, hashKeys)
	assert.Equal(t, []string{"P-1", "P-2", "P-3"}, sets["test:products"])
	assert.Equal(t, []string{"P-1", "P-3"}, sets["test:category:Electronics"])
	assert.Equal(t, []string{"P-2"}, sets["test:category:Fashion"])
}

func TestUpsertMany_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(context.Context, []db.HashSetItem) error { return errors.New("boom") }
	indexed := false
	ms.saddMultiFn = func(context.Context, []db.SetMembers) error {
		indexed = true
		return nil
	}

	_, err := repo.UpsertMany(context.Background(), []domprod.Product{testProduct(t, "P-1", "E", 1)})
	require.Error(t, err)
	assert.False(t, indexed, "indexes must not be touched when the write fails")
}

func TestUpsertMany_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	n, err := repo.UpsertMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_Found(t *testing.T) {
	repo, ms := newTestRepo(t)
	p := testProduct(t, "P-1", "Electronics", 10)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		assert.Equal(t, "test:product:P-1", key)
		return buildHashFields(&p), nil
	}

	got, err := repo.Get(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, "Item P-1", got.Name())
}

func TestDelete_RemovesIndexEntries(t *testing.T) {
	repo, ms := newTestRepo(t)
	p := testProduct(t, "P-1", "Electronics", 10)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) { return buildHashFields(&p), nil }

	var deleted []string
	ms.delFn = func(_ context.Context, keys ...string) error {
		deleted = append(deleted, keys...)
		return nil
	}
	var removedFrom []string
	ms.sremFn = func(_ context.Context, key string, _ ...string) error {
		removedFrom = append(removedFrom, key)
		return nil
	}

	require.NoError(t, repo.Delete(context.Background(), "P-1"))
	assert.Equal(t, []string{"test:product:P-1"}, deleted)
	assert.Equal(t, []string{"test:products", "test:category:Electronics"}, removedFrom)
}

func TestCandidates_UsesCategoryIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	stored := map[string]domprod.Product{
		"P-1": testProduct(t, "P-1", "Electronics", 10),
		"P-3": testProduct(t, "P-3", "Electronics", 1000),
	}

	ms.smembersFn = func(_ context.Context, key string) ([]string, error) {
		assert.Equal(t, "test:category:Electronics", key)
		return []string{"P-3", "P-1", "P-9"}, nil
	}
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		out := make([]map[string]string, len(keys))
		for i, k := range keys {
			id := strings.TrimPrefix(k, "test:product:")
			if p, ok := stored[id]; ok {
				out[i] = buildHashFields(&p)
			}
		}
		return out, nil
	}

	got, err := repo.Candidates(context.Background(), criteria(t, 0, 500, "Electronics"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P-1", got[0].ID())
}

func TestCandidates_AllCategoriesSortedAndChunked(t *testing.T) {
	repo, ms := newTestRepo(t)
	ids := make([]string, 0, fetchChunk+10)
	for i := range fetchChunk + 10 {
		ids = append(ids, fmt.Sprintf("P-%04d", fetchChunk+10-i))
	}

	ms.smembersFn = func(_ context.Context, key string) ([]string, error) {
		assert.Equal(t, "test:products", key)
		return ids, nil
	}
	calls := 0
	ms.hgetAllMultiFn = func(_ context.Context, keys []string) ([]map[string]string, error) {
		calls++
		assert.LessOrEqual(t, len(keys), fetchChunk)
		out := make([]map[string]string, len(keys))
		for i, k := range keys {
			p := testProduct(t, strings.TrimPrefix(k, "test:product:"), "Any", 5)
			out[i] = buildHashFields(&p)
		}
		return out, nil
	}

	got, err := repo.Candidates(context.Background(), criteria(t, 0, 10, filter.CategoryAll))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, got, fetchChunk+10)
	assert.Equal(t, "P-0001", got[0].ID())
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].ID(), got[i].ID())
	}
}

func TestCandidates_SkipsStaleIndexEntries(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(context.Context, string) ([]string, error) { return []string{"gone"}, nil }
	ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
		return []map[string]string{{}}, nil
	}

	got, err := repo.Candidates(context.Background(), criteria(t, 0, 10, ""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCandidates_IncompleteRecordFails(t *testing.T) {
	p := testProduct(t, "P-1", "Electronics", 5)
	good := buildHashFields(&p)
	noVector := maps.Clone(good)
	delete(noVector, fieldVector)
	noName := maps.Clone(good)
	delete(noName, fieldName)

	tests := []struct {
		name  string
		hash  map[string]string
		field string
	}{
		{"no vector", noVector, fieldVector},
		{"no name", noName, fieldName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			ms.smembersFn = func(context.Context, string) ([]string, error) { return []string{"P-1", "P-2"}, nil }
			ms.hgetAllMultiFn = func(context.Context, []string) ([]map[string]string, error) {
				return []map[string]string{good, tt.hash}, nil
			}

			got, err := repo.Candidates(context.Background(), criteria(t, 0, 10, ""))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, domain.ErrCorruptRecord)
			assert.ErrorIs(t, err, domain.ErrMissingField)
			var mf *domain.MissingFieldError
			require.ErrorAs(t, err, &mf)
			assert.Equal(t, tt.field, mf.Field)
			assert.Contains(t, err.Error(), "P-2")
		})
	}
}

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.smembersFn = func(context.Context, string) ([]string, error) { return []string{"a", "b"}, nil }
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPing_WrapsStoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.pingFn = func(context.Context) error { return errors.New("dial tcp: refused") }

	err := repo.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping catalog store")
}
