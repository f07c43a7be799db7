package product

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// fetchChunk bounds the number of HGETALLs pipelined in one round-trip.
const fetchChunk = 256

// store is the consumer interface for the Redis catalog (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	SAddMulti(ctx context.Context, items []db.SetMembers) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// HashRepo stores products as Redis hashes (<prefix>product:<id>) with set
// indexes of all ids (<prefix>products) and ids per category (<prefix>category:<name>).
type HashRepo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// NewHashRepo creates a Redis-backed product repository.
func NewHashRepo(s store, prefix string, logger *zap.Logger) *HashRepo {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HashRepo{store: s, prefix: prefix, logger: logger}
}

func (r *HashRepo) productKey(id string) string    { return r.prefix + "product:" + id }
func (r *HashRepo) allKey() string                 { return r.prefix + "products" }
func (r *HashRepo) categoryKey(name string) string { return r.prefix + "category:" + name }

// Ping checks the underlying connection.
func (r *HashRepo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping catalog store: %w", err)
	}
	return nil
}

// UpsertMany stores products in one pipelined write and updates the set indexes.
func (r *HashRepo) UpsertMany(ctx context.Context, products []domprod.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	items := make([]db.HashSetItem, len(products))
	ids := make([]string, len(products))
	byCategory := make(map[string][]string)
	for i := range products {
		p := &products[i]
		items[i] = db.HashSetItem{Key: r.productKey(p.ID()), Fields: buildHashFields(p)}
		ids[i] = p.ID()
		byCategory[p.Category()] = append(byCategory[p.Category()], p.ID())
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("store products: %w", err)
	}

	sets := []db.SetMembers{{Key: r.allKey(), Members: ids}}
	for cat, members := range byCategory {
		sets = append(sets, db.SetMembers{Key: r.categoryKey(cat), Members: members})
	}
	if err := r.store.SAddMulti(ctx, sets); err != nil {
		return 0, fmt.Errorf("index products: %w", err)
	}
	return len(products), nil
}

// Get returns a product by ID.
func (r *HashRepo) Get(ctx context.Context, id string) (domprod.Product, error) {
	m, err := r.store.HGetAll(ctx, r.productKey(id))
	if err != nil {
		return domprod.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if len(m) == 0 {
		return domprod.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	p, err := parseHashFields(id, m)
	if err != nil {
		return domprod.Product{}, fmt.Errorf("%w: product %s: %w", domain.ErrCorruptRecord, id, err)
	}
	return p, nil
}

// Delete removes a product and its index entries.
func (r *HashRepo) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Del(ctx, r.productKey(id)); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.allKey(), id); err != nil {
		return fmt.Errorf("unindex product %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.categoryKey(p.Category()), id); err != nil {
		return fmt.Errorf("unindex product %s: %w", id, err)
	}
	return nil
}

// Count returns the number of indexed products.
func (r *HashRepo) Count(ctx context.Context) (int, error) {
	ids, err := r.store.SMembers(ctx, r.allKey())
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	return len(ids), nil
}

// Candidates returns products matching c, ordered by ID.
// The category set narrows the fetch; price is checked after hydration.
// Stale index entries (no hash) are skipped. A hash that cannot be hydrated fails
// the call with domain.ErrCorruptRecord wrapping the decode error.
func (r *HashRepo) Candidates(ctx context.Context, c filter.Criteria) ([]domprod.Product, error) {
	setKey := r.allKey()
	if !c.AnyCategory() {
		setKey = r.categoryKey(c.Category())
	}
	ids, err := r.store.SMembers(ctx, setKey)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	slices.Sort(ids)

	out := make([]domprod.Product, 0, len(ids))
	for chunk := range slices.Chunk(ids, fetchChunk) {
		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = r.productKey(id)
		}
		hashes, err := r.store.HGetAllMulti(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("fetch candidates: %w", err)
		}
		for i, m := range hashes {
			if len(m) == 0 {
				r.logger.Debug("Skipping stale index entry", zap.String("product_id", chunk[i]))
				continue
			}
			p, err := parseHashFields(chunk[i], m)
			if err != nil {
				return nil, fmt.Errorf("%w: product %s: %w", domain.ErrCorruptRecord, chunk[i], err)
			}
			if c.Matches(p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
