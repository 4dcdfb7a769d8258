package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainproducts "campustrades/internal/domain/products"
)

// ProductRepository is an in-memory product store with catalog search.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[domainproducts.ProductID]*domainproducts.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[domainproducts.ProductID]*domainproducts.Product),
	}
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproducts.ProductID) (*domainproducts.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.items[id]
	if !ok {
		return nil, domainproducts.ErrNotFound
	}
	return product, nil
}

func (r *ProductRepository) ByIDs(ctx context.Context, ids []domainproducts.ProductID) (map[domainproducts.ProductID]*domainproducts.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainproducts.ProductID]*domainproducts.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.items[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

func (r *ProductRepository) Save(ctx context.Context, product *domainproducts.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[product.ID] = product
	return nil
}

func (r *ProductRepository) Search(ctx context.Context, params domainproducts.SearchParams) (domainproducts.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainproducts.Product, 0, len(r.items))
	for _, product := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domainproducts.SearchResult{}, ctx.Err()
			default:
			}
		}

		if opts.OnlyAvailable && product.Status != domainproducts.StatusAvailable {
			continue
		}
		if opts.Seller != "" && product.Seller != opts.Seller {
			continue
		}
		if len(opts.Statuses) > 0 && !statusIncluded(product.Status, opts.Statuses) {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(product.Category, opts.Category) {
			continue
		}
		if opts.PriceMinCents > 0 && product.PriceCents < opts.PriceMinCents {
			continue
		}
		if opts.PriceMaxCents > 0 && product.PriceCents > opts.PriceMaxCents {
			continue
		}
		if opts.Query != "" && !matchQuery(product, opts.Query) {
			continue
		}
		matches = append(matches, product)
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainproducts.SortByPriceAsc:
			if matches[i].PriceCents == matches[j].PriceCents {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].PriceCents < matches[j].PriceCents
		case domainproducts.SortByPriceDesc:
			if matches[i].PriceCents == matches[j].PriceCents {
				return matches[i].CreatedAt.After(matches[j].CreatedAt)
			}
			return matches[i].PriceCents > matches[j].PriceCents
		default:
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
	})

	total := len(matches)
	if opts.Offset >= total {
		return domainproducts.SearchResult{Items: []*domainproducts.Product{}, Total: total}, nil
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	page := make([]*domainproducts.Product, end-opts.Offset)
	copy(page, matches[opts.Offset:end])
	return domainproducts.SearchResult{Items: page, Total: total}, nil
}

func (r *ProductRepository) SoldToBuyer(ctx context.Context, buyerID string) ([]*domainproducts.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainproducts.Product, 0)
	for _, product := range r.items {
		if product.Status == domainproducts.StatusSold && product.BuyerID == buyerID {
			matches = append(matches, product)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})
	return matches, nil
}

func matchQuery(product *domainproducts.Product, needle string) bool {
	needle = strings.ToLower(needle)
	return strings.Contains(strings.ToLower(product.Title), needle) ||
		strings.Contains(strings.ToLower(product.Description), needle)
}

func statusIncluded(status domainproducts.Status, allowed []domainproducts.Status) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}

// FavoriteRepository stores starred listings per user.
type FavoriteRepository struct {
	mu    sync.RWMutex
	items map[favoriteKey]domainproducts.Favorite
}

type favoriteKey struct {
	userID    string
	productID domainproducts.ProductID
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{items: make(map[favoriteKey]domainproducts.Favorite)}
}

func (r *FavoriteRepository) Set(ctx context.Context, userID string, productID domainproducts.ProductID, favored bool, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favoriteKey{userID, productID}
	if !favored {
		delete(r.items, key)
		return nil
	}
	if _, ok := r.items[key]; ok {
		return nil
	}
	r.items[key] = domainproducts.Favorite{UserID: userID, ProductID: productID, CreatedAt: now}
	return nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domainproducts.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]domainproducts.Favorite, 0)
	for key, favorite := range r.items {
		if key.userID == userID {
			matches = append(matches, favorite)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID string, productID domainproducts.ProductID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[favoriteKey{userID, productID}]
	return ok, nil
}
