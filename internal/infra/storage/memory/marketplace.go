package memory

import (
	"context"
	"sort"
	"sync"

	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	domainrequests "campustrades/internal/domain/requests"
)

// RequestRepository is an in-memory "wanted" board.
type RequestRepository struct {
	mu    sync.RWMutex
	items map[domainrequests.RequestID]*domainrequests.ItemRequest
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		items: make(map[domainrequests.RequestID]*domainrequests.ItemRequest),
	}
}

func (r *RequestRepository) ByID(ctx context.Context, id domainrequests.RequestID) (*domainrequests.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.items[id]
	if !ok {
		return nil, domainrequests.ErrNotFound
	}
	return request, nil
}

func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*domainrequests.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domainrequests.ItemRequest, 0, len(r.items))
	for _, request := range r.items {
		all = append(all, request)
	}
	// Open requests first, newest first within each group.
	sort.Slice(all, func(i, j int) bool {
		if all[i].Fulfilled != all[j].Fulfilled {
			return !all[i].Fulfilled
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []*domainrequests.ItemRequest{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	page := make([]*domainrequests.ItemRequest, end-offset)
	copy(page, all[offset:end])
	return page, nil
}

func (r *RequestRepository) Save(ctx context.Context, request *domainrequests.ItemRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[request.ID] = request
	return nil
}

// RatingRepository stores one rating per (product, buyer).
type RatingRepository struct {
	mu    sync.RWMutex
	items map[ratingKey]*domainratings.Rating
}

type ratingKey struct {
	productID domainproducts.ProductID
	buyerID   string
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{items: make(map[ratingKey]*domainratings.Rating)}
}

func (r *RatingRepository) ByProductAndBuyer(ctx context.Context, productID domainproducts.ProductID, buyerID string) (*domainratings.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rating, ok := r.items[ratingKey{productID, buyerID}]
	if !ok {
		return nil, domainratings.ErrNotFound
	}
	return rating, nil
}

func (r *RatingRepository) RatedProductIDs(ctx context.Context, buyerID string) (map[domainproducts.ProductID]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainproducts.ProductID]struct{})
	for key := range r.items {
		if key.buyerID == buyerID {
			out[key.productID] = struct{}{}
		}
	}
	return out, nil
}

func (r *RatingRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domainratings.Rating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainratings.Rating, 0)
	for _, rating := range r.items {
		if rating.SellerID == sellerID {
			matches = append(matches, rating)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *RatingRepository) Save(ctx context.Context, rating *domainratings.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ratingKey{rating.ProductID, rating.BuyerID}
	if _, ok := r.items[key]; ok {
		return domainratings.ErrDuplicate
	}
	r.items[key] = rating
	return nil
}

// ProfileRepository stores display profiles keyed by user id.
type ProfileRepository struct {
	mu    sync.RWMutex
	items map[string]*domainprofiles.Profile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{items: make(map[string]*domainprofiles.Profile)}
}

func (r *ProfileRepository) ByUserID(ctx context.Context, userID string) (*domainprofiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.items[userID]
	if !ok {
		return nil, domainprofiles.ErrNotFound
	}
	return profile, nil
}

func (r *ProfileRepository) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*domainprofiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*domainprofiles.Profile, len(userIDs))
	for _, userID := range userIDs {
		if profile, ok := r.items[userID]; ok {
			out[userID] = profile
		}
	}
	return out, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domainprofiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[profile.UserID] = profile
	return nil
}
