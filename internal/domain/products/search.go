package products

import "strings"

// CatalogSort defines a supported ordering for product browsing.
type CatalogSort string

const (
	SortByNewest    CatalogSort = "newest"
	SortByPriceAsc  CatalogSort = "price_asc"
	SortByPriceDesc CatalogSort = "price_desc"

	defaultSearchLimit = 24
	maxSearchLimit     = 60
)

// SearchParams describe catalog filters and paging options.
type SearchParams struct {
	Seller        SellerID
	Category      string
	Query         string
	Statuses      []Status
	PriceMinCents int64
	PriceMaxCents int64
	Sort          CatalogSort
	Limit         int
	Offset        int
	OnlyAvailable bool
}

// SearchResult carries one page of matches plus the total match count.
type SearchResult struct {
	Items []*Product
	Total int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.Category = strings.TrimSpace(strings.ToLower(normalized.Category))
	normalized.Query = strings.TrimSpace(strings.ToLower(normalized.Query))
	normalized.Statuses = normalizeStatuses(normalized.Statuses)
	if normalized.PriceMinCents < 0 {
		normalized.PriceMinCents = 0
	}
	if normalized.PriceMaxCents > 0 && normalized.PriceMaxCents < normalized.PriceMinCents {
		normalized.PriceMaxCents = 0
	}
	if normalized.Limit <= 0 {
		normalized.Limit = defaultSearchLimit
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	switch normalized.Sort {
	case SortByNewest, SortByPriceAsc, SortByPriceDesc:
	default:
		normalized.Sort = SortByNewest
	}
	return normalized
}

func normalizeStatuses(values []Status) []Status {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[Status]struct{}, len(values))
	out := make([]Status, 0, len(values))
	for _, value := range values {
		switch value {
		case StatusAvailable, StatusSold:
		default:
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
