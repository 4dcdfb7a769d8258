package products

import (
	"context"

	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
)

const (
	catalogKey    = "products.catalog"
	getProductKey = "products.get"
)

// CatalogQuery is the public product search: text, category and price
// filters over available listings, paginated.
type CatalogQuery struct {
	Query         string
	Category      string
	Seller        string
	PriceMinCents int64
	PriceMaxCents int64
	Sort          string
	Limit         int
	Offset        int
	IncludeSold   bool
}

func (q CatalogQuery) Key() string { return catalogKey }

type CatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CatalogHandler) Handle(ctx context.Context, q CatalogQuery) (dto.ProductCollection, error) {
	empty := dto.ProductCollection{Items: []dto.Product{}}

	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return empty, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := domainproducts.SearchParams{
		Query:         q.Query,
		Category:      q.Category,
		Seller:        domainproducts.SellerID(q.Seller),
		PriceMinCents: q.PriceMinCents,
		PriceMaxCents: q.PriceMaxCents,
		Sort:          domainproducts.CatalogSort(q.Sort),
		Limit:         q.Limit,
		Offset:        q.Offset,
		OnlyAvailable: !q.IncludeSold,
	}.Normalized()

	result, err := unit.Products().Search(ctx, params)
	if err != nil {
		return empty, err
	}

	items := make([]dto.Product, 0, len(result.Items))
	for _, product := range result.Items {
		items = append(items, dto.MapProduct(product))
	}
	return dto.ProductCollection{Items: items, Total: result.Total}, nil
}

// GetProductQuery fetches one listing by id.
type GetProductQuery struct {
	ProductID string
}

func (q GetProductQuery) Key() string { return getProductKey }

type GetProductHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetProductHandler) Handle(ctx context.Context, q GetProductQuery) (dto.Product, error) {
	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Product{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	product, err := unit.Products().ByID(ctx, domainproducts.ProductID(q.ProductID))
	if err != nil {
		return dto.Product{}, err
	}
	return dto.MapProduct(product), nil
}

var (
	_ queries.Handler[CatalogQuery, dto.ProductCollection] = (*CatalogHandler)(nil)
	_ queries.Handler[GetProductQuery, dto.Product]        = (*GetProductHandler)(nil)
)
