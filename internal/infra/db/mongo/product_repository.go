package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproducts "campustrades/internal/domain/products"
)

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

func (r *ProductRepository) ByID(ctx context.Context, id domainproducts.ProductID) (*domainproducts.Product, error) {
	var doc productDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproducts.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProductRepository) ByIDs(ctx context.Context, ids []domainproducts.ProductID) (map[domainproducts.ProductID]*domainproducts.Product, error) {
	out := make(map[domainproducts.ProductID]*domainproducts.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": raw}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		product := doc.toAggregate()
		out[product.ID] = product
	}
	return out, cursor.Err()
}

func (r *ProductRepository) Save(ctx context.Context, product *domainproducts.Product) error {
	doc := newProductDocument(product)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ProductRepository) Search(ctx context.Context, params domainproducts.SearchParams) (domainproducts.SearchResult, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.OnlyAvailable {
		filter["status"] = string(domainproducts.StatusAvailable)
	} else if len(opts.Statuses) > 0 {
		raw := make([]string, 0, len(opts.Statuses))
		for _, status := range opts.Statuses {
			raw = append(raw, string(status))
		}
		filter["status"] = bson.M{"$in": raw}
	}
	if opts.Seller != "" {
		filter["seller_id"] = string(opts.Seller)
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	price := bson.M{}
	if opts.PriceMinCents > 0 {
		price["$gte"] = opts.PriceMinCents
	}
	if opts.PriceMaxCents > 0 {
		price["$lte"] = opts.PriceMaxCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	if opts.Query != "" {
		pattern := primitiveRegex(opts.Query)
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainproducts.SearchResult{}, err
	}

	sortDoc := bson.D{{Key: "created_at", Value: -1}}
	switch opts.Sort {
	case domainproducts.SortByPriceAsc:
		sortDoc = bson.D{{Key: "price_cents", Value: 1}, {Key: "created_at", Value: -1}}
	case domainproducts.SortByPriceDesc:
		sortDoc = bson.D{{Key: "price_cents", Value: -1}, {Key: "created_at", Value: -1}}
	}
	findOpts := options.Find().
		SetSort(sortDoc).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return domainproducts.SearchResult{}, err
	}
	defer cursor.Close(ctx)

	items := make([]*domainproducts.Product, 0, opts.Limit)
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return domainproducts.SearchResult{}, err
		}
		items = append(items, doc.toAggregate())
	}
	return domainproducts.SearchResult{Items: items, Total: int(total)}, cursor.Err()
}

func (r *ProductRepository) SoldToBuyer(ctx context.Context, buyerID string) ([]*domainproducts.Product, error) {
	filter := bson.M{"status": string(domainproducts.StatusSold), "buyer_id": buyerID}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainproducts.Product, 0)
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func primitiveRegex(needle string) bson.M {
	return bson.M{"$regex": needle, "$options": "i"}
}

type productDocument struct {
	ID          string   `bson:"_id"`
	SellerID    string   `bson:"seller_id"`
	BuyerID     string   `bson:"buyer_id"`
	Title       string   `bson:"title"`
	Description string   `bson:"description"`
	Category    string   `bson:"category"`
	PriceCents  int64    `bson:"price_cents"`
	ImageURLs   []string `bson:"image_urls"`
	Status      string   `bson:"status"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
}

func newProductDocument(product *domainproducts.Product) productDocument {
	return productDocument{
		ID:          string(product.ID),
		SellerID:    string(product.Seller),
		BuyerID:     product.BuyerID,
		Title:       product.Title,
		Description: product.Description,
		Category:    product.Category,
		PriceCents:  product.PriceCents,
		ImageURLs:   product.ImageURLs,
		Status:      string(product.Status),
		CreatedAt:   product.CreatedAt.UnixMilli(),
		UpdatedAt:   product.UpdatedAt.UnixMilli(),
	}
}

func (d productDocument) toAggregate() *domainproducts.Product {
	return &domainproducts.Product{
		ID:          domainproducts.ProductID(d.ID),
		Seller:      domainproducts.SellerID(d.SellerID),
		BuyerID:     d.BuyerID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		PriceCents:  d.PriceCents,
		ImageURLs:   d.ImageURLs,
		Status:      domainproducts.Status(d.Status),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
	}
}

type FavoriteRepository struct {
	col *mongo.Collection
}

func NewFavoriteRepository(db *mongo.Database) *FavoriteRepository {
	return &FavoriteRepository{col: db.Collection("favorites")}
}

func (r *FavoriteRepository) Set(ctx context.Context, userID string, productID domainproducts.ProductID, favored bool, now time.Time) error {
	id := userID + ":" + string(productID)
	if !favored {
		_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
		return err
	}
	doc := favoriteDocument{
		ID:        id,
		UserID:    userID,
		ProductID: string(productID),
		CreatedAt: now.UnixMilli(),
	}
	update := bson.M{"$setOnInsert": doc}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update, opts)
	return err
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domainproducts.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]domainproducts.Favorite, 0)
	for cursor.Next(ctx) {
		var doc favoriteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainproducts.Favorite{
			UserID:    doc.UserID,
			ProductID: domainproducts.ProductID(doc.ProductID),
			CreatedAt: timestampToTime(doc.CreatedAt),
		})
	}
	return out, cursor.Err()
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID string, productID domainproducts.ProductID) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"_id": userID + ":" + string(productID)}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type favoriteDocument struct {
	ID        string `bson:"_id"`
	UserID    string `bson:"user_id"`
	ProductID string `bson:"product_id"`
	CreatedAt int64  `bson:"created_at"`
}
