package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	domainrequests "campustrades/internal/domain/requests"
)

type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{col: db.Collection("item_requests")}
}

func (r *RequestRepository) ByID(ctx context.Context, id domainrequests.RequestID) (*domainrequests.ItemRequest, error) {
	var doc requestDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrequests.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]*domainrequests.ItemRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "fulfilled", Value: 1}, {Key: "created_at", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainrequests.ItemRequest, 0)
	for cursor.Next(ctx) {
		var doc requestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

func (r *RequestRepository) Save(ctx context.Context, request *domainrequests.ItemRequest) error {
	doc := newRequestDocument(request)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type requestDocument struct {
	ID          string `bson:"_id"`
	RequesterID string `bson:"requester_id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Fulfilled   bool   `bson:"fulfilled"`
	FulfilledBy string `bson:"fulfilled_by"`
	CreatedAt   int64  `bson:"created_at"`
}

func newRequestDocument(request *domainrequests.ItemRequest) requestDocument {
	return requestDocument{
		ID:          string(request.ID),
		RequesterID: request.RequesterID,
		Title:       request.Title,
		Description: request.Description,
		Fulfilled:   request.Fulfilled,
		FulfilledBy: request.FulfilledBy,
		CreatedAt:   request.CreatedAt.UnixMilli(),
	}
}

func (d requestDocument) toAggregate() *domainrequests.ItemRequest {
	return &domainrequests.ItemRequest{
		ID:          domainrequests.RequestID(d.ID),
		RequesterID: d.RequesterID,
		Title:       d.Title,
		Description: d.Description,
		Fulfilled:   d.Fulfilled,
		FulfilledBy: d.FulfilledBy,
		CreatedAt:   timestampToTime(d.CreatedAt),
	}
}

type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection("ratings")}
}

func (r *RatingRepository) ByProductAndBuyer(ctx context.Context, productID domainproducts.ProductID, buyerID string) (*domainratings.Rating, error) {
	var doc ratingDocument
	filter := bson.M{"product_id": string(productID), "buyer_id": buyerID}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainratings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RatingRepository) RatedProductIDs(ctx context.Context, buyerID string) (map[domainproducts.ProductID]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"product_id": 1})
	cursor, err := r.col.Find(ctx, bson.M{"buyer_id": buyerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make(map[domainproducts.ProductID]struct{})
	for cursor.Next(ctx) {
		var doc ratingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out[domainproducts.ProductID(doc.ProductID)] = struct{}{}
	}
	return out, cursor.Err()
}

func (r *RatingRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domainratings.Rating, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"seller_id": sellerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]*domainratings.Rating, 0)
	for cursor.Next(ctx) {
		var doc ratingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

// Save inserts the rating. The (product, buyer) unique index turns concurrent
// duplicate submissions into ErrDuplicate.
func (r *RatingRepository) Save(ctx context.Context, rating *domainratings.Rating) error {
	_, err := r.col.InsertOne(ctx, newRatingDocument(rating))
	if mongo.IsDuplicateKeyError(err) {
		return domainratings.ErrDuplicate
	}
	return err
}

type ratingDocument struct {
	ID        string `bson:"_id"`
	ProductID string `bson:"product_id"`
	SellerID  string `bson:"seller_id"`
	BuyerID   string `bson:"buyer_id"`
	Rating    int    `bson:"rating"`
	CreatedAt int64  `bson:"created_at"`
}

func newRatingDocument(rating *domainratings.Rating) ratingDocument {
	return ratingDocument{
		ID:        string(rating.ID),
		ProductID: string(rating.ProductID),
		SellerID:  rating.SellerID,
		BuyerID:   rating.BuyerID,
		Rating:    rating.Rating,
		CreatedAt: rating.CreatedAt.UnixMilli(),
	}
}

func (d ratingDocument) toAggregate() *domainratings.Rating {
	return &domainratings.Rating{
		ID:        domainratings.RatingID(d.ID),
		ProductID: domainproducts.ProductID(d.ProductID),
		SellerID:  d.SellerID,
		BuyerID:   d.BuyerID,
		Rating:    d.Rating,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection("profiles")}
}

func (r *ProfileRepository) ByUserID(ctx context.Context, userID string) (*domainprofiles.Profile, error) {
	var doc profileDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainprofiles.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProfileRepository) ByUserIDs(ctx context.Context, userIDs []string) (map[string]*domainprofiles.Profile, error) {
	out := make(map[string]*domainprofiles.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc profileDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		profile := doc.toAggregate()
		out[profile.UserID] = profile
	}
	return out, cursor.Err()
}

func (r *ProfileRepository) Save(ctx context.Context, profile *domainprofiles.Profile) error {
	doc := newProfileDocument(profile)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type profileDocument struct {
	ID        string `bson:"_id"`
	FullName  string `bson:"full_name"`
	AvatarURL string `bson:"avatar_url"`
	Campus    string `bson:"campus"`
	UpdatedAt int64  `bson:"updated_at"`
}

func newProfileDocument(profile *domainprofiles.Profile) profileDocument {
	return profileDocument{
		ID:        profile.UserID,
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		Campus:    profile.Campus,
		UpdatedAt: profile.UpdatedAt.UnixMilli(),
	}
}

func (d profileDocument) toAggregate() *domainprofiles.Profile {
	return &domainprofiles.Profile{
		UserID:    d.ID,
		FullName:  d.FullName,
		AvatarURL: d.AvatarURL,
		Campus:    d.Campus,
		UpdatedAt: timestampToTime(d.UpdatedAt),
	}
}
