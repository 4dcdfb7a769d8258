package ratings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/outbox"
	"campustrades/internal/app/uow"
	domainproducts "campustrades/internal/domain/products"
	domainratings "campustrades/internal/domain/ratings"
)

const submitRatingKey = "ratings.submit"

var (
	ErrNotBuyer       = errors.New("ratings: product was not bought by current user")
	ErrProductNotSold = errors.New("ratings: product is not sold")
)

// SubmitRatingCommand records the viewer's 1-5 score for a purchase.
type SubmitRatingCommand struct {
	ViewerID  string
	ProductID string
	Rating    int
	Now       time.Time
}

func (c SubmitRatingCommand) Key() string { return submitRatingKey }

// SubmitRatingHandler validates purchase ownership, rejects duplicates and
// stores the rating.
type SubmitRatingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SubmitRatingHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) (dto.Rating, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Rating{}, err
	}

	rating, err := h.submit(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.Rating{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("rating submitted",
			"product_id", string(rating.ProductID),
			"buyer_id", rating.BuyerID,
			"rating", rating.Rating,
		)
	}
	return dto.MapRating(rating), nil
}

func (h *SubmitRatingHandler) submit(ctx context.Context, unit uow.UnitOfWork, cmd SubmitRatingCommand) (*domainratings.Rating, error) {
	product, err := unit.Products().ByID(ctx, domainproducts.ProductID(cmd.ProductID))
	if err != nil {
		return nil, err
	}
	if product.Status != domainproducts.StatusSold {
		return nil, ErrProductNotSold
	}
	if product.BuyerID != cmd.ViewerID {
		return nil, ErrNotBuyer
	}

	existing, err := unit.Ratings().ByProductAndBuyer(ctx, product.ID, cmd.ViewerID)
	if err != nil && !errors.Is(err, domainratings.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domainratings.ErrDuplicate
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	rating, err := domainratings.Submit(domainratings.SubmitParams{
		ID:        domainratings.RatingID(uuid.NewString()),
		ProductID: product.ID,
		SellerID:  string(product.Seller),
		BuyerID:   cmd.ViewerID,
		Rating:    cmd.Rating,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Ratings().Save(ctx, rating); err != nil {
		return nil, err
	}

	pending := rating.PendingEvents()
	rating.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}
	return rating, nil
}

func (h *SubmitRatingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SubmitRatingCommand, dto.Rating] = (*SubmitRatingHandler)(nil)
