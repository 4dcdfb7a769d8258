package memory

import (
	"context"
	"errors"

	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	domainrequests "campustrades/internal/domain/requests"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ConversationRepo domainchat.ConversationRepository
	MessageRepo      domainchat.MessageRepository
	ParticipantRepo  domainchat.ParticipantStateRepository
	ProductRepo      domainproducts.Repository
	FavoriteRepo     domainproducts.FavoriteRepository
	RequestRepo      domainrequests.Repository
	RatingRepo       domainratings.Repository
	ProfileRepo      domainprofiles.Repository
}

// NewFactory builds a factory over fresh empty stores.
func NewFactory() Factory {
	return Factory{
		ConversationRepo: NewConversationRepository(),
		MessageRepo:      NewMessageRepository(),
		ParticipantRepo:  NewParticipantStateRepository(),
		ProductRepo:      NewProductRepository(),
		FavoriteRepo:     NewFavoriteRepository(),
		RequestRepo:      NewRequestRepository(),
		RatingRepo:       NewRatingRepository(),
		ProfileRepo:      NewProfileRepository(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ConversationRepo == nil || f.MessageRepo == nil || f.ParticipantRepo == nil ||
		f.ProductRepo == nil || f.FavoriteRepo == nil || f.RequestRepo == nil ||
		f.RatingRepo == nil || f.ProfileRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{factory: f}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	factory Factory
}

func (u *Unit) Conversations() domainchat.ConversationRepository {
	return u.factory.ConversationRepo
}

func (u *Unit) Messages() domainchat.MessageRepository {
	return u.factory.MessageRepo
}

func (u *Unit) Participants() domainchat.ParticipantStateRepository {
	return u.factory.ParticipantRepo
}

func (u *Unit) Products() domainproducts.Repository {
	return u.factory.ProductRepo
}

func (u *Unit) Favorites() domainproducts.FavoriteRepository {
	return u.factory.FavoriteRepo
}

func (u *Unit) Requests() domainrequests.Repository {
	return u.factory.RequestRepo
}

func (u *Unit) Ratings() domainratings.Repository {
	return u.factory.RatingRepo
}

func (u *Unit) Profiles() domainprofiles.Repository {
	return u.factory.ProfileRepo
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
