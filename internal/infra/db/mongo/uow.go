package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	domainrequests "campustrades/internal/domain/requests"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ConversationRepo domainchat.ConversationRepository
	MessageRepo      domainchat.MessageRepository
	ParticipantRepo  domainchat.ParticipantStateRepository
	ProductRepo      domainproducts.Repository
	FavoriteRepo     domainproducts.FavoriteRepository
	RequestRepo      domainrequests.Repository
	RatingRepo       domainratings.Repository
	ProfileRepo      domainprofiles.Repository
}

// NewFactory builds a factory with repositories bound to the database's
// collections.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		ConversationRepo: NewConversationRepository(db),
		MessageRepo:      NewMessageRepository(db),
		ParticipantRepo:  NewParticipantStateRepository(db),
		ProductRepo:      NewProductRepository(db),
		FavoriteRepo:     NewFavoriteRepository(db),
		RequestRepo:      NewRequestRepository(db),
		RatingRepo:       NewRatingRepository(db),
		ProfileRepo:      NewProfileRepository(db),
	}
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{factory: f, session: session}, nil
}

type Unit struct {
	factory Factory
	session mongo.Session
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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
