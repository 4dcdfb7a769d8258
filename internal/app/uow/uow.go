package uow

import (
	"context"

	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainprofiles "campustrades/internal/domain/profiles"
	domainratings "campustrades/internal/domain/ratings"
	domainrequests "campustrades/internal/domain/requests"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Conversations() domainchat.ConversationRepository
	Messages() domainchat.MessageRepository
	Participants() domainchat.ParticipantStateRepository
	Products() domainproducts.Repository
	Favorites() domainproducts.FavoriteRepository
	Requests() domainrequests.Repository
	Ratings() domainratings.Repository
	Profiles() domainprofiles.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
