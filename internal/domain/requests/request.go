package requests

import (
	"context"
	"errors"
	"strings"
	"time"

	"campustrades/internal/domain/shared/events"
)

var (
	ErrIDRequired        = errors.New("requests: id is required")
	ErrRequesterRequired = errors.New("requests: requester is required")
	ErrTitleRequired     = errors.New("requests: title is required")
	ErrAlreadyFulfilled  = errors.New("requests: request already fulfilled")
	ErrFulfillerRequired = errors.New("requests: fulfiller is required")
	ErrSelfFulfillment   = errors.New("requests: requester cannot fulfill their own request")
	ErrNotFound          = errors.New("requests: not found")
)

type RequestID string

// ItemRequest is a "wanted" post. A conversation anchored to a request casts
// the requester as buyer and the would-be fulfiller as seller.
type ItemRequest struct {
	ID          RequestID
	RequesterID string
	Title       string
	Description string
	Fulfilled   bool
	FulfilledBy string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RequestID) (*ItemRequest, error)
	// List returns open requests first, newest first within each group.
	List(ctx context.Context, limit, offset int) ([]*ItemRequest, error)
	Save(ctx context.Context, request *ItemRequest) error
}

type CreateParams struct {
	ID          RequestID
	RequesterID string
	Title       string
	Description string
	Now         time.Time
}

func New(params CreateParams) (*ItemRequest, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	requester := strings.TrimSpace(params.RequesterID)
	if requester == "" {
		return nil, ErrRequesterRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &ItemRequest{
		ID:          params.ID,
		RequesterID: requester,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkFulfilled records who fulfilled the request. Fulfilling twice fails.
func (r *ItemRequest) MarkFulfilled(fulfillerID string, now time.Time) error {
	if r.Fulfilled {
		return ErrAlreadyFulfilled
	}
	fulfillerID = strings.TrimSpace(fulfillerID)
	if fulfillerID == "" {
		return ErrFulfillerRequired
	}
	if fulfillerID == r.RequesterID {
		return ErrSelfFulfillment
	}
	now = now.UTC()
	r.Fulfilled = true
	r.FulfilledBy = fulfillerID
	r.UpdatedAt = now
	r.Record(RequestFulfilled{RequestID: r.ID, RequesterID: r.RequesterID, FulfilledBy: fulfillerID, At: now})
	return nil
}

type RequestFulfilled struct {
	RequestID   RequestID
	RequesterID string
	FulfilledBy string
	At          time.Time
}

func (e RequestFulfilled) EventName() string     { return "requests.fulfilled" }
func (e RequestFulfilled) AggregateID() string   { return string(e.RequestID) }
func (e RequestFulfilled) OccurredAt() time.Time { return e.At }
