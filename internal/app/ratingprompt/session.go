// Package ratingprompt drives the post-purchase rating prompt: a session
// walks the viewer through their unrated purchases one at a time until every
// item is handled or the viewer dismisses the prompt.
package ratingprompt

import (
	"context"
	"errors"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	"campustrades/internal/app/handlers/ratings"
	"campustrades/internal/app/queries"
)

var ErrSessionClosed = errors.New("ratingprompt: session is closed")

// Session walks the viewer's pending ratings front to back. Skipping moves to
// the next item, submitting removes the current one, and advancing past the
// last item closes the session just like an explicit dismiss. A closed
// session never reactivates.
type Session struct {
	viewerID  string
	items     []dto.PendingRating
	index     int
	dismissed bool
}

func NewSession(viewerID string, items []dto.PendingRating) *Session {
	return &Session{viewerID: viewerID, items: items}
}

// Active reports whether the prompt should be shown.
func (s *Session) Active() bool {
	return !s.dismissed && len(s.items) > 0
}

// Current returns the purchase the prompt is showing.
func (s *Session) Current() (dto.PendingRating, bool) {
	if !s.Active() {
		return dto.PendingRating{}, false
	}
	return s.items[s.index], true
}

// Skip advances to the next pending purchase. Skipping the last one closes
// the session.
func (s *Session) Skip() {
	if !s.Active() {
		return
	}
	s.index++
	if s.index >= len(s.items) {
		s.dismissed = true
	}
}

// Dismiss closes the session. A dismissed session never reactivates.
func (s *Session) Dismiss() {
	s.dismissed = true
}

// Remaining reports how many purchases still await a rating.
func (s *Session) Remaining() int {
	if s.dismissed {
		return 0
	}
	return len(s.items)
}

// drop removes the current item after a successful submit, keeping the index
// on the following item. Submitting with nothing left beyond the current
// item closes the session, even when earlier items were skipped.
func (s *Session) drop() {
	if !s.Active() {
		return
	}
	s.items = append(s.items[:s.index], s.items[s.index+1:]...)
	if s.index >= len(s.items) {
		s.dismissed = true
	}
}

// Prompter opens rating-prompt sessions and submits ratings through the
// application buses.
type Prompter struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Open loads the viewer's pending ratings into a fresh session.
func (p *Prompter) Open(ctx context.Context, viewerID string) (*Session, error) {
	pending, err := queries.Ask[ratings.PendingRatingsQuery, dto.PendingRatingCollection](
		ctx, p.Queries, ratings.PendingRatingsQuery{ViewerID: viewerID},
	)
	if err != nil {
		return nil, err
	}
	return NewSession(viewerID, pending.Items), nil
}

// Submit records a rating for the session's current purchase and advances.
// Validation failures leave the session untouched so the viewer can retry.
func (p *Prompter) Submit(ctx context.Context, session *Session, score int) (dto.Rating, error) {
	current, ok := session.Current()
	if !ok {
		return dto.Rating{}, ErrSessionClosed
	}
	rating, err := commands.Dispatch[ratings.SubmitRatingCommand, dto.Rating](
		ctx, p.Commands, ratings.SubmitRatingCommand{
			ViewerID:  session.viewerID,
			ProductID: current.ProductID,
			Rating:    score,
		},
	)
	if err != nil {
		return dto.Rating{}, err
	}
	session.drop()
	return rating, nil
}
