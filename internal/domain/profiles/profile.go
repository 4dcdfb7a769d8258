package profiles

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrUserIDRequired = errors.New("profiles: user id is required")
	ErrNameRequired   = errors.New("profiles: full name is required")
	ErrNotFound       = errors.New("profiles: not found")
)

// Profile is the public identity shown next to listings and messages.
type Profile struct {
	UserID    string
	FullName  string
	AvatarURL string
	Campus    string
	UpdatedAt time.Time
}

type Repository interface {
	ByUserID(ctx context.Context, userID string) (*Profile, error)
	// ByUserIDs batch-loads profiles for display enrichment; missing users
	// are absent from the result map, not an error.
	ByUserIDs(ctx context.Context, userIDs []string) (map[string]*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}

func New(userID, fullName, campus string, now time.Time) (*Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, ErrNameRequired
	}
	if now.IsZero() {
		now = time.Now()
	}
	return &Profile{
		UserID:    userID,
		FullName:  fullName,
		Campus:    strings.TrimSpace(campus),
		UpdatedAt: now.UTC(),
	}, nil
}

// Update replaces the editable fields, keeping the avatar when the new value
// is blank.
func (p *Profile) Update(fullName, avatarURL, campus string, now time.Time) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return ErrNameRequired
	}
	p.FullName = fullName
	if avatarURL = strings.TrimSpace(avatarURL); avatarURL != "" {
		p.AvatarURL = avatarURL
	}
	p.Campus = strings.TrimSpace(campus)
	p.UpdatedAt = now.UTC()
	return nil
}

// Initial returns the avatar-fallback letter.
func (p *Profile) Initial() string {
	name := strings.TrimSpace(p.FullName)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(name[:1])
}
