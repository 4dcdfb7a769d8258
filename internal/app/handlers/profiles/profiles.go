package profiles

import (
	"context"
	"errors"
	"time"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	handlersupport "campustrades/internal/app/handlers/support"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/uow"
	domainprofiles "campustrades/internal/domain/profiles"
)

const (
	getProfileKey    = "profiles.get"
	updateProfileKey = "profiles.update"
)

// GetProfileQuery fetches a user's public profile.
type GetProfileQuery struct {
	UserID string
}

func (q GetProfileQuery) Key() string { return getProfileKey }

type GetProfileHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (dto.Profile, error) {
	unit, ctx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Profile{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	profile, err := unit.Profiles().ByUserID(ctx, q.UserID)
	if err != nil {
		return dto.Profile{}, err
	}
	return dto.MapProfile(q.UserID, profile), nil
}

// UpdateProfileCommand edits the viewer's own profile. A missing profile row
// is created on first update.
type UpdateProfileCommand struct {
	ViewerID  string
	FullName  string
	AvatarURL string
	Campus    string
	Now       time.Time
}

func (c UpdateProfileCommand) Key() string { return updateProfileKey }

type UpdateProfileHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (dto.Profile, error) {
	unit, ctx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Profile{}, err
	}

	profile, err := h.update(ctx, unit, cmd)
	if err = finish(ctx, err); err != nil {
		return dto.Profile{}, err
	}
	return dto.MapProfile(cmd.ViewerID, profile), nil
}

func (h *UpdateProfileHandler) update(ctx context.Context, unit uow.UnitOfWork, cmd UpdateProfileCommand) (*domainprofiles.Profile, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	profile, err := unit.Profiles().ByUserID(ctx, cmd.ViewerID)
	switch {
	case err == nil:
		if err := profile.Update(cmd.FullName, cmd.AvatarURL, cmd.Campus, now); err != nil {
			return nil, err
		}
	case errors.Is(err, domainprofiles.ErrNotFound):
		profile, err = domainprofiles.New(cmd.ViewerID, cmd.FullName, cmd.Campus, now)
		if err != nil {
			return nil, err
		}
		if cmd.AvatarURL != "" {
			profile.AvatarURL = cmd.AvatarURL
		}
	default:
		return nil, err
	}

	if err := unit.Profiles().Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

var (
	_ queries.Handler[GetProfileQuery, dto.Profile]        = (*GetProfileHandler)(nil)
	_ commands.Handler[UpdateProfileCommand, dto.Profile]  = (*UpdateProfileHandler)(nil)
)
