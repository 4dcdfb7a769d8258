package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	profilesapp "campustrades/internal/app/handlers/profiles"
	"campustrades/internal/app/queries"
	domainprofiles "campustrades/internal/domain/profiles"
)

// ProfileHandler serves public profiles and the viewer's own profile edits.
type ProfileHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h ProfileHandler) Get(c *gin.Context) {
	query := profilesapp.GetProfileQuery{UserID: c.Param("id")}
	profile, err := queries.Ask[profilesapp.GetProfileQuery, dto.Profile](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Campus    string `json:"campus"`
}

func (h ProfileHandler) UpdateMe(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := profilesapp.UpdateProfileCommand{
		ViewerID:  user.ID,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Campus:    req.Campus,
		Now:       time.Now().UTC(),
	}
	profile, err := commands.Dispatch[profilesapp.UpdateProfileCommand, dto.Profile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h ProfileHandler) respondProfileError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domainprofiles.ErrNameRequired):
		status = http.StatusBadRequest
	case errors.Is(err, domainprofiles.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("profile request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ ProfileHTTP = ProfileHandler{}
