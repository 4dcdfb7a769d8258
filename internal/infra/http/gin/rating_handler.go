package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	ratingsapp "campustrades/internal/app/handlers/ratings"
	"campustrades/internal/app/queries"
	domainproducts "campustrades/internal/domain/products"
	domainratings "campustrades/internal/domain/ratings"
)

// RatingHandler serves the post-purchase rating prompt: the pending list and
// rating submission.
type RatingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// Pending returns the viewer's unrated purchases.
func (h RatingHandler) Pending(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := ratingsapp.PendingRatingsQuery{ViewerID: user.ID}
	result, err := queries.Ask[ratingsapp.PendingRatingsQuery, dto.PendingRatingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondRatingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type submitRatingRequest struct {
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
}

// Submit records a 1-5 score for a purchase.
func (h RatingHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := ratingsapp.SubmitRatingCommand{
		ViewerID:  user.ID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Now:       time.Now().UTC(),
	}
	rating, err := commands.Dispatch[ratingsapp.SubmitRatingCommand, dto.Rating](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondRatingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

// BySeller lists a seller's received ratings with their average.
func (h RatingHandler) BySeller(c *gin.Context) {
	query := ratingsapp.SellerRatingsQuery{SellerID: c.Param("id")}
	result, err := queries.Ask[ratingsapp.SellerRatingsQuery, dto.SellerRatings](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondRatingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RatingHandler) respondRatingError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domainratings.ErrInvalidRating),
		errors.Is(err, ratingsapp.ErrProductNotSold):
		status = http.StatusBadRequest
	case errors.Is(err, ratingsapp.ErrNotBuyer):
		status = http.StatusForbidden
	case errors.Is(err, domainratings.ErrDuplicate):
		status = http.StatusConflict
	case errors.Is(err, domainproducts.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("rating request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ RatingHTTP = RatingHandler{}
