package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	requestsapp "campustrades/internal/app/handlers/requests"
	"campustrades/internal/app/queries"
	domainrequests "campustrades/internal/domain/requests"
)

// RequestHandler serves the "wanted" board.
type RequestHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h RequestHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := requestsapp.CreateRequestCommand{
		ViewerID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
		Now:         time.Now().UTC(),
	}
	request, err := commands.Dispatch[requestsapp.CreateRequestCommand, dto.ItemRequest](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h RequestHandler) List(c *gin.Context) {
	query := requestsapp.ListRequestsQuery{
		Limit:  parsePositiveInt(c.Query("limit"), 24),
		Offset: parsePositiveInt(c.Query("offset"), 0),
	}
	result, err := queries.Ask[requestsapp.ListRequestsQuery, dto.ItemRequestCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RequestHandler) Fulfill(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := requestsapp.FulfillRequestCommand{
		ViewerID:  user.ID,
		RequestID: c.Param("id"),
		Now:       time.Now().UTC(),
	}
	request, err := commands.Dispatch[requestsapp.FulfillRequestCommand, dto.ItemRequest](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h RequestHandler) respondRequestError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domainrequests.ErrTitleRequired),
		errors.Is(err, domainrequests.ErrSelfFulfillment):
		status = http.StatusBadRequest
	case errors.Is(err, domainrequests.ErrAlreadyFulfilled):
		status = http.StatusConflict
	case errors.Is(err, domainrequests.ErrNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("item request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ RequestHTTP = RequestHandler{}
