package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	chatapp "campustrades/internal/app/handlers/chat"
	"campustrades/internal/app/queries"
	"campustrades/internal/app/unread"
	"campustrades/internal/app/uow"
	domainchat "campustrades/internal/domain/chat"
	domainproducts "campustrades/internal/domain/products"
	domainrequests "campustrades/internal/domain/requests"
)

// ChatHandler exposes the conversation directory, threads, flags and the
// unread badge over HTTP.
type ChatHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Counter  *unread.Counter
	Logger   *slog.Logger
}

// Directory returns the viewer's conversations, optionally filtered with
// ?filter=unread or ?filter=important.
func (h ChatHandler) Directory(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := chatapp.DirectoryQuery{
		ViewerID: user.ID,
		Filter:   chatapp.ParseFilter(c.Query("filter")),
	}
	directory, err := queries.Ask[chatapp.DirectoryQuery, dto.Directory](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, directory)
}

// UnreadCount serves the notification badge through the short-TTL counter.
func (h ChatHandler) UnreadCount(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	count, err := h.Counter.Count(c.Request.Context(), user.ID)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCount{Count: count})
}

type startConversationRequest struct {
	ProductID     string `json:"product_id"`
	ItemRequestID string `json:"item_request_id"`
}

// Start opens (or returns the existing) conversation for a listing or an
// item request.
func (h ChatHandler) Start(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := chatapp.StartConversationCommand{
		ViewerID:      user.ID,
		ProductID:     req.ProductID,
		ItemRequestID: req.ItemRequestID,
		Now:           time.Now().UTC(),
	}
	summary, err := commands.Dispatch[chatapp.StartConversationCommand, dto.ConversationSummary](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// Open loads a thread and clears the viewer's unread flag.
func (h ChatHandler) Open(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := chatapp.OpenThreadCommand{
		ViewerID:       user.ID,
		ConversationID: c.Param("id"),
		Now:            time.Now().UTC(),
	}
	thread, err := commands.Dispatch[chatapp.OpenThreadCommand, dto.Thread](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	h.Counter.Invalidate(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, thread)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// Send appends a message to the thread.
func (h ChatHandler) Send(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := chatapp.SendMessageCommand{
		ViewerID:        user.ID,
		ConversationID:  c.Param("id"),
		Content:         req.Content,
		Now:             time.Now().UTC(),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	message, err := commands.Dispatch[chatapp.SendMessageCommand, *dto.Message](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

type setFlagRequest struct {
	Value bool `json:"value"`
}

// SetFlag writes one of the viewer's flags to an exact value.
func (h ChatHandler) SetFlag(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	flag, ok := parseFlag(c)
	if !ok {
		return
	}
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := chatapp.SetFlagCommand{
		ViewerID:       user.ID,
		ConversationID: c.Param("id"),
		Flag:           flag,
		Value:          req.Value,
	}
	state, err := commands.Dispatch[chatapp.SetFlagCommand, dto.FlagState](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	h.invalidateOnUnreadChange(c, flag, user.ID)
	c.JSON(http.StatusOK, state)
}

// ToggleFlag flips one of the viewer's flags and returns the new value.
func (h ChatHandler) ToggleFlag(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	flag, ok := parseFlag(c)
	if !ok {
		return
	}
	cmd := chatapp.ToggleFlagCommand{
		ViewerID:       user.ID,
		ConversationID: c.Param("id"),
		Flag:           flag,
	}
	state, err := commands.Dispatch[chatapp.ToggleFlagCommand, dto.FlagState](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	h.invalidateOnUnreadChange(c, flag, user.ID)
	c.JSON(http.StatusOK, state)
}

// Delete removes a conversation along with its messages and flags.
func (h ChatHandler) Delete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := chatapp.DeleteConversationCommand{
		ViewerID:       user.ID,
		ConversationID: c.Param("id"),
		Now:            time.Now().UTC(),
	}
	if _, err := commands.Dispatch[chatapp.DeleteConversationCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		h.respondChatError(c, err)
		return
	}
	h.Counter.Invalidate(c.Request.Context(), user.ID)
	c.Status(http.StatusNoContent)
}

func (h ChatHandler) invalidateOnUnreadChange(c *gin.Context, flag domainchat.Flag, viewerID string) {
	if flag == domainchat.FlagUnread {
		h.Counter.Invalidate(c.Request.Context(), viewerID)
	}
}

func parseFlag(c *gin.Context) (domainchat.Flag, bool) {
	switch flag := domainchat.Flag(c.Param("flag")); flag {
	case domainchat.FlagUnread, domainchat.FlagImportant:
		return flag, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown flag"})
		return "", false
	}
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domainchat.ErrEmptyContent),
		errors.Is(err, domainchat.ErrAnchorRequired),
		errors.Is(err, domainchat.ErrAnchorAmbiguous),
		errors.Is(err, domainchat.ErrSelfConversation):
		status = http.StatusBadRequest
	case errors.Is(err, domainchat.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, domainchat.ErrConversationGone),
		errors.Is(err, domainproducts.ErrNotFound),
		errors.Is(err, domainrequests.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, uow.ErrUnitOfWorkMissing):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("chat request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ ChatHTTP = ChatHandler{}
