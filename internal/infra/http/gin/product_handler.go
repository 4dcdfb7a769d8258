package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	productsapp "campustrades/internal/app/handlers/products"
	"campustrades/internal/app/queries"
	domainproducts "campustrades/internal/domain/products"
	"campustrades/internal/infra/storage/s3"
)

// ProductHandler serves the listing catalog and seller operations.
type ProductHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Uploader s3.Uploader
	Logger   *slog.Logger
}

// Catalog is the public product search.
func (h ProductHandler) Catalog(c *gin.Context) {
	query := productsapp.CatalogQuery{
		Query:         c.Query("q"),
		Category:      c.Query("category"),
		Seller:        c.Query("seller"),
		Sort:          c.Query("sort"),
		PriceMinCents: parsePriceCents(c.Query("price_min")),
		PriceMaxCents: parsePriceCents(c.Query("price_max")),
		Limit:         parsePositiveInt(c.Query("limit"), 24),
		Offset:        parsePositiveInt(c.Query("offset"), 0),
		IncludeSold:   c.Query("include_sold") == "true",
	}
	result, err := queries.Ask[productsapp.CatalogQuery, dto.ProductCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns one listing.
func (h ProductHandler) Get(c *gin.Context) {
	query := productsapp.GetProductQuery{ProductID: c.Param("id")}
	product, err := queries.Ask[productsapp.GetProductQuery, dto.Product](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int64    `json:"price_cents"`
	ImageURLs   []string `json:"image_urls"`
}

// Create lists a new item for sale.
func (h ProductHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := productsapp.CreateProductCommand{
		ViewerID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		ImageURLs:   req.ImageURLs,
		Now:         time.Now().UTC(),
	}
	product, err := commands.Dispatch[productsapp.CreateProductCommand, dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// Update edits a listing's details.
func (h ProductHandler) Update(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := productsapp.UpdateProductCommand{
		ViewerID:    user.ID,
		ProductID:   c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Now:         time.Now().UTC(),
	}
	product, err := commands.Dispatch[productsapp.UpdateProductCommand, dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type markSoldRequest struct {
	BuyerID string `json:"buyer_id"`
}

// MarkSold closes the sale and names the buyer.
func (h ProductHandler) MarkSold(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req markSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := productsapp.MarkSoldCommand{
		ViewerID:  user.ID,
		ProductID: c.Param("id"),
		BuyerID:   req.BuyerID,
		Now:       time.Now().UTC(),
	}
	product, err := commands.Dispatch[productsapp.MarkSoldCommand, dto.Product](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// UploadImage stores a listing photo and returns its public URL.
func (h ProductHandler) UploadImage(c *gin.Context) {
	if _, ok := requireRole(c, ""); !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage unavailable"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image"})
		return
	}
	defer src.Close()

	key := "products/" + uuid.NewString() + path.Ext(file.Filename)
	contentType := file.Header.Get("Content-Type")
	url, err := h.Uploader.Upload(c.Request.Context(), key, src, contentType)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("image upload failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type favoriteRequest struct {
	Favored bool `json:"favored"`
}

// SetFavorite stars or unstars a listing for the viewer.
func (h ProductHandler) SetFavorite(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := productsapp.SetFavoriteCommand{
		ViewerID:  user.ID,
		ProductID: c.Param("id"),
		Favored:   req.Favored,
		Now:       time.Now().UTC(),
	}
	state, err := commands.Dispatch[productsapp.SetFavoriteCommand, dto.FlagState](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ListFavorites returns the viewer's starred listings.
func (h ProductHandler) ListFavorites(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := productsapp.ListFavoritesQuery{ViewerID: user.ID}
	result, err := queries.Ask[productsapp.ListFavoritesQuery, dto.ProductCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondProductError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ProductHandler) respondProductError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, domainproducts.ErrTitleRequired),
		errors.Is(err, domainproducts.ErrCategoryRequired),
		errors.Is(err, domainproducts.ErrNegativePrice),
		errors.Is(err, domainproducts.ErrBuyerRequired),
		errors.Is(err, domainproducts.ErrBuyerIsSeller):
		status = http.StatusBadRequest
	case errors.Is(err, domainproducts.ErrNotSeller):
		status = http.StatusForbidden
	case errors.Is(err, domainproducts.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainproducts.ErrAlreadySold):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error("product request failed", "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parsePriceCents(raw string) int64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

var _ ProductHTTP = ProductHandler{}
