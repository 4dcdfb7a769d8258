package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"campustrades/internal/infra/config"
	"campustrades/internal/infra/obs"
)

type ChatHTTP interface {
	Directory(c *gin.Context)
	UnreadCount(c *gin.Context)
	Start(c *gin.Context)
	Open(c *gin.Context)
	Send(c *gin.Context)
	SetFlag(c *gin.Context)
	ToggleFlag(c *gin.Context)
	Delete(c *gin.Context)
}

type ProductHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	MarkSold(c *gin.Context)
	UploadImage(c *gin.Context)
	SetFavorite(c *gin.Context)
	ListFavorites(c *gin.Context)
}

type RequestHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Fulfill(c *gin.Context)
}

type RatingHTTP interface {
	Pending(c *gin.Context)
	Submit(c *gin.Context)
	BySeller(c *gin.Context)
}

type ProfileHTTP interface {
	Get(c *gin.Context)
	UpdateMe(c *gin.Context)
}

type Handlers struct {
	Chat           ChatHTTP
	Product        ProductHTTP
	Request        RequestHTTP
	Rating         RatingHTTP
	Profile        ProfileHTTP
	Auth           AuthHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Chat != nil {
		chatGroup := api.Group("/conversations")
		chatGroup.GET("", h.Chat.Directory)
		chatGroup.POST("", h.Chat.Start)
		chatGroup.GET("/unread-count", h.Chat.UnreadCount)
		chatGroup.POST("/:id/open", h.Chat.Open)
		chatGroup.POST("/:id/messages", h.Chat.Send)
		chatGroup.PUT("/:id/flags/:flag", h.Chat.SetFlag)
		chatGroup.POST("/:id/flags/:flag/toggle", h.Chat.ToggleFlag)
		chatGroup.DELETE("/:id", h.Chat.Delete)
	}
	if h.Product != nil {
		api.GET("/products", h.Product.Catalog)
		api.POST("/products", h.Product.Create)
		api.GET("/products/:id", h.Product.Get)
		api.PUT("/products/:id", h.Product.Update)
		api.POST("/products/:id/sold", h.Product.MarkSold)
		api.POST("/products/images", h.Product.UploadImage)
		api.PUT("/products/:id/favorite", h.Product.SetFavorite)
		api.GET("/me/favorites", h.Product.ListFavorites)
	}
	if h.Request != nil {
		api.GET("/item-requests", h.Request.List)
		api.POST("/item-requests", h.Request.Create)
		api.POST("/item-requests/:id/fulfill", h.Request.Fulfill)
	}
	if h.Rating != nil {
		api.GET("/me/pending-ratings", h.Rating.Pending)
		api.POST("/ratings", h.Rating.Submit)
		api.GET("/users/:id/ratings", h.Rating.BySeller)
	}
	if h.Profile != nil {
		api.GET("/users/:id/profile", h.Profile.Get)
		api.PUT("/me/profile", h.Profile.UpdateMe)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
