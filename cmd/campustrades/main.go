package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"campustrades/internal/app/commands"
	"campustrades/internal/app/dto"
	chatapp "campustrades/internal/app/handlers/chat"
	productsapp "campustrades/internal/app/handlers/products"
	profilesapp "campustrades/internal/app/handlers/profiles"
	ratingsapp "campustrades/internal/app/handlers/ratings"
	requestsapp "campustrades/internal/app/handlers/requests"
	"campustrades/internal/app/middleware"
	appoutbox "campustrades/internal/app/outbox"
	"campustrades/internal/app/queries"
	authsvc "campustrades/internal/app/services/auth"
	"campustrades/internal/app/unread"
	"campustrades/internal/app/uow"
	domainauth "campustrades/internal/domain/auth"
	domainprofiles "campustrades/internal/domain/profiles"
	domainuser "campustrades/internal/domain/user"
	"campustrades/internal/infra/broker/kafka"
	"campustrades/internal/infra/cache"
	"campustrades/internal/infra/config"
	mongodb "campustrades/internal/infra/db/mongo"
	ginserver "campustrades/internal/infra/http/gin"
	"campustrades/internal/infra/inbox"
	"campustrades/internal/infra/obs"
	infraoutbox "campustrades/internal/infra/outbox"
	"campustrades/internal/infra/security"
	"campustrades/internal/infra/storage/memory"
	"campustrades/internal/infra/storage/s3"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	for _, task := range app.background {
		go task(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	background []func(context.Context)
	ready      func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory   uow.UoWFactory
		outboxStore  appoutbox.Outbox
		idemStore    middleware.IdempotencyStore
		profileRepo  domainprofiles.Repository
		userRepo     domainuser.Repository
		sessionStore domainauth.SessionStore
		background   []func(context.Context)
		ready        = func() error { return nil }
		invalidator  *kafka.BadgeInvalidator
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return application{}, err
		}
		uowFactory = mongodb.NewFactory(client.DB)
		profileRepo = mongodb.NewProfileRepository(client.DB)
		userRepo = mongodb.NewUserRepository(client.DB)
		sessionStore = mongodb.NewSessionStore(client.DB)
		idemStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)

		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			background = append(background, func(runCtx context.Context) {
				if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			})
			invalidator = &kafka.BadgeInvalidator{
				Dedup:  inbox.NewStore(client.DB, cfg.KafkaGroupID),
				Logger: logger,
			}
		}
	default:
		factory := memory.NewFactory()
		uowFactory = factory
		profileRepo = factory.ProfileRepo
		userRepo = memory.NewUserRepository()
		sessionStore = memory.NewSessionStore()
		idemStore = memory.NewIdempotencyStore()
		outboxStore = memory.NewOutbox()
	}

	var badgeCache unread.Cache
	if cfg.RedisAddr != "" {
		badgeCache = cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		badgeCache = cache.NewMemoryCache()
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	flagsHandler := &chatapp.FlagsHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(commandBus, chatapp.StartConversationCommand{}.Key(),
		&chatapp.StartConversationHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, chatapp.OpenThreadCommand{}.Key(),
		&chatapp.OpenThreadHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, chatapp.SendMessageCommand{}.Key(),
		&chatapp.SendMessageHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, chatapp.SetFlagCommand{}.Key(),
		commands.HandlerFunc[chatapp.SetFlagCommand, dto.FlagState](flagsHandler.HandleSet))
	commands.RegisterHandler(commandBus, chatapp.ToggleFlagCommand{}.Key(),
		commands.HandlerFunc[chatapp.ToggleFlagCommand, dto.FlagState](flagsHandler.HandleToggle))
	commands.RegisterHandler(commandBus, chatapp.DeleteConversationCommand{}.Key(),
		commands.HandlerFunc[chatapp.DeleteConversationCommand, struct{}](flagsHandler.HandleDelete))
	commands.RegisterHandler(commandBus, productsapp.CreateProductCommand{}.Key(),
		&productsapp.CreateProductHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, productsapp.UpdateProductCommand{}.Key(),
		&productsapp.UpdateProductHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder})
	commands.RegisterHandler(commandBus, productsapp.MarkSoldCommand{}.Key(),
		&productsapp.MarkSoldHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, productsapp.SetFavoriteCommand{}.Key(),
		&productsapp.SetFavoriteHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, requestsapp.CreateRequestCommand{}.Key(),
		&requestsapp.CreateRequestHandler{UoWFactory: uowFactory})
	commands.RegisterHandler(commandBus, requestsapp.FulfillRequestCommand{}.Key(),
		&requestsapp.FulfillRequestHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder})
	commands.RegisterHandler(commandBus, ratingsapp.SubmitRatingCommand{}.Key(),
		&ratingsapp.SubmitRatingHandler{UoWFactory: uowFactory, Outbox: outboxStore, Encoder: encoder, Logger: logger})
	commands.RegisterHandler(commandBus, profilesapp.UpdateProfileCommand{}.Key(),
		&profilesapp.UpdateProfileHandler{UoWFactory: uowFactory})

	queries.RegisterHandler(queryBus, chatapp.DirectoryQuery{}.Key(),
		&chatapp.DirectoryHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, chatapp.UnreadCountQuery{}.Key(),
		&chatapp.UnreadCountHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, productsapp.CatalogQuery{}.Key(),
		&productsapp.CatalogHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, productsapp.GetProductQuery{}.Key(),
		&productsapp.GetProductHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, productsapp.ListFavoritesQuery{}.Key(),
		&productsapp.ListFavoritesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, requestsapp.ListRequestsQuery{}.Key(),
		&requestsapp.ListRequestsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratingsapp.PendingRatingsQuery{}.Key(),
		&ratingsapp.PendingRatingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, ratingsapp.SellerRatingsQuery{}.Key(),
		&ratingsapp.SellerRatingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, profilesapp.GetProfileQuery{}.Key(),
		&profilesapp.GetProfileHandler{UoWFactory: uowFactory})

	dispatchBus := middleware.ChainCommands(commandBus,
		middleware.Idempotency(idemStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	askBus := middleware.ChainQueries(queryBus)

	counter := &unread.Counter{
		Queries: askBus,
		Cache:   badgeCache,
		TTL:     cfg.UnreadCacheTTL,
		Logger:  logger,
	}

	if invalidator != nil {
		invalidator.Counter = counter
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, invalidator)
		if err != nil {
			return application{}, err
		}
		topic := cfg.KafkaTopicPrefix + "chat.events.v1"
		background = append(background, func(runCtx context.Context) {
			if err := consumer.Run(runCtx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("badge invalidator stopped", "error", err)
			}
		})
	}

	authService := &authsvc.Service{
		Users:         userRepo,
		Sessions:      sessionStore,
		Profiles:      profileRepo,
		Passwords:     security.BcryptHasher{},
		Tokens:        security.RandomTokenGenerator{},
		CampusDomains: cfg.CampusDomains,
		SessionTTL:    cfg.SessionTTL,
		Logger:        logger,
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if cfg.S3AccessKey != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("object storage unavailable, uploads disabled", "error", err)
		} else {
			uploader = client
		}
	}

	handlers := ginserver.Handlers{
		Chat:           ginserver.ChatHandler{Commands: dispatchBus, Queries: askBus, Counter: counter, Logger: logger},
		Product:        ginserver.ProductHandler{Commands: dispatchBus, Queries: askBus, Uploader: uploader, Logger: logger},
		Request:        ginserver.RequestHandler{Commands: dispatchBus, Queries: askBus, Logger: logger},
		Rating:         ginserver.RatingHandler{Commands: dispatchBus, Queries: askBus, Logger: logger},
		Profile:        ginserver.ProfileHandler{Commands: dispatchBus, Queries: askBus, Logger: logger},
		Auth:           &ginserver.AuthHandler{Service: authService, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	return application{handlers: handlers, background: background, ready: ready}, nil
}
