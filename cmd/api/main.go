package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/gatortutors/gator-tutors-api/api/swagger"
	"github.com/gatortutors/gator-tutors-api/internal/handler"
	"github.com/gatortutors/gator-tutors-api/internal/middleware"
	"github.com/gatortutors/gator-tutors-api/internal/models"
	"github.com/gatortutors/gator-tutors-api/internal/repository"
	"github.com/gatortutors/gator-tutors-api/internal/service"
	"github.com/gatortutors/gator-tutors-api/pkg/cache"
	"github.com/gatortutors/gator-tutors-api/pkg/config"
	"github.com/gatortutors/gator-tutors-api/pkg/database"
	"github.com/gatortutors/gator-tutors-api/pkg/logger"
	corsmiddleware "github.com/gatortutors/gator-tutors-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gatortutors/gator-tutors-api/pkg/middleware/requestid"
	"github.com/gatortutors/gator-tutors-api/pkg/storage"
)

// @title Gator Tutors API
// @version 1.0.0
// @description Tutoring marketplace backend: tutor search, listings, messaging and moderation
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database, logr)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		}
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("uploads directory unavailable", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewTutorPostRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Search.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	searchSvc := service.NewSearchService(postRepo, cacheSvc, metricsSvc, logr, service.SearchConfig{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		CacheTTL:        cfg.Search.CacheTTL,
	})
	subjectSvc := service.NewSubjectService(subjectRepo, cacheSvc, logr)
	postSvc := service.NewTutorPostService(postRepo, subjectRepo, cacheSvc, validate, logr)
	messageSvc := service.NewMessageService(messageRepo, postRepo, validate, logr)
	exportSvc := service.NewExportService(postRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	tutorHandler := handler.NewTutorHandler(searchSvc, postSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)
	uploadHandler := handler.NewUploadHandler(postSvc, store, signer, cfg.Uploads)
	adminHandler := handler.NewAdminHandler(postSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Signed media downloads sit outside the API prefix so links stay short.
	r.GET("/media/:token", uploadHandler.Download)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	tutors := api.Group("/tutors")
	{
		tutors.GET("", tutorHandler.Search)
		tutors.GET("/me", middleware.JWT(authSvc), tutorHandler.MyListings)
		tutors.GET("/:id", middleware.OptionalJWT(authSvc), tutorHandler.Get)
		tutors.POST("", middleware.JWT(authSvc), tutorHandler.Create)
		tutors.PUT("/:id", middleware.JWT(authSvc), tutorHandler.Update)
		tutors.DELETE("/:id", middleware.JWT(authSvc), tutorHandler.Delete)
		tutors.POST("/:id/media/:kind", middleware.JWT(authSvc), uploadHandler.Upload)
		tutors.GET("/:id/media/:kind", middleware.OptionalJWT(authSvc), uploadHandler.SignedLink)
	}

	subjects := api.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/active", subjectHandler.ListActive)
	}

	messages := api.Group("/messages", middleware.JWT(authSvc))
	{
		messages.POST("", messageHandler.Send)
		messages.GET("/inbox", messageHandler.Inbox)
		messages.GET("/sent", messageHandler.Sent)
		messages.GET("/unread", messageHandler.UnreadCount)
		messages.PATCH("/:id/read", messageHandler.MarkRead)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/tutors/pending", adminHandler.ListPending)
		admin.PATCH("/tutors/:id/approval", adminHandler.SetApproval)
		admin.GET("/tutors/export", adminHandler.ExportDirectory)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
