package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/forkcast/backend/config"
	"github.com/forkcast/backend/internal/api"
	"github.com/forkcast/backend/internal/middleware"
	"github.com/forkcast/backend/internal/recommend"
	"github.com/forkcast/backend/internal/service"
)

// Server wires the services, handlers and HTTP listener together.
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds a fully wired server. The Redis client and S3 config are
// optional: without Redis there is no rate limiting or embedding cache,
// without S3 there is no image upload endpoint.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config) (*Server, error) {
	authService := service.NewAuthService(db, cfg.JWTSecret)
	profileService := service.NewProfileService(db)

	aiService, err := service.NewAIService(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	recipeService := service.NewRecipeService(db, aiService)
	engine := recommend.NewEngine(profileService, recipeService, aiService)

	var storageService *service.StorageService
	if s3Config != nil {
		storageService = service.NewStorageService(s3Config)
	}

	var aiLimiter *middleware.RateLimiter
	if redisClient != nil {
		aiLimiter = middleware.NewAIRateLimiter(redisClient)
	}

	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		api.NewAuthHandler(authService).RegisterRoutes(v1)
		api.NewProfileHandler(profileService, authService).RegisterRoutes(v1)
		api.NewRecipeHandler(recipeService, engine, authService, storageService, aiLimiter).RegisterRoutes(v1)
		api.NewIngredientHandler(aiService, authService, aiLimiter).RegisterRoutes(v1)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: router,
		},
	}, nil
}

// Start begins serving HTTP requests and blocks until the listener stops.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
