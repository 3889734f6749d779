package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/creative-o-meter/docs"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/cache"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/config"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/database"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/security"
)

const (
	streamPath  = "/api/canvas/stream"
	synergyPath = "/api/synergy"
)

// server owns every long-lived dependency of the HTTP API
type server struct {
	cfg         config.Config
	logger      *monitoring.Logger
	metrics     *monitoring.Metrics
	cache       *cache.Cache
	limiter     *ratelimit.RateLimiter
	redis       *ratelimit.RedisClient
	security    *security.SecurityMiddleware
	compression *middleware.CompressionMiddleware
	db          *database.DB
	history     *database.HistoryService
	engine      *creativity.Engine
	composer    *prompt.Composer
}

func newServer(cfg config.Config, db *database.DB, redisClient *ratelimit.RedisClient, src creativity.Source, logger *monitoring.Logger) (*server, error) {
	composer := prompt.NewComposer(src)
	composer.Threshold = cfg.TwistThreshold

	if cfg.VocabularyFile != "" {
		vocab, twists, err := prompt.LoadVocabularyFile(cfg.VocabularyFile)
		if err != nil {
			return nil, err
		}
		composer.Vocabulary = vocab
		composer.Twists = twists
		slog.Info("Loaded vocabulary", "file", cfg.VocabularyFile, "twists", len(twists))
	}

	metrics := monitoring.NewMetrics()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
		IPLimit:         cfg.IPLimit,
		StreamLimit:     cfg.StreamLimit,
		BurstMultiplier: 1,
		CleanupInterval: time.Hour,
	}, metrics)

	return &server{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		cache:       cache.NewCache(cfg.CacheTTL, synergyPath),
		limiter:     limiter,
		redis:       redisClient,
		compression: middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig(), streamPath),
		security: security.NewSecurityMiddleware(security.SecurityConfig{
			MaxInputLength: security.DefaultSecurityConfig().MaxInputLength,
			MaxBodyBytes:   security.DefaultSecurityConfig().MaxBodyBytes,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.RequestTimeout,
			AdminToken:     cfg.AdminToken,
		}),
		db:       db,
		history:  database.NewHistoryService(database.NewRepository(db)),
		engine:   creativity.NewEngine(src),
		composer: composer,
	}, nil
}

// Close stops the limiter and releases Redis
func (s *server) Close() error {
	return s.limiter.Close()
}

func (s *server) routes() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(s.compression.Handler())

	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware(s.cfg.EnableHSTS))
	r.Use(security.CSPMiddleware(s.cfg.CSPReportURI, "/swagger/"))
	r.Use(s.security.CORSConfig())
	r.Use(s.security.RequestTimeout(streamPath))
	r.Use(s.security.LimitBody)
	r.Use(s.security.ValidateContentType)
	r.Use(s.limiter.IPRateLimitMiddleware("/health", "/metrics"))
	r.Use(s.cache.Middleware(s.metrics))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", func(c *gin.Context) {
		stats := s.metrics.GetStats()
		stats["compression"] = s.compression.GetStats()
		c.JSON(http.StatusOK, stats)
	})
	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.cache.Stats())
	})
	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.GET("/attributes/default", s.handleDefaultAttributes)
		api.POST("/attributes/randomize", s.handleRandomAttributes)
		api.POST("/synergy", s.handleSynergy)
		api.POST("/prompts", s.handleComposePrompt)
		api.GET("/prompts/recent", s.handleRecentPrompts)
		api.POST("/canvas/frame", s.handleFrame)
		api.GET("/canvas/stream", s.limiter.EndpointRateLimitMiddleware("stream", s.cfg.StreamLimit), s.handleStream)
	}

	if s.cfg.AdminToken != "" {
		admin := r.Group("/admin", s.security.AdminAuth)
		admin.DELETE("/ratelimit/ip/:ip", s.limiter.HandleInvalidateIP())
		admin.DELETE("/cache", func(c *gin.Context) {
			size := s.cache.Size()
			s.cache.Clear()
			s.logger.CacheLogger("clear", "*", false, size)
			c.JSON(http.StatusOK, gin.H{"message": "cache cleared", "removed": size})
		})
	}

	return r
}
