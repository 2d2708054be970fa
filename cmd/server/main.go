package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/config"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/handler"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/metrics"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/repository"
	"github.com/wesleyautomate-ship-it/retrieval-engine/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("Hybrid Retrieval Engine")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("Connected to PostgreSQL database")

	// Initialize embedding client
	embedder := service.NewOpenAIEmbedder(&cfg.OpenAI, &cfg.Breaker)
	if cfg.OpenAI.Enabled {
		log.Printf("Embedding client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Model: %s", cfg.OpenAI.EmbeddingModel)
		log.Printf("   - Dimensions: %d", cfg.OpenAI.EmbeddingDimensions)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set - semantic retrieval will contribute nothing")
	}

	// Initialize engine components
	m := metrics.New()
	interpreter := service.NewInterpreter(service.NewRuleClassifier())
	semantic := service.NewSemanticAdapter(embedder, repo)
	structured := service.NewStructuredAdapter(repo, cfg.Search.MinFilterCount)
	fuser := service.NewFuser(&cfg.Ranking)
	cache := service.NewCacheCoordinator(cfg.Cache.Capacity)

	searchService := service.NewSearchService(
		interpreter,
		semantic,
		structured,
		fuser,
		cache,
		&cfg.Search,
		&cfg.Cache,
		m,
		repo,
	)

	log.Println("Services initialized")

	// Initialize handlers
	searchHandler := handler.NewSearchHandler(searchService, repo)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "retrieval-engine",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/search", searchHandler.Search)
		apiV1.POST("/cache/purge", searchHandler.PurgeCache)
		apiV1.GET("/properties/:id", searchHandler.GetProperty)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	log.Println("Server stopped")
}
