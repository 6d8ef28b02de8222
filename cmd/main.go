package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Tesseract-Nexus/go-shared/rbac"

	"filing-service/internal/codebook"
	"filing-service/internal/config"
	"filing-service/internal/database"
	"filing-service/internal/events"
	"filing-service/internal/filing"
	"filing-service/internal/handlers"
	"filing-service/internal/repository"
	"filing-service/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()
	location, _ := cfg.Location()
	rounding, _ := cfg.Rounding()

	// Connect to database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	logger.Info("✓ Connected to database")

	if err := database.RunMigrations(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Redis is optional; without it there is no profile cache and no preview snapshots
	redisClient, err := config.InitRedis(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, caching and preview snapshots disabled")
		redisClient = nil
	} else if redisClient != nil {
		logger.Info("✓ Connected to redis")
	}

	// Office codebook, loaded on first use
	source := codebook.NewSource(cfg.CodebookPath)
	offices := codebook.NewProvider(source, logger)
	logger.WithField("source", source.Name()).Info("✓ Office codebook configured")

	// Initialize repositories
	taxpayerRepo := repository.NewTaxpayerRepository(db, redisClient)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// Initialize services
	builder := filing.NewBuilder(filing.Config{
		SoftwareName:    cfg.SoftwareName,
		SoftwareVersion: cfg.SoftwareVersion,
		Location:        location,
		Rounding:        rounding,
	})
	reportService := services.NewReportService(taxpayerRepo, invoiceRepo, offices, builder, rounding, logger)

	var snapshotRepo *repository.SnapshotRepository
	if redisClient != nil {
		snapshotRepo = repository.NewSnapshotRepository(redisClient, cfg.SnapshotTTL())
		reportService.WithSnapshots(snapshotRepo)
	}

	if err := events.InitPublisher(cfg.NATSURL, logger); err != nil {
		logger.WithError(err).Warn("Failed to initialize events publisher, events won't be published")
	} else if publisher := events.GetPublisher(); publisher != nil {
		reportService.WithPublisher(publisher)
		defer publisher.Close()
	}

	if cfg.NATSURL != "" {
		startSubscriber(cfg.NATSURL, snapshotRepo, taxpayerRepo, logger)
	}

	// Initialize handlers
	filingHandler := handlers.NewFilingHandler(reportService, offices)

	// Filing routes require tax:read, checked against staff-service
	rbacMiddleware := rbac.NewMiddlewareWithURL(cfg.StaffServiceURL, nil)
	logger.Info("✓ RBAC middleware initialized")

	router := setupRouter(filingHandler, db, redisClient, cfg.Environment, rbacMiddleware)

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("Filing Service starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

// startSubscriber listens for invoice and taxpayer changes. A nil snapshot
// repository leaves only the profile cache to invalidate.
func startSubscriber(natsURL string, snapshots *repository.SnapshotRepository, profiles *repository.TaxpayerRepository, logger *logrus.Logger) {
	var invalidator events.SnapshotInvalidator
	if snapshots != nil {
		invalidator = snapshots
	}

	subscriber, err := events.NewSubscriber(natsURL, invalidator, profiles, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to create events subscriber")
		return
	}
	if err := subscriber.Start(); err != nil {
		logger.WithError(err).Warn("Failed to start events subscriber")
		return
	}
	logger.Info("✓ NATS events subscriber started")
}

// setupRouter configures the HTTP router
func setupRouter(filingHandler *handlers.FilingHandler, db *gorm.DB, redisClient *redis.Client, environment string, rbacMiddleware *rbac.Middleware) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID, X-Tenant-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+handlers.HeaderDatasetFingerprint+", "+handlers.HeaderPreviewMatch)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "filing-service",
		})
	})

	router.GET("/livez", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness probe - database must answer, redis only when configured
	router.GET("/readyz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(503, gin.H{"status": "error", "message": "database not available"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "error", "message": "database ping failed"})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(503, gin.H{"status": "error", "message": "redis ping failed"})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes with RBAC
	v1 := router.Group("/api/v1")
	{
		filings := v1.Group("/filings")
		{
			filings.POST("/preview", rbacMiddleware.RequirePermission(rbac.PermissionTaxRead), filingHandler.Preview)
			filings.POST("/export", rbacMiddleware.RequirePermission(rbac.PermissionTaxRead), filingHandler.Export)
		}

		v1.GET("/offices/:code", rbacMiddleware.RequirePermission(rbac.PermissionTaxRead), filingHandler.ResolveOffice)
	}

	return router
}
