package main

import (
	"net/http"

	"restaurant-crm-api/config"
	"restaurant-crm-api/handlers"
	"restaurant-crm-api/middleware"
	"restaurant-crm-api/ratelimit"
	"restaurant-crm-api/routes"
	"restaurant-crm-api/services"
	"restaurant-crm-api/tokens"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logger := config.NewLogger(cfg)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	logger.WithField("driver", cfg.DBDriver).Info("Database connected and migrated")

	tokenService := tokens.NewService(db, cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	accounts := services.NewAccountService(db, tokenService)

	redisClient := config.NewRedis(cfg)
	if redisClient == nil {
		logger.Warn("REDIS_ADDR not set, login throttling is per process")
	}
	limiter := ratelimit.NewRedis(redisClient, cfg.LoginRateLimit, cfg.LoginRateWindow, logger)

	h := handlers.New(handlers.Deps{
		Accounts:      accounts,
		Leads:         services.NewLeadService(db),
		Restaurants:   services.NewRestaurantService(db),
		Products:      services.NewProductService(db),
		Orders:        services.NewOrderService(db),
		LoginLimiter:  limiter,
		SecureCookies: cfg.CookieSecure,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(cfg.CORSOrigin))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant CRM API",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(r, h, middleware.AuthRequired(tokenService, accounts))

	logger.Infof("Server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}
