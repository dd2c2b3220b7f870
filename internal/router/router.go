// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/ustock-backend/internal/config"
	"github.com/javajoker/ustock-backend/internal/handlers"
	"github.com/javajoker/ustock-backend/internal/middleware"
	"github.com/javajoker/ustock-backend/internal/services"
)

const version = "1.0.0"

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth        *services.AuthService
	Users       *services.UserService
	Products    *services.ProductService
	Stock       *services.StockService
	Consumption *services.ConsumptionService
	Stats       *services.StatsService
}

// NewServices builds the services on top of db and the configured external
// collaborators.
func NewServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	catalog := services.NewOpenFoodFactsClient(cfg.OpenFoodFacts)
	estimator := services.NewPriceEstimatorClient(cfg.PriceEstimator)

	return &Services{
		Auth:        services.NewAuthService(db, cfg),
		Users:       services.NewUserService(db),
		Products:    services.NewProductService(db, catalog, estimator, storageService),
		Stock:       services.NewStockService(db, services.LotPolicy(cfg.Stock.LotPolicy)),
		Consumption: services.NewConsumptionService(db),
		Stats:       services.NewStatsService(db),
	}, nil
}

// Initialize builds the services and the engine serving them.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *Services, error) {
	svc, err := NewServices(db, cfg)
	if err != nil {
		return nil, nil, err
	}
	return Setup(cfg, svc), svc, nil
}

// Setup mounts every route on a new engine.
func Setup(cfg *config.Config, svc *Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	userHandler := handlers.NewUserHandler(svc.Users)
	productHandler := handlers.NewProductHandler(svc.Products)
	stockHandler := handlers.NewStockHandler(svc.Stock, cfg.Stock.ExpiringSoonDays)
	consumptionHandler := handlers.NewConsumptionHandler(svc.Stock, svc.Consumption, svc.Stats)

	authRequired := middleware.AuthRequired(svc.Auth)
	limits := middleware.NewRateLimits(cfg.RateLimit)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(limits.General.Middleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(limits.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		users := v1.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/me", userHandler.GetProfile)
			users.DELETE("/me", userHandler.DeleteAccount)
		}

		v1.POST("/families", authRequired, userHandler.CreateFamily)

		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/search", limits.Scan.Middleware(), productHandler.SearchProducts)
			products.GET("/barcode/:barcode", productHandler.GetProductByBarcode)
			products.GET("/:id", productHandler.GetProduct)

			// Authenticated routes
			protected := products.Group("")
			protected.Use(authRequired)
			{
				protected.POST("", limits.Scan.Middleware(), productHandler.CreateProduct)
				protected.PATCH("/:id/price", productHandler.RefreshPrice)
			}
		}

		stock := v1.Group("/stock")
		stock.Use(authRequired)
		{
			stock.POST("", stockHandler.AddStock)
			stock.GET("", stockHandler.GetStock)
			stock.GET("/expiring", stockHandler.GetExpiring)
			stock.DELETE("/:id", stockHandler.RemoveStock)
		}

		consumption := v1.Group("/consumption")
		consumption.Use(authRequired)
		{
			consumption.POST("", consumptionHandler.Consume)
			consumption.GET("", consumptionHandler.GetHistory)
			consumption.GET("/stats", consumptionHandler.GetStats)
		}
	}

	return r
}
