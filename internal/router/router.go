package router

import (
	"time"

	"site_stores_backend/internal/handlers"
	"site_stores_backend/internal/middleware"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the process-level objects the routes are built from.
type Dependencies struct {
	Store  repositories.Store
	Signer *utils.TokenSigner
	// Now stamps ledger entries and serial numbers. Defaults to time.Now.
	Now    func() time.Time
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	handlers.RegisterValidators()

	// Services
	inventoryService := services.NewInventoryService(deps.Store, deps.Now)
	approvalService := services.NewApprovalService(deps.Store, inventoryService)
	reportService := services.NewReportService(deps.Store)
	catalogService := services.NewCatalogService(deps.Store)
	authService := services.NewAuthService(deps.Store, deps.Signer)

	// Handlers
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	requestHandler := handlers.NewRequestHandler(approvalService)
	reportHandler := handlers.NewReportHandler(reportService, deps.Now)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(inventoryService)

	apiV1 := engine.Group("/api/v1")
	apiV1.GET("/health", healthHandler.Health)
	apiV1.POST("/auth/login", authHandler.LoginUser)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Signer))
	{
		SetupAuthRoutes(authenticated, authHandler)
		SetupUserRoutes(authenticated, authHandler)
		SetupSiteRoutes(authenticated, catalogHandler)
		SetupMaterialRoutes(authenticated, catalogHandler)
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupRequestRoutes(authenticated, requestHandler)
		SetupReportRoutes(authenticated, reportHandler)
	}
}
