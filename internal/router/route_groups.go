package router

import (
	"site_stores_backend/internal/handlers"
	"site_stores_backend/internal/middleware"
	"site_stores_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	engineerOnly = middleware.RoleAuthMiddleware(models.RoleSiteEngineer)
	anyOperator  = middleware.RoleAuthMiddleware(models.RoleSiteEngineer, models.RoleStoresman)
)

// SetupAuthRoutes sets up the authenticated auth routes. Login is public and
// registered in Setup.
func SetupAuthRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := authenticatedGroup.Group("/auth")
	{
		authRoutes.GET("/me", authHandler.GetCurrentUser)
	}
}

// SetupUserRoutes sets up operator account management.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(engineerOnly)
	{
		userRoutes.GET("", authHandler.ListUsers)
		userRoutes.POST("", authHandler.RegisterUser)
	}
}

// SetupSiteRoutes sets up the site routes. Reads are open to every operator.
func SetupSiteRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	siteRoutes := authenticatedGroup.Group("/sites")
	siteRoutes.Use(anyOperator)
	{
		siteRoutes.GET("", catalogHandler.ListSites)
		siteRoutes.GET("/:id", catalogHandler.GetSite)
		siteRoutes.POST("", engineerOnly, catalogHandler.CreateSite)
		siteRoutes.PUT("/:id", engineerOnly, catalogHandler.UpdateSite)
		siteRoutes.DELETE("/:id", engineerOnly, catalogHandler.DeleteSite)
	}
}

// SetupMaterialRoutes sets up the material catalogue routes.
func SetupMaterialRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	materialRoutes := authenticatedGroup.Group("/materials")
	materialRoutes.Use(anyOperator)
	{
		materialRoutes.GET("", catalogHandler.ListMaterials)
		materialRoutes.GET("/:id", catalogHandler.GetMaterial)
		materialRoutes.POST("", engineerOnly, catalogHandler.CreateMaterial)
		materialRoutes.PUT("/:id", engineerOnly, catalogHandler.UpdateMaterial)
	}
}

// SetupInventoryRoutes sets up the stock movement routes. Direct issues bypass the
// request workflow and are reserved for engineers; storesmen file issue requests.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(anyOperator)
	{
		inventoryRoutes.POST("/receive", inventoryHandler.ReceiveMaterial)
		inventoryRoutes.POST("/receive/bulk", inventoryHandler.ReceiveMaterials)
		inventoryRoutes.POST("/issue", engineerOnly, inventoryHandler.IssueMaterial)
		inventoryRoutes.POST("/adjust", inventoryHandler.AdjustStock)
		inventoryRoutes.GET("/stock", inventoryHandler.GetStockLevel)
		inventoryRoutes.GET("/batches", inventoryHandler.ListBatches)
		inventoryRoutes.GET("/adjustments", inventoryHandler.ListAdjustments)
	}
}

// SetupRequestRoutes sets up issue, batch issue and transfer requests. Only
// engineers review.
func SetupRequestRoutes(authenticatedGroup *gin.RouterGroup, requestHandler *handlers.RequestHandler) {
	requestRoutes := authenticatedGroup.Group("/requests")
	requestRoutes.Use(anyOperator)
	{
		requestRoutes.GET("/pending-counts", requestHandler.PendingCounts)

		requestRoutes.POST("/issues", requestHandler.CreateIssueRequest)
		requestRoutes.GET("/issues", requestHandler.ListIssueRequests)
		requestRoutes.GET("/issues/:id", requestHandler.GetIssueRequest)
		requestRoutes.POST("/issues/:id/process", engineerOnly, requestHandler.ProcessIssueRequest)

		requestRoutes.POST("/batches", requestHandler.CreateBatchIssueRequest)
		requestRoutes.GET("/batches", requestHandler.ListBatchIssueRequests)
		requestRoutes.GET("/batches/:batch_id", requestHandler.GetBatchIssueRequest)
		requestRoutes.POST("/batches/:batch_id/process", engineerOnly, requestHandler.ProcessBatchIssueRequest)

		requestRoutes.POST("/transfers", requestHandler.CreateStockTransferRequest)
		requestRoutes.GET("/transfers", requestHandler.ListStockTransferRequests)
		requestRoutes.GET("/transfers/:transfer_id", requestHandler.GetStockTransferRequest)
		requestRoutes.POST("/transfers/:transfer_id/process", engineerOnly, requestHandler.ProcessStockTransferRequest)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(anyOperator)
	{
		reportRoutes.GET("/stock-summary", reportHandler.GetStockSummary)
		reportRoutes.GET("/low-stock", reportHandler.GetLowStockItems)
		reportRoutes.GET("/transactions", reportHandler.GetTransactionHistory)
		reportRoutes.GET("/daily-issues", reportHandler.GetDailyIssues)
	}
}
