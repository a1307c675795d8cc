package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"site_stores_backend/internal/middleware"
	"site_stores_backend/internal/models"
	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// actorFromContext rebuilds the caller identity set by AuthMiddleware.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	userID, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return models.Actor{}, false
	}
	id, ok := userID.(int64)
	if !ok || id <= 0 {
		return models.Actor{}, false
	}
	actor := models.Actor{UserID: id, Role: c.GetString(middleware.ContextUserRole)}
	if v, exists := c.Get(middleware.ContextSiteID); exists {
		if siteID, ok := v.(*int64); ok {
			actor.SiteID = siteID
		}
	}
	return actor, true
}

func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", "missing user identity"))
		return models.Actor{}, false
	}
	return actor, true
}

// siteScope resolves the site a read should be limited to. Engineers get what they
// asked for; storesmen are pinned to their assigned site.
func siteScope(c *gin.Context, actor models.Actor, requested *int64) (*int64, bool) {
	if actor.IsEngineer() {
		return requested, true
	}
	if actor.SiteID == nil || (requested != nil && *requested != *actor.SiteID) {
		respondServiceError(c, services.ErrForbidden, "site scope")
		return nil, false
	}
	return actor.SiteID, true
}

func requireSiteAccess(c *gin.Context, actor models.Actor, siteID int64) bool {
	if !actor.CanAccessSite(siteID) {
		respondServiceError(c, services.ErrForbidden, "site access")
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondValidationFailed(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) (*int64, bool) {
	v, err := utils.OptionalInt64(c.Query(name))
	if err != nil {
		utils.RespondValidationFailed(c, "invalid "+name+": must be an integer")
		return nil, false
	}
	return v, true
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		utils.RespondValidationFailed(c, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

func bindJSON(c *gin.Context, dst interface{}, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogWarn(op+": invalid payload", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, err.Error())
		return false
	}
	return true
}

// respondServiceError maps service sentinels onto HTTP statuses.
func respondServiceError(c *gin.Context, err error, op string) {
	var apiErr *utils.APIError
	switch {
	case errors.Is(err, services.ErrValidation):
		apiErr = utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apiErr = utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password", "")
	case errors.Is(err, services.ErrForbidden):
		apiErr = utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this site", err.Error())
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrSiteNotFound),
		errors.Is(err, services.ErrMaterialNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apiErr = utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found", err.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock", err.Error())
	case errors.Is(err, services.ErrAlreadyProcessed):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeAlreadyProcessed, "Request has already been processed", err.Error())
	case errors.Is(err, services.ErrDuplicateName),
		errors.Is(err, services.ErrUsernameExists),
		errors.Is(err, services.ErrSiteInUse):
		apiErr = utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Conflict", err.Error())
	case errors.Is(err, services.ErrFIFOExhausted):
		utils.LogError(err, op+": FIFO batches out of sync with stock level", map[string]interface{}{"alarm": "data_integrity"})
		apiErr = utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeDataIntegrity, "Stock records are inconsistent; contact an administrator", "")
	default:
		utils.LogError(err, op+": unexpected error")
		apiErr = utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", "")
	}
	utils.RespondWithError(c, apiErr)
}
