package handlers

import (
	"net/http"

	"site_stores_backend/internal/services"
	"site_stores_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves site and material administration.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

func (h *CatalogHandler) CreateSite(c *gin.Context) {
	var req services.SiteRequest
	if !bindJSON(c, &req, "CreateSite") {
		return
	}
	site, err := h.catalogService.CreateSite(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateSite")
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (h *CatalogHandler) ListSites(c *gin.Context) {
	sites, err := h.catalogService.ListSites(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListSites")
		return
	}
	c.JSON(http.StatusOK, sites)
}

func (h *CatalogHandler) GetSite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	site, err := h.catalogService.GetSite(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetSite")
		return
	}
	c.JSON(http.StatusOK, site)
}

func (h *CatalogHandler) UpdateSite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.SiteRequest
	if !bindJSON(c, &req, "UpdateSite") {
		return
	}
	site, err := h.catalogService.UpdateSite(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateSite")
		return
	}
	c.JSON(http.StatusOK, site)
}

// DeleteSite removes a site together with its stock history.
func (h *CatalogHandler) DeleteSite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteSite(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteSite")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) CreateMaterial(c *gin.Context) {
	var req services.MaterialRequest
	if !bindJSON(c, &req, "CreateMaterial") {
		return
	}
	material, err := h.catalogService.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateMaterial")
		return
	}
	c.JSON(http.StatusCreated, material)
}

// ListMaterials supports ?search= for a case-insensitive name match.
func (h *CatalogHandler) ListMaterials(c *gin.Context) {
	search := c.Query("search")
	materials, err := h.catalogService.ListMaterials(c.Request.Context(), utils.TrimOptional(&search))
	if err != nil {
		respondServiceError(c, err, "ListMaterials")
		return
	}
	c.JSON(http.StatusOK, materials)
}

func (h *CatalogHandler) GetMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	material, err := h.catalogService.GetMaterial(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetMaterial")
		return
	}
	c.JSON(http.StatusOK, material)
}

func (h *CatalogHandler) UpdateMaterial(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.MaterialRequest
	if !bindJSON(c, &req, "UpdateMaterial") {
		return
	}
	material, err := h.catalogService.UpdateMaterial(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateMaterial")
		return
	}
	c.JSON(http.StatusOK, material)
}
