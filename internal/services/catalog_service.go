package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// SiteRequest creates or updates a site.
type SiteRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
}

// MaterialRequest creates or updates a catalogue entry.
type MaterialRequest struct {
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	Description  *string         `json:"description"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit" binding:"gte=0"`
	MinimumLevel decimal.Decimal `json:"minimum_level" binding:"gte=0"`
}

// CatalogService manages sites and materials.
type CatalogService interface {
	CreateSite(ctx context.Context, req SiteRequest) (*models.Site, error)
	GetSite(ctx context.Context, id int64) (*models.Site, error)
	ListSites(ctx context.Context) ([]models.Site, error)
	UpdateSite(ctx context.Context, id int64, req SiteRequest) (*models.Site, error)
	DeleteSite(ctx context.Context, id int64) error

	CreateMaterial(ctx context.Context, req MaterialRequest) (*models.Material, error)
	GetMaterial(ctx context.Context, id int64) (*models.Material, error)
	ListMaterials(ctx context.Context, search *string) ([]models.Material, error)
	UpdateMaterial(ctx context.Context, id int64, req MaterialRequest) (*models.Material, error)
}

type catalogService struct {
	store repositories.Store
}

func NewCatalogService(store repositories.Store) CatalogService {
	return &catalogService{store: store}
}

func mapDuplicate(err error, what, name string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, what, name)
	}
	return err
}

func (s *catalogService) CreateSite(ctx context.Context, req SiteRequest) (*models.Site, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("site name is required")
	}
	site := &models.Site{Name: name, Location: utils.TrimOptional(req.Location)}
	if err := s.store.Repos().Sites.CreateSite(ctx, site); err != nil {
		return nil, mapDuplicate(err, "site", name)
	}
	utils.LogInfo("Site created", map[string]interface{}{"site_id": site.ID, "name": site.Name})
	return site, nil
}

func (s *catalogService) GetSite(ctx context.Context, id int64) (*models.Site, error) {
	site, err := s.store.Repos().Sites.GetSiteByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrSiteNotFound)
	}
	return site, nil
}

func (s *catalogService) ListSites(ctx context.Context) ([]models.Site, error) {
	return s.store.Repos().Sites.ListSites(ctx)
}

func (s *catalogService) UpdateSite(ctx context.Context, id int64, req SiteRequest) (*models.Site, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("site name is required")
	}
	site := &models.Site{ID: id, Name: name, Location: utils.TrimOptional(req.Location)}
	if err := s.store.Repos().Sites.UpdateSite(ctx, site); err != nil {
		return nil, mapDuplicate(mapNotFound(err, ErrSiteNotFound), "site", name)
	}
	return s.GetSite(ctx, id)
}

func (s *catalogService) DeleteSite(ctx context.Context, id int64) error {
	err := s.store.Repos().Sites.DeleteSite(ctx, id)
	if errors.Is(err, repositories.ErrReferenced) {
		return fmt.Errorf("%w: %v", ErrSiteInUse, err)
	}
	if err != nil {
		return mapNotFound(err, ErrSiteNotFound)
	}
	utils.LogInfo("Site deleted", map[string]interface{}{"site_id": id})
	return nil
}

func (req MaterialRequest) toModel(id int64) (*models.Material, error) {
	name, unit := strings.TrimSpace(req.Name), strings.TrimSpace(req.Unit)
	switch {
	case name == "":
		return nil, validationError("material name is required")
	case unit == "":
		return nil, validationError("unit is required")
	case req.CostPerUnit.IsNegative():
		return nil, validationError("cost_per_unit must not be negative")
	case req.MinimumLevel.IsNegative():
		return nil, validationError("minimum_level must not be negative")
	}
	return &models.Material{
		ID:           id,
		Name:         name,
		Unit:         unit,
		Description:  utils.TrimOptional(req.Description),
		CostPerUnit:  req.CostPerUnit,
		MinimumLevel: req.MinimumLevel,
	}, nil
}

func (s *catalogService) CreateMaterial(ctx context.Context, req MaterialRequest) (*models.Material, error) {
	m, err := req.toModel(0)
	if err != nil {
		return nil, err
	}
	if err := s.store.Repos().Materials.CreateMaterial(ctx, m); err != nil {
		return nil, mapDuplicate(err, "material", m.Name)
	}
	utils.LogInfo("Material created", map[string]interface{}{"material_id": m.ID, "name": m.Name})
	return m, nil
}

func (s *catalogService) GetMaterial(ctx context.Context, id int64) (*models.Material, error) {
	m, err := s.store.Repos().Materials.GetMaterialByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrMaterialNotFound)
	}
	return m, nil
}

func (s *catalogService) ListMaterials(ctx context.Context, search *string) ([]models.Material, error) {
	return s.store.Repos().Materials.ListMaterials(ctx, search)
}

func (s *catalogService) UpdateMaterial(ctx context.Context, id int64, req MaterialRequest) (*models.Material, error) {
	m, err := req.toModel(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Repos().Materials.UpdateMaterial(ctx, m); err != nil {
		return nil, mapDuplicate(mapNotFound(err, ErrMaterialNotFound), "material", m.Name)
	}
	return s.GetMaterial(ctx, id)
}
