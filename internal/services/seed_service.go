package services

import (
	"context"
	"errors"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// SeedUser is a demo account in a Catalog. SiteName resolves the storesman's site.
type SeedUser struct {
	Username string
	Password string
	FullName string
	Role     string
	SiteName string
}

// Catalog is the reference data written by Seed.
type Catalog struct {
	Sites     []models.Site
	Materials []models.Material
	Users     []SeedUser
}

// SeedResult counts rows created by one Seed call.
type SeedResult struct {
	Sites     int `json:"sites"`
	Materials int `json:"materials"`
	Users     int `json:"users"`
}

// SeedService writes reference data. Rows matched by name or username are left as they are,
// so running it twice is harmless.
type SeedService interface {
	Seed(ctx context.Context, catalog Catalog) (*SeedResult, error)
}

type seedService struct {
	store repositories.Store
}

func NewSeedService(store repositories.Store) SeedService {
	return &seedService{store: store}
}

func strPtr(s string) *string { return &s }

// DefaultCatalog is the stock construction catalogue with two demo users.
func DefaultCatalog() Catalog {
	d := decimal.RequireFromString
	material := func(name, unit, desc, cost, min string) models.Material {
		return models.Material{Name: name, Unit: unit, Description: strPtr(desc), CostPerUnit: d(cost), MinimumLevel: d(min)}
	}
	return Catalog{
		Sites: []models.Site{
			{Name: "Main Site", Location: strPtr("Central Location")},
			{Name: "Site A", Location: strPtr("North Area")},
			{Name: "Site B", Location: strPtr("South Area")},
		},
		Materials: []models.Material{
			material("Cement", "bag", "Portland cement 50kg", "850", "50"),
			material("Sand", "m3", "River sand", "1200", "10"),
			material("Aggregate 20mm", "m3", "Crushed stone 20mm", "1500", "10"),
			material("Steel Rod 10mm", "piece", "TMT bar 10mm x 12m", "780", "100"),
			material("Steel Rod 12mm", "piece", "TMT bar 12mm x 12m", "1120", "100"),
			material("Binding Wire", "kg", "Annealed binding wire", "95", "25"),
			material("Bricks", "piece", "Red clay bricks", "9", "1000"),
			material("Concrete Blocks", "piece", "Hollow blocks 6 inch", "55", "500"),
			material("Plywood 18mm", "sheet", "Shuttering plywood", "2400", "20"),
			material("PVC Pipe 4in", "piece", "PVC pipe 4 inch x 6m", "1350", "10"),
			material("Paint White", "liter", "Emulsion paint", "320", "40"),
			material("Tiles 600x600", "box", "Vitrified floor tiles", "1800", "30"),
		},
		Users: []SeedUser{
			{Username: "engineer1", Password: "password123", FullName: "Site Engineer", Role: models.RoleSiteEngineer},
			{Username: "storesman1", Password: "password123", FullName: "Main Storesman", Role: models.RoleStoresman, SiteName: "Main Site"},
		},
	}
}

func (s *seedService) Seed(ctx context.Context, catalog Catalog) (*SeedResult, error) {
	result := &SeedResult{}
	err := s.store.WithinTx(ctx, func(r repositories.Repos) error {
		*result = SeedResult{}
		for _, site := range catalog.Sites {
			_, err := r.Sites.GetSiteByName(ctx, site.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			site := site
			if err := r.Sites.CreateSite(ctx, &site); err != nil {
				return err
			}
			result.Sites++
		}

		for _, m := range catalog.Materials {
			_, err := r.Materials.GetMaterialByName(ctx, m.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			m := m
			if err := r.Materials.CreateMaterial(ctx, &m); err != nil {
				return err
			}
			result.Materials++
		}

		for _, u := range catalog.Users {
			_, err := r.Users.FindUserByUsername(ctx, u.Username)
			if err == nil {
				continue
			}
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			user := &models.User{Username: u.Username, FullName: utils.NewNullString(u.FullName), Role: u.Role, IsActive: true}
			if u.SiteName != "" {
				site, err := r.Sites.GetSiteByName(ctx, u.SiteName)
				if err != nil {
					return mapNotFound(err, ErrSiteNotFound)
				}
				user.AssignedSiteID = &site.ID
			}
			if user.PasswordHash, err = HashPassword(u.Password); err != nil {
				return err
			}
			if err := r.Users.CreateUser(ctx, user); err != nil {
				return err
			}
			result.Users++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Seed completed", map[string]interface{}{
		"sites": result.Sites, "materials": result.Materials, "users": result.Users,
	})
	return result, nil
}
