package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
)

type siteRepo struct{ a access }

func siteNameTaken(s *state, name string, exceptID int64) bool {
	for _, site := range s.sites {
		if site.Name == name && site.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *siteRepo) CreateSite(ctx context.Context, site *models.Site) error {
	return r.a.do(ctx, func(s *state) error {
		if siteNameTaken(s, site.Name, 0) {
			return fmt.Errorf("%w: site name %q", repositories.ErrDuplicateKey, site.Name)
		}
		if site.CreatedAt.IsZero() {
			site.CreatedAt = time.Now()
		}
		site.ID = s.nextID()
		s.sites[site.ID] = *site
		return nil
	})
}

func (r *siteRepo) GetSiteByID(ctx context.Context, id int64) (*models.Site, error) {
	var out *models.Site
	err := r.a.do(ctx, func(s *state) error {
		site, ok := s.sites[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &site
		return nil
	})
	return out, err
}

func (r *siteRepo) GetSiteByName(ctx context.Context, name string) (*models.Site, error) {
	var out *models.Site
	err := r.a.do(ctx, func(s *state) error {
		for _, site := range s.sites {
			if site.Name == name {
				site := site
				out = &site
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *siteRepo) ListSites(ctx context.Context) ([]models.Site, error) {
	sites := []models.Site{}
	err := r.a.do(ctx, func(s *state) error {
		for _, site := range s.sites {
			sites = append(sites, site)
		}
		return nil
	})
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name < sites[j].Name })
	return sites, err
}

func (r *siteRepo) UpdateSite(ctx context.Context, site *models.Site) error {
	return r.a.do(ctx, func(s *state) error {
		existing, ok := s.sites[site.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if siteNameTaken(s, site.Name, site.ID) {
			return fmt.Errorf("%w: site name %q", repositories.ErrDuplicateKey, site.Name)
		}
		existing.Name = site.Name
		existing.Location = site.Location
		s.sites[site.ID] = existing
		*site = existing
		return nil
	})
}

// DeleteSite cascades to the site's stock, ledger, batches, adjustments and requests.
// Users still assigned to the site block the delete.
func (r *siteRepo) DeleteSite(ctx context.Context, id int64) error {
	return r.a.do(ctx, func(s *state) error {
		if _, ok := s.sites[id]; !ok {
			return repositories.ErrNotFound
		}
		for _, u := range s.users {
			if u.AssignedSiteID != nil && *u.AssignedSiteID == id {
				return fmt.Errorf("%w: site %d has assigned users", repositories.ErrReferenced, id)
			}
		}
		for k := range s.stock {
			if k.siteID == id {
				delete(s.stock, k)
			}
		}
		for k, b := range s.batches {
			if b.SiteID == id {
				delete(s.batches, k)
			}
		}
		for k, t := range s.transactions {
			if t.SiteID == id {
				delete(s.transactions, k)
			}
		}
		for k, a := range s.adjustments {
			if a.SiteID == id {
				delete(s.adjustments, k)
			}
		}
		for k, req := range s.issues {
			if req.SiteID == id {
				delete(s.issues, k)
			}
		}
		for k, req := range s.batchIssues {
			if req.SiteID == id {
				delete(s.batchIssues, k)
			}
		}
		for k, req := range s.transfers {
			if req.FromSiteID == id || req.ToSiteID == id {
				delete(s.transfers, k)
			}
		}
		delete(s.sites, id)
		return nil
	})
}

type materialRepo struct{ a access }

func materialNameTaken(s *state, name string, exceptID int64) bool {
	for _, m := range s.materials {
		if m.Name == name && m.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *materialRepo) CreateMaterial(ctx context.Context, m *models.Material) error {
	return r.a.do(ctx, func(s *state) error {
		if materialNameTaken(s, m.Name, 0) {
			return fmt.Errorf("%w: material name %q", repositories.ErrDuplicateKey, m.Name)
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		m.ID = s.nextID()
		s.materials[m.ID] = *m
		return nil
	})
}

func (r *materialRepo) GetMaterialByID(ctx context.Context, id int64) (*models.Material, error) {
	var out *models.Material
	err := r.a.do(ctx, func(s *state) error {
		m, ok := s.materials[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *materialRepo) GetMaterialByName(ctx context.Context, name string) (*models.Material, error) {
	var out *models.Material
	err := r.a.do(ctx, func(s *state) error {
		for _, m := range s.materials {
			if m.Name == name {
				m := m
				out = &m
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *materialRepo) ListMaterials(ctx context.Context, search *string) ([]models.Material, error) {
	var needle string
	if search != nil {
		needle = strings.ToLower(strings.TrimSpace(*search))
	}
	materials := []models.Material{}
	err := r.a.do(ctx, func(s *state) error {
		for _, m := range s.materials {
			if needle == "" || strings.Contains(strings.ToLower(m.Name), needle) {
				materials = append(materials, m)
			}
		}
		return nil
	})
	sort.Slice(materials, func(i, j int) bool { return materials[i].Name < materials[j].Name })
	return materials, err
}

func (r *materialRepo) UpdateMaterial(ctx context.Context, m *models.Material) error {
	return r.a.do(ctx, func(s *state) error {
		existing, ok := s.materials[m.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		if materialNameTaken(s, m.Name, m.ID) {
			return fmt.Errorf("%w: material name %q", repositories.ErrDuplicateKey, m.Name)
		}
		m.CreatedAt = existing.CreatedAt
		s.materials[m.ID] = *m
		return nil
	})
}
