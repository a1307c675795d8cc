package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type siteRepository struct {
	db SQLExecutor
}

const siteColumns = `id, name, location, created_at`

func scanSite(row scanner) (*models.Site, error) {
	s := &models.Site{}
	if err := row.Scan(&s.ID, &s.Name, &s.Location, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *siteRepository) CreateSite(ctx context.Context, site *models.Site) error {
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now()
	}
	query := `INSERT INTO sites (name, location, created_at) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, site.Name, site.Location, site.CreatedAt).Scan(&site.ID)
	return wrapDBError(err, "creating site")
}

func (r *siteRepository) GetSiteByID(ctx context.Context, id int64) (*models.Site, error) {
	s, err := scanSite(r.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, "getting site by id")
	}
	return s, nil
}

func (r *siteRepository) GetSiteByName(ctx context.Context, name string) (*models.Site, error) {
	s, err := scanSite(r.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE name = $1`, name))
	if err != nil {
		return nil, wrapDBError(err, "getting site by name")
	}
	return s, nil
}

func (r *siteRepository) ListSites(ctx context.Context) ([]models.Site, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY name`)
	if err != nil {
		return nil, wrapDBError(err, "listing sites")
	}
	defer rows.Close()

	sites := []models.Site{}
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, wrapDBError(err, "scanning site")
		}
		sites = append(sites, *s)
	}
	return sites, wrapDBError(rows.Err(), "iterating sites")
}

func (r *siteRepository) UpdateSite(ctx context.Context, site *models.Site) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sites SET name = $1, location = $2 WHERE id = $3`,
		site.Name, site.Location, site.ID)
	if err != nil {
		return wrapDBError(err, "updating site")
	}
	return expectAffected(res, "updating site")
}

func (r *siteRepository) DeleteSite(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "deleting site")
	}
	return expectAffected(res, "deleting site")
}
