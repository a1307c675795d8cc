package repositories

import (
	"context"
	"strings"
	"time"

	"site_stores_backend/internal/models"
)

type materialRepository struct {
	db SQLExecutor
}

const materialColumns = `id, name, unit, description, cost_per_unit, minimum_level, created_at`

func scanMaterial(row scanner) (*models.Material, error) {
	m := &models.Material{}
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Description, &m.CostPerUnit, &m.MinimumLevel, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *materialRepository) CreateMaterial(ctx context.Context, m *models.Material) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	query := `INSERT INTO materials (name, unit, description, cost_per_unit, minimum_level, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		m.Name, m.Unit, m.Description, m.CostPerUnit, m.MinimumLevel, m.CreatedAt,
	).Scan(&m.ID)
	return wrapDBError(err, "creating material")
}

func (r *materialRepository) GetMaterialByID(ctx context.Context, id int64) (*models.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, "getting material by id")
	}
	return m, nil
}

func (r *materialRepository) GetMaterialByName(ctx context.Context, name string) (*models.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE name = $1`, name))
	if err != nil {
		return nil, wrapDBError(err, "getting material by name")
	}
	return m, nil
}

func (r *materialRepository) ListMaterials(ctx context.Context, search *string) ([]models.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials`
	var args []interface{}
	if search != nil && strings.TrimSpace(*search) != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+strings.TrimSpace(*search)+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err, "listing materials")
	}
	defer rows.Close()

	materials := []models.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, wrapDBError(err, "scanning material")
		}
		materials = append(materials, *m)
	}
	return materials, wrapDBError(rows.Err(), "iterating materials")
}

func (r *materialRepository) UpdateMaterial(ctx context.Context, m *models.Material) error {
	query := `UPDATE materials SET name = $1, unit = $2, description = $3, cost_per_unit = $4, minimum_level = $5
	          WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, m.Name, m.Unit, m.Description, m.CostPerUnit, m.MinimumLevel, m.ID)
	if err != nil {
		return wrapDBError(err, "updating material")
	}
	return expectAffected(res, "updating material")
}
