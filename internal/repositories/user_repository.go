package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type userRepository struct {
	db SQLExecutor
}

const userColumns = `id, username, password_hash, full_name, role, assigned_site_id, is_active, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Role, &u.AssignedSiteID,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user. PasswordHash must already be a bcrypt hash.
// A taken username surfaces as ErrDuplicateKey.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	currentTime := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = currentTime
	}
	user.UpdatedAt = user.CreatedAt
	query := `INSERT INTO users (username, password_hash, full_name, role, assigned_site_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.FullName, user.Role, user.AssignedSiteID,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	return wrapDBError(err, "creating user")
}

func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, wrapDBError(err, "finding user by username")
	}
	return u, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrapDBError(err, "finding user by id")
	}
	return u, nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, wrapDBError(err, "listing users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapDBError(err, "scanning user")
		}
		users = append(users, *u)
	}
	return users, wrapDBError(rows.Err(), "iterating users")
}
