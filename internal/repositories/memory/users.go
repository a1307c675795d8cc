package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
)

type userRepo struct{ a access }

func (r *userRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.a.do(ctx, func(s *state) error {
		for _, u := range s.users {
			if u.Username == user.Username {
				return fmt.Errorf("%w: username %q", repositories.ErrDuplicateKey, user.Username)
			}
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now()
		}
		user.UpdatedAt = user.CreatedAt
		user.ID = s.nextID()
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.a.do(ctx, func(s *state) error {
		for _, u := range s.users {
			if u.Username == username {
				u := u
				out = &u
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *userRepo) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.a.do(ctx, func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.a.do(ctx, func(s *state) error {
		for _, u := range s.users {
			users = append(users, u)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, err
}
