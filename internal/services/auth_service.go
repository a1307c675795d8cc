package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"site_stores_backend/internal/models"
	"site_stores_backend/internal/repositories"
	"site_stores_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO. Storesmen must name the site they work at.
type RegisterUserRequest struct {
	Username       string  `json:"username" binding:"required"`
	Password       string  `json:"password" binding:"required,min=8"`
	FullName       *string `json:"full_name"`
	Role           string  `json:"role" binding:"required,oneof=site_engineer storesman"`
	AssignedSiteID *int64  `json:"assigned_site_id"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// AuthService authenticates operators and manages their accounts.
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type authService struct {
	store  repositories.Store
	signer *utils.TokenSigner
}

func NewAuthService(store repositories.Store, signer *utils.TokenSigner) AuthService {
	return &authService{store: store, signer: signer}
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if len(req.Password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}
	switch req.Role {
	case models.RoleSiteEngineer:
	case models.RoleStoresman:
		if req.AssignedSiteID == nil {
			return nil, validationError("assigned_site_id is required for storesmen")
		}
	default:
		return nil, validationError("unknown role %q", req.Role)
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:       username,
		PasswordHash:   hashed,
		FullName:       utils.TrimOptional(req.FullName),
		Role:           req.Role,
		AssignedSiteID: req.AssignedSiteID,
		IsActive:       true,
	}

	err = s.store.WithinTx(ctx, func(r repositories.Repos) error {
		if user.AssignedSiteID != nil {
			if _, err := r.Sites.GetSiteByID(ctx, *user.AssignedSiteID); err != nil {
				return mapNotFound(err, ErrSiteNotFound)
			}
		}
		return r.Users.CreateUser(ctx, user)
	})
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return nil, ErrUsernameExists
	}
	if err != nil {
		return nil, err
	}
	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return user, nil
}

func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.store.Repos().Users.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.signer.GenerateAccessToken(user.ID, user.Username, user.Role, user.AssignedSiteID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.Repos().Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.Repos().Users.ListUsers(ctx)
}
