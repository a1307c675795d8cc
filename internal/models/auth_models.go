package models

import "time"

// Role names carried in tokens and stored on users.
const (
	RoleSiteEngineer = "site_engineer"
	RoleStoresman    = "storesman"
)

// User is an authenticated operator.
type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	Role           string    `json:"role" db:"role"`
	AssignedSiteID *int64    `json:"assigned_site_id,omitempty" db:"assigned_site_id"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated identity a request runs as.
type Actor struct {
	UserID int64
	Role   string
	SiteID *int64
}

// IsEngineer reports whether the actor has cross-site rights.
func (a Actor) IsEngineer() bool {
	return a.Role == RoleSiteEngineer
}

// CanAccessSite reports whether the actor may act on siteID.
func (a Actor) CanAccessSite(siteID int64) bool {
	if a.IsEngineer() {
		return true
	}
	return a.SiteID != nil && *a.SiteID == siteID
}
