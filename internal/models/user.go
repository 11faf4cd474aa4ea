package models

import (
	"time"
)

// User roles
const (
	RoleSearcher = "searcher"
	RoleLobbyist = "lobbyist"
	RoleAdmin    = "admin"
)

type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	FullName             string    `json:"full_name"`
	Role                 string    `json:"role"`
	SubscriptionTier     string    `json:"subscription_tier"`
	StripeCustomerID     *string   `json:"-"`
	StripeSubscriptionID *string   `json:"-"`
	IsSuspended          bool      `json:"is_suspended"`
	TokenKey             string    `json:"-"` // Per-user secret for composite token signing
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role        string
	IsSuspended *bool
	Search      string
	Limit       int
	Offset      int
}

// UserUpdate carries the admin edit-user fields; nil means unchanged.
type UserUpdate struct {
	FullName         *string
	Email            *string
	Role             *string
	SubscriptionTier *string
}
