package models

import "time"

// Suspension categories
var SuspensionCategories = []string{
	"spam",
	"harassment",
	"fraud",
	"impersonation",
	"terms_violation",
	"other",
}

// Suspension is one suspension record; a user may accumulate many.
type Suspension struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	SuspendedBy string     `json:"suspended_by"`
	Reason      string     `json:"reason"`
	Category    string     `json:"category"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    bool       `json:"is_active"`
	LiftedBy    *string    `json:"lifted_by"`
	LiftedAt    *time.Time `json:"lifted_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewSuspension is the insert performed by the suspend action.
type NewSuspension struct {
	UserID      string
	SuspendedBy string
	Reason      string
	Category    string
	ExpiresAt   *time.Time
	TokenKey    string // replacement key, revokes existing sessions
}
