package models

import "time"

// Request lifecycle states shared by claim, role upgrade and merge requests
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ClaimRequest links a user to an existing, unclaimed profile.
type ClaimRequest struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	LobbyistID         string     `json:"lobbyist_id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	Phone              *string    `json:"phone"`
	VerificationDocKey *string    `json:"verification_document_key"`
	Status             string     `json:"status"`
	RejectionReason    *string    `json:"rejection_reason"`
	ReviewedBy         *string    `json:"reviewed_by"`
	ReviewedAt         *time.Time `json:"reviewed_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// RoleUpgradeRequest asks to move a searcher to the lobbyist role.
type RoleUpgradeRequest struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	RequestedRole        string     `json:"requested_role"`
	Justification        string     `json:"justification"`
	IsRegisteredLobbyist bool       `json:"is_registered_lobbyist"`
	Status               string     `json:"status"`
	RejectionReason      *string    `json:"rejection_reason"`
	ReviewedBy           *string    `json:"reviewed_by"`
	ReviewedAt           *time.Time `json:"reviewed_at"`
	CreatedAt            time.Time  `json:"created_at"`
}

// MergeRequest asks an admin to fold a duplicate profile into a primary one.
type MergeRequest struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requester_id"`
	PrimaryID       string     `json:"primary_lobbyist_id"`
	DuplicateID     string     `json:"duplicate_lobbyist_id"`
	Reason          *string    `json:"reason"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason"`
	ReviewedBy      *string    `json:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Decision records an admin resolution of a pending request.
type Decision struct {
	RequestID string
	AdminID   string
	Reason    string // rejections only
	At        time.Time
}

// PendingCounts backs the admin dashboard.
type PendingCounts struct {
	Lobbyists      int            `json:"pending_lobbyists"`
	Claims         int            `json:"pending_claims"`
	RoleUpgrades   int            `json:"pending_role_upgrades"`
	Merges         int            `json:"pending_merges"`
	SuspendedUsers int            `json:"suspended_users"`
	Tiers          map[string]int `json:"tiers"`
}
