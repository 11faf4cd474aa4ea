package models

import (
	"slices"
	"time"
)

// Approval states of a lobbyist profile
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Rejection categories accepted by the reject action
var RejectionCategories = []string{
	"incomplete_profile",
	"inaccurate_information",
	"inappropriate_content",
	"duplicate_profile",
	"unverifiable_identity",
	"other",
}

// Lobbyist is a directory profile. It is publicly visible only when
// IsActive is true and ApprovalStatus is approved.
type Lobbyist struct {
	ID        string  `json:"id"`
	UserID    *string `json:"user_id"`
	Slug      string  `json:"slug"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`

	Phone        *string  `json:"phone"`
	Website      *string  `json:"website"`
	LinkedInURL  *string  `json:"linkedin_url"`
	Bio          *string  `json:"bio"`
	Cities       []string `json:"cities"`
	SubjectAreas []string `json:"subject_areas"`
	PhotoURL     *string  `json:"photo_url"`

	SubscriptionTier string `json:"subscription_tier"`
	ViewCount        int    `json:"view_count"`

	IsClaimed  bool       `json:"is_claimed"`
	ClaimedBy  *string    `json:"claimed_by"`
	ClaimedAt  *time.Time `json:"claimed_at"`
	IsActive   bool       `json:"is_active"`
	MergedInto *string    `json:"merged_into,omitempty"`

	ApprovalStatus     string     `json:"approval_status"`
	IsPending          bool       `json:"is_pending"`
	PendingReason      *string    `json:"pending_reason"`
	IsRejected         bool       `json:"is_rejected"`
	RejectionReason    *string    `json:"rejection_reason"`
	RejectionCategory  *string    `json:"rejection_category"`
	RejectionCount     int        `json:"rejection_count"`
	RejectedAt         *time.Time `json:"rejected_at"`
	RejectedBy         *string    `json:"rejected_by"`
	ResubmissionCount  int        `json:"resubmission_count"`
	LastResubmissionAt *time.Time `json:"last_resubmission_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsVisible reports whether the profile belongs in the public directory.
func (l *Lobbyist) IsVisible() bool {
	return l.IsActive && l.ApprovalStatus == ApprovalApproved
}

// IsOwnedBy reports whether userID is linked to the profile as owner or claimant.
func (l *Lobbyist) IsOwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return (l.UserID != nil && *l.UserID == userID) || (l.ClaimedBy != nil && *l.ClaimedBy == userID)
}

// ProfileContent is the owner-editable part of a profile, the unit a
// resubmission replaces and compares.
type ProfileContent struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	LinkedInURL  string   `json:"linkedin_url"`
	Bio          string   `json:"bio"`
	Cities       []string `json:"cities"`
	SubjectAreas []string `json:"subject_areas"`
}

// Content extracts the comparable content of a stored profile.
func (l *Lobbyist) Content() ProfileContent {
	return ProfileContent{
		FirstName:    l.FirstName,
		LastName:     l.LastName,
		Email:        deref(l.Email),
		Phone:        deref(l.Phone),
		Website:      deref(l.Website),
		LinkedInURL:  deref(l.LinkedInURL),
		Bio:          deref(l.Bio),
		Cities:       slices.Clone(l.Cities),
		SubjectAreas: slices.Clone(l.SubjectAreas),
	}
}

// NewLobbyist carries the insert of a self-created profile.
type NewLobbyist struct {
	UserID  string
	Slug    string
	Content ProfileContent
}

// Resubmission is the state a successful resubmission writes.
type Resubmission struct {
	LobbyistID    string
	Content       ProfileContent
	PendingReason string
	At            time.Time
}

// Rejection is the state a reject decision writes.
type Rejection struct {
	LobbyistID string
	AdminID    string
	Reason     string
	Category   string
	At         time.Time
}

// LobbyistUpdate carries admin edit-lobbyist fields; nil means unchanged.
type LobbyistUpdate struct {
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	Website      *string
	Bio          *string
	Cities       []string
	SubjectAreas []string
	IsActive     *bool
}

// DirectoryFilter drives the public directory listing.
type DirectoryFilter struct {
	City    string // city slug
	Subject string // subject-area slug
	Tier    string
	Page    int
	PerPage int
}

// DirectoryPage is one page of the public directory.
type DirectoryPage struct {
	Lobbyists []Lobbyist `json:"lobbyists"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PerPage   int        `json:"per_page"`
}

// SearchParams are the arguments of the search_lobbyists SQL function.
type SearchParams struct {
	Query   string
	City    string
	Subject string
	Limit   int
	Offset  int
}

// SearchResult is one ranked row from search_lobbyists.
type SearchResult struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Cities           []string `json:"cities"`
	SubjectAreas     []string `json:"subject_areas"`
	SubscriptionTier string   `json:"subscription_tier"`
	PhotoURL         *string  `json:"photo_url"`
	Rank             float64  `json:"rank"`
}

// Client is a lobbying client attached to a profile.
type Client struct {
	ID         string    `json:"id"`
	LobbyistID string    `json:"lobbyist_id"`
	Name       string    `json:"name"`
	Year       int       `json:"year"`
	CreatedAt  time.Time `json:"created_at"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
