package models

import "time"

// Support ticket categories
var IssueCategories = []string{"bug", "account", "billing", "content", "other"}

type SupportTicket struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	Email       string    `json:"email"`
	Category    string    `json:"category"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	PageURL     *string   `json:"page_url"`
	IPAddress   string    `json:"-"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileReport flags a problem with a specific directory profile.
type ProfileReport struct {
	ID          string    `json:"id"`
	LobbyistID  string    `json:"lobbyist_id"`
	ReporterID  *string   `json:"reporter_id"`
	Email       string    `json:"email"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	IPAddress   string    `json:"-"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
