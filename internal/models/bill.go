package models

import "time"

type Bill struct {
	ID         string    `json:"id"`
	BillNumber string    `json:"bill_number"`
	Session    string    `json:"session"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	LastAction *string   `json:"last_action"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type BillTag struct {
	ID        string    `json:"id"`
	BillID    string    `json:"bill_id"`
	UserID    string    `json:"user_id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

type WatchlistEntry struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	BillID         string     `json:"bill_id"`
	Notify         bool       `json:"notify"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	Bill           *Bill      `json:"bill,omitempty"`
}

// WatchNotification is a watched bill that changed since the watcher was last told.
type WatchNotification struct {
	EntryID   string
	UserEmail string
	UserName  string
	Bill      Bill
}

type Favorite struct {
	UserID     string    `json:"user_id"`
	LobbyistID string    `json:"lobbyist_id"`
	CreatedAt  time.Time `json:"created_at"`
}
