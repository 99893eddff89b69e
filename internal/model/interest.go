package model

import "time"

// PlaceholderResponseHours is the stubbed average response time recorded in
// stats snapshots. It is not computed from real response latency.
const PlaceholderResponseHours = 24

// UserStats is a point-in-time summary of a user's giving and receiving
// history. It is captured when interest is expressed and never recomputed
// for existing entries.
type UserStats struct {
	TotalItemsGiven      int       `json:"total_items_given"`
	TotalItemsReceived   int       `json:"total_items_received"`
	AverageResponseHours int       `json:"average_response_hours"`
	LastActivity         time.Time `json:"last_activity"`
}

// Interest represents one user's expressed desire to receive an item.
// At most one interest per item may be selected at any time.
type Interest struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	UserID    int64     `json:"user_id"`
	Selected  bool      `json:"selected"`
	Stats     UserStats `json:"user_stats"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}
