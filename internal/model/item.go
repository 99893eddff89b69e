package model

import "time"

// Item represents a giveaway listing.
type Item struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Location    string     `json:"location,omitempty"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	OwnerName  string `json:"owner_name,omitempty"`
	ImageCount int    `json:"image_count,omitempty"`
}

// Item statuses. Taken is terminal.
const (
	ItemStatusAvailable = "available"
	ItemStatusPending   = "pending"
	ItemStatusTaken     = "taken"
)
