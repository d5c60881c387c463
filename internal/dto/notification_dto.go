package dto

import "time"

// Notification is pushed over the websocket hub, e.g. when a deep
// analysis finishes and the dashboard should surface a toast.
type Notification struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Route     string    `json:"route,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
