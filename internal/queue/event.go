// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCompletedEvent is published after a booking transaction commits.
// It carries enough information for downstream consumers to log or notify
// without querying the ledger.
type BookingCompletedEvent struct {
	OrderID          string   `json:"order_id"`
	Customer         string   `json:"customer"`
	Role             string   `json:"role"`
	Movie            string   `json:"movie,omitempty"`
	Mode             string   `json:"mode"`
	Seats            []string `json:"seats"`
	SelectionSeconds *float64 `json:"selection_seconds,omitempty"`
	CompletedAt      string   `json:"completed_at"`
}
