package model

import "time"

// Selection modes.  The active mode is a process-wide toggle chosen at
// startup; every booking request is interpreted under exactly one of them.
type SelectionMode string

const (
	ModeManual SelectionMode = "manual" // customer names explicit seats
	ModeAuto   SelectionMode = "auto"   // customer names a category preference
)

// Order is the append-only record of a completed booking.  Orders are
// created exactly once, atomically with the seat claim, and never mutated
// or deleted.  The seat lists of any two orders are disjoint for the
// lifetime of the inventory.
//
// Fields:
//  ID               – human-readable identifier ("ORD-000001"), strictly
//                     increasing across the process lifetime.
//  Customer         – role-derived identity ("MEMBER-3", "GUEST-a@b.c").
//  Movie            – opaque descriptive field supplied by the caller;
//                     stored verbatim, never interpreted.
//  Seats            – seat identifiers granted by the claim.
//  Mode             – selection mode the order was placed under.
//  SelectionSeconds – time the customer spent on seat selection, when the
//                     client reported when selection started.
//  CreatedAt        – commit timestamp in UTC.
type Order struct {
	ID               string        `json:"order_id"`
	Customer         string        `json:"customer"`
	Movie            string        `json:"movie,omitempty"`
	Seats            []string      `json:"seats"`
	Mode             SelectionMode `json:"mode"`
	SelectionSeconds *float64      `json:"selection_seconds,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}
