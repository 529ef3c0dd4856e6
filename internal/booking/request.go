package booking

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Request is one booking attempt.  Exactly one of the two selection
// payloads is honoured, determined by the process-wide selection mode
// rather than per request: SeatIDs under manual mode, Preference and
// Count under automatic mode.
type Request struct {
	// Movie is an opaque descriptive field stored on the order verbatim.
	Movie string

	// SeatIDs is the explicit seat list (manual mode).
	SeatIDs []string

	// Preference and Count describe the soft request (automatic mode).
	Preference model.SeatCategory
	Count      int

	// EnteredSelectionAt is when the customer opened the seat selection
	// view, echoed back by the client.  Used only to record the selection
	// duration on the order; nil when not reported.
	EnteredSelectionAt *time.Time
}

// validate checks the payload against the active mode before any
// inventory access.  It enforces the XOR invariant between the two
// selection payloads and rejects empty or non-positive selections.
func (r Request) validate(mode model.SelectionMode) *Rejection {
	switch mode {
	case model.ModeManual:
		if len(r.SeatIDs) == 0 {
			return &Rejection{Kind: MalformedRequest, Message: "seat_ids is required in manual mode"}
		}
		if r.Preference != "" || r.Count != 0 {
			return &Rejection{Kind: MalformedRequest, Message: "preference/count not accepted in manual mode", SeatIDs: r.SeatIDs}
		}
		for _, id := range r.SeatIDs {
			if id == "" {
				return &Rejection{Kind: MalformedRequest, Message: "empty seat id", SeatIDs: r.SeatIDs}
			}
		}
		if hasDuplicates(r.SeatIDs) {
			return &Rejection{Kind: MalformedRequest, Message: "duplicate seat ids", SeatIDs: r.SeatIDs}
		}
	case model.ModeAuto:
		if len(r.SeatIDs) != 0 {
			return &Rejection{Kind: MalformedRequest, Message: "explicit seat_ids not accepted in automatic mode", SeatIDs: r.SeatIDs}
		}
		if r.Count <= 0 {
			return &Rejection{Kind: MalformedRequest, Message: "count must be positive", Preference: r.Preference, Count: r.Count}
		}
		if !r.Preference.Valid() {
			return &Rejection{Kind: MalformedRequest, Message: "unknown preference", Preference: r.Preference, Count: r.Count}
		}
	default:
		return &Rejection{Kind: MalformedRequest, Message: "unknown selection mode"}
	}
	return nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
