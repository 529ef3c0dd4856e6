package booking

import (
	"sort"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Policy is the pure allocation logic mapping a booking request to a
// candidate seat set.  It holds no state besides the selection mode,
// which is injected at construction and read-only for the life of the
// process; switching modes requires a restart.
type Policy struct {
	mode model.SelectionMode
}

// NewPolicy returns a Policy for the given selection mode.
func NewPolicy(mode model.SelectionMode) *Policy { return &Policy{mode: mode} }

// Mode returns the process-wide selection mode.
func (p *Policy) Mode() model.SelectionMode { return p.mode }

// SelectCandidates chooses candidate seat identifiers from a snapshot of
// free seats.  Candidates are not yet guaranteed available; the claim
// step performs the authoritative check.
//
// Manual mode passes the explicit seat list through unchanged.  Automatic
// mode picks the first Count free seats of the requested category in
// deterministic row/column order.  When the category has fewer free seats
// than requested the whole request is rejected: seats of another category
// are never substituted.
func (p *Policy) SelectCandidates(req Request, free []model.Seat) ([]string, *Rejection) {
	if p.mode == model.ModeManual {
		return req.SeatIDs, nil
	}

	matching := make([]model.Seat, 0, len(free))
	for _, s := range free {
		if s.Category == req.Preference {
			matching = append(matching, s)
		}
	}
	if len(matching) < req.Count {
		return nil, &Rejection{
			Kind:       InsufficientInventory,
			Message:    "not enough free seats in the requested category",
			Preference: req.Preference,
			Count:      req.Count,
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].Row != matching[j].Row {
			return matching[i].Row < matching[j].Row
		}
		return matching[i].Col < matching[j].Col
	})
	ids := make([]string, 0, req.Count)
	for _, s := range matching[:req.Count] {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
