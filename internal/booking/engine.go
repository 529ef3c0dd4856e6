package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Store is the seat inventory contract the engine books against.  Two
// backends implement it: the in-memory grid and the MySQL-backed store.
// Hold is the only mutating entry point and must be all-or-nothing: it
// either claims every requested seat or claims none and reports the
// conflicting ids via *SeatUnavailableError.  A seat locked by another
// in-flight claim counts as unavailable, not free, and Hold must not
// block waiting for it.
type Store interface {
	// Seats returns the full grid with current occupancy.  Read-only.
	Seats(ctx context.Context) ([]model.Seat, error)
	// FreeSeats returns a consistent snapshot of claimable seats.
	FreeSeats(ctx context.Context) ([]model.Seat, error)
	// Hold atomically claims the given seats, transitioning them to HELD.
	Hold(ctx context.Context, seatIDs []string) (Claim, error)
}

// Claim is an in-flight hold on a specific seat set.  Exactly one of
// Confirm or Release must be called.
type Claim interface {
	// Confirm books the held seats and appends the order in one
	// all-or-nothing unit.  On error nothing is persisted and the seats
	// must be released by the caller.
	Confirm(ctx context.Context, order *model.Order) error
	// Release aborts the claim and returns the seats to FREE.
	Release(ctx context.Context) error
}

// Ledger issues order identifiers and reads back completed orders.  The
// append itself happens inside Claim.Confirm so that claim and record
// commit together.
type Ledger interface {
	// NextOrderID returns a fresh identifier, strictly increasing and
	// never repeated, safe under concurrent callers.
	NextOrderID(ctx context.Context) (string, error)
	// OrdersByCustomer lists completed orders for one customer identity,
	// newest first.
	OrdersByCustomer(ctx context.Context, customer string) ([]model.Order, error)
}

// maxClaimAttempts bounds how often automatic mode recomputes candidates
// after losing a race for a seat.  Keeps conflict resolution from turning
// into an unbounded retry loop.
const maxClaimAttempts = 4

// Engine runs the reservation transaction: authorize, select candidates,
// claim, record.  The claim step is the sole mutual-exclusion point and
// is scoped to the contended seats only, so unrelated bookings proceed
// concurrently.
type Engine struct {
	store  Store
	ledger Ledger
	policy *Policy
}

// NewEngine wires a reservation engine.  All dependencies are required.
func NewEngine(store Store, ledger Ledger, policy *Policy) *Engine {
	if store == nil || ledger == nil || policy == nil {
		panic("nil dependency passed to NewEngine")
	}
	return &Engine{store: store, ledger: ledger, policy: policy}
}

// Policy exposes the allocation policy, e.g. for the seat-config view.
func (e *Engine) Policy() *Policy { return e.policy }

// Book executes one booking attempt end to end.  On success the returned
// order is durably recorded and its seats are booked.  On failure the
// inventory is left exactly as it was before the attempt and the error is
// a *Rejection carrying one of the taxonomy kinds.
func (e *Engine) Book(ctx context.Context, rc RoleContext, req Request) (*model.Order, error) {
	if rej := authorize(rc); rej != nil {
		return nil, rej
	}
	if rej := req.validate(e.policy.Mode()); rej != nil {
		return nil, rej
	}

	claim, seats, rej := e.claimCandidates(ctx, req)
	if rej != nil {
		return nil, rej
	}

	id, err := e.ledger.NextOrderID(ctx)
	if err != nil {
		_ = claim.Release(ctx)
		return nil, storageRejection(req)
	}
	now := time.Now().UTC()
	order := &model.Order{
		ID:               id,
		Customer:         rc.CustomerID(),
		Movie:            req.Movie,
		Seats:            seats,
		Mode:             e.policy.Mode(),
		SelectionSeconds: selectionSeconds(req.EnteredSelectionAt, now),
		CreatedAt:        now,
	}
	if err := claim.Confirm(ctx, order); err != nil {
		_ = claim.Release(ctx)
		return nil, storageRejection(req)
	}
	return order, nil
}

// claimCandidates runs the select-then-claim loop.  Seats that lost a
// race are remembered and excluded from later snapshots, so automatic
// mode converges on seats not locked elsewhere instead of re-fighting the
// same rows.  Manual mode gets no second chance: the customer asked for
// those exact seats.
func (e *Engine) claimCandidates(ctx context.Context, req Request) (Claim, []string, *Rejection) {
	contended := make(map[string]struct{})

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		free, err := e.store.FreeSeats(ctx)
		if err != nil {
			return nil, nil, storageRejection(req)
		}
		if len(contended) > 0 {
			filtered := free[:0]
			for _, s := range free {
				if _, skip := contended[s.ID]; !skip {
					filtered = append(filtered, s)
				}
			}
			free = filtered
		}

		candidates, rej := e.policy.SelectCandidates(req, free)
		if rej != nil {
			return nil, nil, rej
		}

		claim, err := e.store.Hold(ctx, candidates)
		if err == nil {
			return claim, candidates, nil
		}
		var unavailable *SeatUnavailableError
		if !errors.As(err, &unavailable) {
			return nil, nil, storageRejection(req)
		}
		if e.policy.Mode() == model.ModeManual {
			return nil, nil, &Rejection{
				Kind:    InsufficientInventory,
				Message: "requested seats are not available",
				SeatIDs: unavailable.SeatIDs,
			}
		}
		for _, id := range unavailable.SeatIDs {
			contended[id] = struct{}{}
		}
	}
	return nil, nil, &Rejection{
		Kind:       InsufficientInventory,
		Message:    "could not claim seats after repeated contention",
		Preference: req.Preference,
		Count:      req.Count,
	}
}

// authorize gates the flow before any inventory access.
func authorize(rc RoleContext) *Rejection {
	switch rc.Role {
	case RoleGuest:
		if !rc.GuestTokenValid {
			return &Rejection{Kind: InvalidGuestSession, Message: "guest token missing or invalid"}
		}
	case RoleMember:
		if !rc.MemberSessionValid {
			return &Rejection{Kind: ExpiredMemberSession, Message: "member session expired"}
		}
	default:
		return &Rejection{Kind: Unauthorized, Message: "booking requires a guest token or member session"}
	}
	return nil
}

func selectionSeconds(enteredAt *time.Time, now time.Time) *float64 {
	if enteredAt == nil {
		return nil
	}
	d := now.Sub(*enteredAt).Seconds()
	if d < 0 {
		return nil
	}
	return &d
}

func storageRejection(req Request) *Rejection {
	return &Rejection{
		Kind:       TransientStorageFailure,
		Message:    "storage unavailable, retry later",
		SeatIDs:    req.SeatIDs,
		Preference: req.Preference,
		Count:      req.Count,
	}
}
