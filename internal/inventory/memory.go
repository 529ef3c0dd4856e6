package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// Per-seat state words.  Transitions go through compare-and-swap only, so
// two claims racing for one seat resolve without any store-wide lock: the
// loser observes the seat as held and fails fast instead of waiting.
const (
	stateFree int32 = iota
	stateHeld
	stateBooked
)

// MemoryStore keeps the whole inventory and ledger in process memory.
// It implements both booking.Store and booking.Ledger.  Seat descriptors
// are immutable after construction; only the per-seat state words and the
// append-only order list change.
type MemoryStore struct {
	seats  []model.Seat
	index  map[string]int
	states []atomic.Int32

	seq atomic.Uint64

	mu     sync.Mutex
	orders []model.Order
}

// NewMemoryStore builds a store over the given grid.  The slice is copied
// so the caller cannot alias internal state.
func NewMemoryStore(seats []model.Seat) *MemoryStore {
	s := &MemoryStore{
		seats:  make([]model.Seat, len(seats)),
		index:  make(map[string]int, len(seats)),
		states: make([]atomic.Int32, len(seats)),
	}
	copy(s.seats, seats)
	for i, seat := range s.seats {
		s.index[seat.ID] = i
	}
	return s
}

// Seats returns a fresh copy of the grid with current occupancy.
func (s *MemoryStore) Seats(ctx context.Context) ([]model.Seat, error) {
	out := make([]model.Seat, len(s.seats))
	for i, seat := range s.seats {
		seat.Status = statusString(s.states[i].Load())
		out[i] = seat
	}
	return out, nil
}

// FreeSeats returns the seats currently claimable.  Seats held by an
// in-flight claim are excluded: held is not free.
func (s *MemoryStore) FreeSeats(ctx context.Context) ([]model.Seat, error) {
	out := make([]model.Seat, 0, len(s.seats))
	for i, seat := range s.seats {
		if s.states[i].Load() == stateFree {
			out = append(out, seat)
		}
	}
	return out, nil
}

// Hold claims every requested seat or none.  Seats are acquired in index
// order so two overlapping claims cannot deadlock; on any conflict the
// partial acquisition is rolled back and the conflicting ids reported.
func (s *MemoryStore) Hold(ctx context.Context, seatIDs []string) (booking.Claim, error) {
	idxs := make([]int, 0, len(seatIDs))
	var unknown []string
	for _, id := range seatIDs {
		i, ok := s.index[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		idxs = append(idxs, i)
	}
	if len(unknown) > 0 {
		return nil, &booking.SeatUnavailableError{SeatIDs: unknown}
	}
	sort.Ints(idxs)

	acquired := make([]int, 0, len(idxs))
	var conflicts []string
	for _, i := range idxs {
		if s.states[i].CompareAndSwap(stateFree, stateHeld) {
			acquired = append(acquired, i)
			continue
		}
		conflicts = append(conflicts, s.seats[i].ID)
	}
	if len(conflicts) > 0 {
		for _, i := range acquired {
			s.states[i].CompareAndSwap(stateHeld, stateFree)
		}
		return nil, &booking.SeatUnavailableError{SeatIDs: conflicts}
	}
	return &memoryClaim{store: s, idxs: acquired}, nil
}

// NextOrderID hands out strictly increasing human-readable identifiers
// from a shared atomic counter.
func (s *MemoryStore) NextOrderID(ctx context.Context) (string, error) {
	return fmt.Sprintf("ORD-%06d", s.seq.Add(1)), nil
}

// OrdersByCustomer lists the customer's completed orders, newest first.
func (s *MemoryStore) OrdersByCustomer(ctx context.Context, customer string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0)
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].Customer == customer {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

// Orders returns every completed order in append order.
func (s *MemoryStore) Orders(ctx context.Context) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

type memoryClaim struct {
	store *MemoryStore
	idxs  []int
	done  atomic.Bool
}

var errClaimSettled = errors.New("claim already settled")

// Confirm books the held seats and appends the order.  The append happens
// before the state flips so a reader can never observe a booked seat with
// no corresponding order.
func (c *memoryClaim) Confirm(ctx context.Context, order *model.Order) error {
	if !c.done.CompareAndSwap(false, true) {
		return errClaimSettled
	}
	c.store.mu.Lock()
	c.store.orders = append(c.store.orders, *order)
	c.store.mu.Unlock()
	for _, i := range c.idxs {
		c.store.states[i].Store(stateBooked)
	}
	return nil
}

// Release returns the held seats to FREE.  Safe to call more than once.
func (c *memoryClaim) Release(ctx context.Context) error {
	if !c.done.CompareAndSwap(false, true) {
		return nil
	}
	for _, i := range c.idxs {
		c.store.states[i].CompareAndSwap(stateHeld, stateFree)
	}
	return nil
}

func statusString(state int32) string {
	switch state {
	case stateHeld:
		return model.SeatHeld
	case stateBooked:
		return model.SeatBooked
	default:
		return model.SeatFree
	}
}
