package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestBuildGrid_Categories(t *testing.T) {
	seats := BuildGrid(10, 10)
	require.Len(t, seats, 100)

	byID := make(map[string]model.Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}

	assert.Equal(t, model.CategoryAisle, byID["A1"].Category)
	assert.Equal(t, model.CategoryAisle, byID["A10"].Category)
	assert.Equal(t, model.CategoryCenter, byID["A5"].Category)
	assert.Equal(t, model.CategoryCenter, byID["J5"].Category) // center beats back
	assert.Equal(t, model.CategoryFront, byID["A2"].Category)
	assert.Equal(t, model.CategoryFront, byID["E9"].Category)
	assert.Equal(t, model.CategoryBack, byID["F2"].Category)
	assert.Equal(t, model.CategoryBack, byID["J9"].Category)

	for _, s := range seats {
		assert.Equal(t, model.SeatFree, s.Status)
	}
}

func TestBuildGrid_RowLabelsWrap(t *testing.T) {
	seats := BuildGrid(28, 2)
	assert.Equal(t, "A1", seats[0].ID)
	assert.Equal(t, "Z2", seats[25*2+1].ID)
	assert.Equal(t, "AA1", seats[26*2].ID)
	assert.Equal(t, "AB2", seats[27*2+1].ID)
}

func TestHold_UnknownSeat(t *testing.T) {
	s := NewMemoryStore(BuildGrid(2, 2))

	_, err := s.Hold(context.Background(), []string{"A1", "Z9"})
	var unavailable *booking.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"Z9"}, unavailable.SeatIDs)

	// Nothing was held for the known seat either.
	free, ferr := s.FreeSeats(context.Background())
	require.NoError(t, ferr)
	assert.Len(t, free, 4)
}

func TestHold_ConflictRollsBackAcquiredSeats(t *testing.T) {
	s := NewMemoryStore(BuildGrid(2, 2))
	ctx := context.Background()

	first, err := s.Hold(ctx, []string{"B2"})
	require.NoError(t, err)
	defer first.Release(ctx)

	_, err = s.Hold(ctx, []string{"A1", "B2"})
	var unavailable *booking.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"B2"}, unavailable.SeatIDs)

	// A1 must have been rolled back to FREE, not stranded in HELD.
	second, err := s.Hold(ctx, []string{"A1"})
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestHold_ConcurrentSingleWinner(t *testing.T) {
	s := NewMemoryStore(BuildGrid(4, 4))
	const workers = 16

	var wg sync.WaitGroup
	claims := make([]booking.Claim, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claims[i], _ = s.Hold(context.Background(), []string{"C3"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, c := range claims {
		if c != nil {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestConfirm_BooksSeatsAndAppendsOrder(t *testing.T) {
	s := NewMemoryStore(BuildGrid(2, 2))
	ctx := context.Background()

	claim, err := s.Hold(ctx, []string{"A1", "A2"})
	require.NoError(t, err)

	order := &model.Order{
		ID:        "ORD-000001",
		Customer:  "GUEST-g@x.io",
		Movie:     "Alien",
		Seats:     []string{"A1", "A2"},
		Mode:      model.ModeManual,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, claim.Confirm(ctx, order))

	seats, err := s.Seats(ctx)
	require.NoError(t, err)
	for _, seat := range seats {
		switch seat.ID {
		case "A1", "A2":
			assert.Equal(t, model.SeatBooked, seat.Status)
		default:
			assert.Equal(t, model.SeatFree, seat.Status)
		}
	}

	orders, err := s.OrdersByCustomer(ctx, "GUEST-g@x.io")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-000001", orders[0].ID)

	// A settled claim must not be reusable.
	assert.Error(t, claim.Confirm(ctx, order))
}

func TestRelease_ReturnsSeatsToFree(t *testing.T) {
	s := NewMemoryStore(BuildGrid(2, 2))
	ctx := context.Background()

	claim, err := s.Hold(ctx, []string{"B1"})
	require.NoError(t, err)
	require.NoError(t, claim.Release(ctx))

	free, err := s.FreeSeats(ctx)
	require.NoError(t, err)
	assert.Len(t, free, 4)
}

func TestOrdersByCustomer_NewestFirstAndIsolated(t *testing.T) {
	s := NewMemoryStore(BuildGrid(3, 3))
	ctx := context.Background()

	book := func(id, customer, seat string) {
		claim, err := s.Hold(ctx, []string{seat})
		require.NoError(t, err)
		require.NoError(t, claim.Confirm(ctx, &model.Order{
			ID: id, Customer: customer, Seats: []string{seat}, CreatedAt: time.Now().UTC(),
		}))
	}
	book("ORD-000001", "MEMBER-1", "A1")
	book("ORD-000002", "MEMBER-2", "A2")
	book("ORD-000003", "MEMBER-1", "A3")

	orders, err := s.OrdersByCustomer(ctx, "MEMBER-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-000003", orders[0].ID)
	assert.Equal(t, "ORD-000001", orders[1].ID)
}

func TestNextOrderID_MonotonicUnderConcurrency(t *testing.T) {
	s := NewMemoryStore(BuildGrid(2, 2))
	const n = 50

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.NextOrderID(context.Background())
			if err != nil {
				ids <- fmt.Sprintf("err: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		require.Falsef(t, dup, "order id %s issued twice", id)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n)
	// The very first issued id is part of the set.
	_, ok := seen["ORD-000001"]
	assert.True(t, ok)
}
