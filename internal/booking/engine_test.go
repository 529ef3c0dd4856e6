package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func newManualEngine(t *testing.T) (*booking.Engine, *inventory.MemoryStore) {
	t.Helper()
	mem := inventory.NewMemoryStore(inventory.BuildGrid(10, 10))
	return booking.NewEngine(mem, mem, booking.NewPolicy(model.ModeManual)), mem
}

func newAutoEngine(t *testing.T) (*booking.Engine, *inventory.MemoryStore) {
	t.Helper()
	mem := inventory.NewMemoryStore(inventory.BuildGrid(10, 10))
	return booking.NewEngine(mem, mem, booking.NewPolicy(model.ModeAuto)), mem
}

func guest(email string) booking.RoleContext {
	return booking.RoleContext{Role: booking.RoleGuest, Email: email, GuestTokenValid: true}
}

func member(id string) booking.RoleContext {
	return booking.RoleContext{Role: booking.RoleMember, UserID: id, MemberSessionValid: true}
}

func freeCount(t *testing.T, mem *inventory.MemoryStore) int {
	t.Helper()
	free, err := mem.FreeSeats(context.Background())
	require.NoError(t, err)
	return len(free)
}

func TestBook_RejectsByRoleContext(t *testing.T) {
	eng, _ := newManualEngine(t)
	req := booking.Request{Movie: "Alien", SeatIDs: []string{"A1"}}

	cases := []struct {
		name string
		rc   booking.RoleContext
		want booking.FailureKind
	}{
		{"no role at all", booking.RoleContext{}, booking.Unauthorized},
		{"guest without valid token", booking.RoleContext{Role: booking.RoleGuest, Email: "g@x.io"}, booking.InvalidGuestSession},
		{"member with expired session", booking.RoleContext{Role: booking.RoleMember, UserID: "7"}, booking.ExpiredMemberSession},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Book(context.Background(), tc.rc, req)
			rej := booking.As(err)
			require.NotNil(t, rej)
			assert.Equal(t, tc.want, rej.Kind)
		})
	}
}

func TestBook_ManualSuccess(t *testing.T) {
	eng, mem := newManualEngine(t)
	entered := time.Now().Add(-42 * time.Second)

	order, err := eng.Book(context.Background(), guest("g@x.io"), booking.Request{
		Movie:              "Alien",
		SeatIDs:            []string{"A1", "A2"},
		EnteredSelectionAt: &entered,
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "ORD-000001", order.ID)
	assert.Equal(t, "GUEST-g@x.io", order.Customer)
	assert.Equal(t, []string{"A1", "A2"}, order.Seats)
	assert.Equal(t, model.ModeManual, order.Mode)
	require.NotNil(t, order.SelectionSeconds)
	assert.InDelta(t, 42, *order.SelectionSeconds, 2)

	// Both seats left the free pool and the order is on the ledger.
	assert.Equal(t, 98, freeCount(t, mem))
	orders, err := mem.OrdersByCustomer(context.Background(), "GUEST-g@x.io")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestBook_ManualSeatTaken(t *testing.T) {
	eng, mem := newManualEngine(t)
	ctx := context.Background()

	_, err := eng.Book(ctx, member("1"), booking.Request{Movie: "Alien", SeatIDs: []string{"B3"}})
	require.NoError(t, err)

	_, err = eng.Book(ctx, member("2"), booking.Request{Movie: "Alien", SeatIDs: []string{"B2", "B3"}})
	rej := booking.As(err)
	require.NotNil(t, rej)
	assert.Equal(t, booking.InsufficientInventory, rej.Kind)
	assert.Equal(t, []string{"B3"}, rej.SeatIDs)
	assert.False(t, rej.Retryable())

	// The loser's free seat was not consumed by the failed attempt.
	assert.Equal(t, 99, freeCount(t, mem))
}

func TestBook_ConcurrentManualSingleWinner(t *testing.T) {
	eng, mem := newManualEngine(t)
	const attempts = 32

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Book(context.Background(), member("u"), booking.Request{
				Movie:   "Alien",
				SeatIDs: []string{"E5"},
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		rej := booking.As(err)
		require.NotNil(t, rej)
		assert.Equal(t, booking.InsufficientInventory, rej.Kind)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 99, freeCount(t, mem))
}

func TestBook_AutoSuccess(t *testing.T) {
	eng, _ := newAutoEngine(t)

	order, err := eng.Book(context.Background(), guest("g@x.io"), booking.Request{
		Movie:      "Alien",
		Preference: model.CategoryCenter,
		Count:      2,
	})
	require.NoError(t, err)
	require.Len(t, order.Seats, 2)
	// 10 columns put the center column at 5; earliest rows win.
	assert.Equal(t, []string{"A5", "B5"}, order.Seats)
}

func TestBook_AutoShortageLeavesInventoryUntouched(t *testing.T) {
	eng, mem := newAutoEngine(t)
	ctx := context.Background()

	// A 10x10 grid has exactly 10 center seats; a request for 11 must fail
	// without consuming any of them.
	_, err := eng.Book(ctx, member("1"), booking.Request{
		Movie: "Alien", Preference: model.CategoryCenter, Count: 11,
	})
	rej := booking.As(err)
	require.NotNil(t, rej)
	assert.Equal(t, booking.InsufficientInventory, rej.Kind)
	assert.Equal(t, 100, freeCount(t, mem))

	// All 10 remain claimable afterwards.
	order, err := eng.Book(ctx, member("1"), booking.Request{
		Movie: "Alien", Preference: model.CategoryCenter, Count: 10,
	})
	require.NoError(t, err)
	assert.Len(t, order.Seats, 10)
}

func TestBook_ConcurrentAutoNoDoubleBooking(t *testing.T) {
	eng, mem := newAutoEngine(t)
	const workers = 8

	var wg sync.WaitGroup
	orders := make([]*model.Order, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], errs[i] = eng.Book(context.Background(), member("u"), booking.Request{
				Movie: "Alien", Preference: model.CategoryBack, Count: 3,
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]string)
	booked := 0
	for i, err := range errs {
		if err != nil {
			require.NotNil(t, booking.As(err))
			continue
		}
		booked++
		for _, id := range orders[i].Seats {
			prev, dup := seen[id]
			require.Falsef(t, dup, "seat %s booked by both %s and %s", id, prev, orders[i].ID)
			seen[id] = orders[i].ID
		}
	}
	require.Greater(t, booked, 0)
	assert.Equal(t, 100-3*booked, freeCount(t, mem))
}

func TestBook_ConcurrentOrderIDsUnique(t *testing.T) {
	eng, _ := newManualEngine(t)
	const workers = 10

	var wg sync.WaitGroup
	ids := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seat := string(rune('A'+i)) + "9"
			order, err := eng.Book(context.Background(), member("u"), booking.Request{
				Movie: "Alien", SeatIDs: []string{seat},
			})
			require.NoError(t, err)
			ids[i] = order.ID
		}(i)
	}
	wg.Wait()

	unique := make(map[string]struct{}, workers)
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, workers)
}

// failingConfirmStore wraps the in-memory store and fails every Confirm,
// simulating a durability-layer outage between claim and record.
type failingConfirmStore struct {
	*inventory.MemoryStore
}

type failingClaim struct {
	booking.Claim
}

func (s *failingConfirmStore) Hold(ctx context.Context, seatIDs []string) (booking.Claim, error) {
	claim, err := s.MemoryStore.Hold(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	return &failingClaim{Claim: claim}, nil
}

func (c *failingClaim) Confirm(ctx context.Context, order *model.Order) error {
	return errors.New("disk on fire")
}

func TestBook_FailedConfirmReleasesSeats(t *testing.T) {
	mem := inventory.NewMemoryStore(inventory.BuildGrid(10, 10))
	store := &failingConfirmStore{MemoryStore: mem}
	eng := booking.NewEngine(store, mem, booking.NewPolicy(model.ModeManual))

	_, err := eng.Book(context.Background(), member("1"), booking.Request{
		Movie: "Alien", SeatIDs: []string{"C4", "C5"},
	})
	rej := booking.As(err)
	require.NotNil(t, rej)
	assert.Equal(t, booking.TransientStorageFailure, rej.Kind)
	assert.True(t, rej.Retryable())

	// All-or-nothing: no order on the ledger, both seats free again.
	orders, lerr := mem.OrdersByCustomer(context.Background(), "MEMBER-1")
	require.NoError(t, lerr)
	assert.Empty(t, orders)
	assert.Equal(t, 100, freeCount(t, mem))
}
