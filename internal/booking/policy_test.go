package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func seat(id, row string, col uint32, cat model.SeatCategory) model.Seat {
	return model.Seat{ID: id, Row: row, Col: col, Category: cat, Status: model.SeatFree}
}

func TestSelectCandidates_ManualPassthrough(t *testing.T) {
	p := NewPolicy(model.ModeManual)

	ids, rej := p.SelectCandidates(Request{SeatIDs: []string{"B3", "A1"}}, nil)
	require.Nil(t, rej)
	// The explicit list is honoured verbatim, order included.
	assert.Equal(t, []string{"B3", "A1"}, ids)
}

func TestSelectCandidates_AutoPicksCategoryInRowOrder(t *testing.T) {
	p := NewPolicy(model.ModeAuto)
	free := []model.Seat{
		seat("C2", "C", 2, model.CategoryFront),
		seat("A5", "A", 5, model.CategoryCenter),
		seat("C5", "C", 5, model.CategoryCenter),
		seat("B5", "B", 5, model.CategoryCenter),
	}

	ids, rej := p.SelectCandidates(Request{Preference: model.CategoryCenter, Count: 2}, free)
	require.Nil(t, rej)
	assert.Equal(t, []string{"A5", "B5"}, ids)
}

func TestSelectCandidates_AutoNeverFallsBack(t *testing.T) {
	p := NewPolicy(model.ModeAuto)
	// Plenty of front seats free, but only one aisle seat.
	free := []model.Seat{
		seat("A2", "A", 2, model.CategoryFront),
		seat("A3", "A", 3, model.CategoryFront),
		seat("B1", "B", 1, model.CategoryAisle),
	}

	ids, rej := p.SelectCandidates(Request{Preference: model.CategoryAisle, Count: 2}, free)
	require.NotNil(t, rej)
	assert.Nil(t, ids)
	assert.Equal(t, InsufficientInventory, rej.Kind)
	assert.Equal(t, model.CategoryAisle, rej.Preference)
	assert.Equal(t, 2, rej.Count)
}

func TestValidate_ManualMode(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want FailureKind
	}{
		{"no seats", Request{}, MalformedRequest},
		{"empty id", Request{SeatIDs: []string{"A1", ""}}, MalformedRequest},
		{"duplicate ids", Request{SeatIDs: []string{"A1", "A1"}}, MalformedRequest},
		{"auto payload in manual mode", Request{SeatIDs: []string{"A1"}, Count: 2}, MalformedRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rej := tc.req.validate(model.ModeManual)
			require.NotNil(t, rej)
			assert.Equal(t, tc.want, rej.Kind)
		})
	}

	assert.Nil(t, Request{SeatIDs: []string{"A1", "B2"}}.validate(model.ModeManual))
}

func TestValidate_AutoMode(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"explicit seats in auto mode", Request{SeatIDs: []string{"A1"}, Preference: model.CategoryBack, Count: 1}},
		{"zero count", Request{Preference: model.CategoryBack}},
		{"negative count", Request{Preference: model.CategoryBack, Count: -3}},
		{"unknown preference", Request{Preference: "balcony", Count: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rej := tc.req.validate(model.ModeAuto)
			require.NotNil(t, rej)
			assert.Equal(t, MalformedRequest, rej.Kind)
		})
	}

	assert.Nil(t, Request{Preference: model.CategoryBack, Count: 2}.validate(model.ModeAuto))
}
