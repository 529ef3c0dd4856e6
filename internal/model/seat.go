package model

// SeatCategory is a fixed attribute of a seat used for preference-based
// allocation.  The category is assigned when the hall grid is built and
// never changes afterwards.
type SeatCategory string

const (
	CategoryFront  SeatCategory = "front"  // rows closest to the screen
	CategoryBack   SeatCategory = "back"   // rows in the rear half
	CategoryCenter SeatCategory = "center" // middle column, best view
	CategoryAisle  SeatCategory = "aisle"  // first and last column of a row
)

// Valid reports whether c is one of the known categories.
func (c SeatCategory) Valid() bool {
	switch c {
	case CategoryFront, CategoryBack, CategoryCenter, CategoryAisle:
		return true
	}
	return false
}

// Seat occupancy states.  A seat moves FREE -> HELD while a claim is in
// flight and HELD -> BOOKED when the claim commits.  A failed claim moves
// HELD back to FREE; BOOKED is terminal.
const (
	SeatFree   = "FREE"
	SeatHeld   = "HELD"
	SeatBooked = "BOOKED"
)

// Seat describes one seat of the hall grid.  The ID is derived from the
// row label and column number (e.g. "A1") and is immutable after the grid
// is built.
//
// Fields:
//  ID       – stable identifier, row label + column number.
//  Row      – row label ("A", "B", ...).
//  Col      – 1-based column number within the row.
//  Category – allocation category, fixed at grid construction.
//  Status   – occupancy state (FREE, HELD, BOOKED).
type Seat struct {
	ID       string       `json:"id"`
	Row      string       `json:"row"`
	Col      uint32       `json:"col"`
	Category SeatCategory `json:"category"`
	Status   string       `json:"status"`
}
