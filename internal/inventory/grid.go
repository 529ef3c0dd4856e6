// Package inventory provides the in-memory seat inventory backend and the
// hall grid builder shared by all backends.
package inventory

import (
	"fmt"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// BuildGrid constructs the fixed seat grid once at process start.  Seats
// are identified by row label plus column number ("A1", "B7"); category
// assignment is deterministic per row and column:
//
//	middle column        -> center
//	first / last column  -> aisle
//	rows in the rear half -> back
//	everything else      -> front
//
// Rows beyond 26 wrap into double letters ("AA1").  All seats start FREE.
func BuildGrid(rows, cols int) []model.Seat {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	seats := make([]model.Seat, 0, rows*cols)
	for r := 1; r <= rows; r++ {
		label := rowLabel(r)
		for c := 1; c <= cols; c++ {
			seats = append(seats, model.Seat{
				ID:       fmt.Sprintf("%s%d", label, c),
				Row:      label,
				Col:      uint32(c),
				Category: categoryFor(r, c, rows, cols),
				Status:   model.SeatFree,
			})
		}
	}
	return seats
}

func categoryFor(row, col, rows, cols int) model.SeatCategory {
	switch {
	case col == (cols+1)/2:
		return model.CategoryCenter
	case col == 1 || col == cols:
		return model.CategoryAisle
	case row > rows/2:
		return model.CategoryBack
	default:
		return model.CategoryFront
	}
}

func rowLabel(row int) string {
	label := ""
	for row > 0 {
		row--
		label = string(rune('A'+row%26)) + label
		row /= 26
	}
	return label
}
