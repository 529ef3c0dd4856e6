package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

// preference describes one automatic-mode choice shown to the customer.
type preference struct {
	Key   model.SeatCategory `json:"key"`
	Label string             `json:"label"`
}

var preferenceMenu = []preference{
	{Key: model.CategoryCenter, Label: "Best view (center block)"},
	{Key: model.CategoryAisle, Label: "Easy access (aisle seats)"},
	{Key: model.CategoryBack, Label: "More privacy (back rows)"},
	{Key: model.CategoryFront, Label: "Close to the screen (front rows)"},
}

// BookingHandler exposes the seat-config read path and the booking write
// path.  Authorization happens upstream: the RoleContext middleware
// parses the token and the engine classifies whatever it finds.
type BookingHandler struct {
	Engine *booking.Engine
	Store  booking.Store
	Ledger booking.Ledger
	// Publish sends the completed-booking event; nil disables publishing.
	Publish func(event queue.BookingCompletedEvent)
	// FlushSeatConfig drops the cached seat-config response after a
	// booking changed occupancy; nil when caching is disabled.
	FlushSeatConfig func()
}

// NewBookingHandler constructs a BookingHandler.  Engine, store and
// ledger are required; the two hooks are optional.
func NewBookingHandler(engine *booking.Engine, store booking.Store, ledger booking.Ledger) *BookingHandler {
	if engine == nil || store == nil || ledger == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: engine, Store: store, Ledger: ledger}
}

// SeatConfig handles GET /v1/seat-config.  It is a read-only projection
// of the inventory: manual mode returns the seat map with occupancy,
// automatic mode returns the preference menu.  The entered_at timestamp
// is echoed back by the client on booking so the selection duration can
// be recorded on the order.
func (h *BookingHandler) SeatConfig(c echo.Context) error {
	mode := h.Engine.Policy().Mode()
	resp := echo.Map{
		"mode":       mode,
		"entered_at": time.Now().UTC().Format(time.RFC3339),
	}
	if mode == model.ModeManual {
		seats, err := h.Store.Seats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "inventory unavailable"})
		}
		resp["seats"] = seats
	} else {
		resp["preferences"] = preferenceMenu
	}
	return c.JSON(http.StatusOK, resp)
}

type bookReq struct {
	Movie      string   `json:"movie"`
	SeatIDs    []string `json:"seat_ids"`
	Preference string   `json:"preference"`
	Count      int      `json:"count"`
	EnteredAt  string   `json:"entered_at"`
}

// CreateBooking handles POST /v1/bookings: the single write path.  The
// whole reservation transaction runs in the engine; this handler only
// translates between HTTP and the engine's request/rejection types.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body bookReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": booking.MalformedRequest, "message": "invalid request body"})
	}
	req := booking.Request{
		Movie:      body.Movie,
		SeatIDs:    body.SeatIDs,
		Preference: model.SeatCategory(body.Preference),
		Count:      body.Count,
	}
	if body.EnteredAt != "" {
		if t, err := time.Parse(time.RFC3339, body.EnteredAt); err == nil {
			req.EnteredSelectionAt = &t
		}
	}

	rc := middleware.CurrentRole(c)
	order, err := h.Engine.Book(c.Request().Context(), rc, req)
	if err != nil {
		rej := booking.As(err)
		if rej == nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
		log.Printf("booking rejected kind=%s role=%s", rej.Kind, rc.Role)
		resp := echo.Map{
			"error":     rej.Kind,
			"message":   rej.Message,
			"retryable": rej.Retryable(),
		}
		if len(rej.SeatIDs) > 0 {
			resp["seat_ids"] = rej.SeatIDs
		}
		if rej.Preference != "" {
			resp["preference"] = rej.Preference
			resp["count"] = rej.Count
		}
		return c.JSON(statusFor(rej.Kind), resp)
	}

	log.Printf("booking completed order=%s customer=%s seats=%v", order.ID, order.Customer, order.Seats)
	if h.FlushSeatConfig != nil {
		h.FlushSeatConfig()
	}
	if h.Publish != nil {
		h.Publish(queue.BookingCompletedEvent{
			OrderID:          order.ID,
			Customer:         order.Customer,
			Role:             string(rc.Role),
			Movie:            order.Movie,
			Mode:             string(order.Mode),
			Seats:            order.Seats,
			SelectionSeconds: order.SelectionSeconds,
			CompletedAt:      order.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":   order.ID,
		"seats":      order.Seats,
		"created_at": order.CreatedAt.Format(time.RFC3339),
	})
}

// ListBookings handles GET /v1/bookings.  Members see their own orders,
// newest first.  Guests have no durable identity to query by, so the
// route is member-only (enforced by RequireRole upstream).
func (h *BookingHandler) ListBookings(c echo.Context) error {
	rc := middleware.CurrentRole(c)
	orders, err := h.Ledger.OrdersByCustomer(c.Request().Context(), rc.CustomerID())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "ledger unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// statusFor maps rejection kinds onto HTTP status codes.
func statusFor(kind booking.FailureKind) int {
	switch kind {
	case booking.Unauthorized, booking.ExpiredMemberSession:
		return http.StatusUnauthorized
	case booking.InvalidGuestSession:
		return http.StatusForbidden
	case booking.MalformedRequest:
		return http.StatusBadRequest
	case booking.InsufficientInventory:
		return http.StatusConflict
	case booking.TransientStorageFailure:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
