package handler

import (
    "context"
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/queue"
    queuepub "github.com/valleturismo/reservation-engine/internal/service"
)

// CartHandler serves the authenticated user's cart: the single in-cart
// reservation that collects lines before they are committed.  All
// methods assume JWT authentication has run; aggregate rules (cart
// singleton, optimistic add, locked confirm) live in the booking
// service, the handler only translates HTTP.
type CartHandler struct {
    Bookings *booking.Service
    // Publish sends the confirmation event after a successful confirm.
    Publish func(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// NewCartHandler constructs a CartHandler publishing events to the
// message broker.  The booking service must be non-nil.
func NewCartHandler(bookings *booking.Service) *CartHandler {
    if bookings == nil {
        panic("nil booking service passed to NewCartHandler")
    }
    return &CartHandler{Bookings: bookings, Publish: queuepub.PublishReservationConfirmed}
}

// GetCart handles GET /v1/cart.  It returns the caller's cart, creating
// an empty one on first access.
func (h *CartHandler) GetCart(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    cart, err := h.Bookings.GetOrCreateCart(c.Request().Context(), userID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, reservationView(cart))
}

// AddLine handles POST /v1/cart/lines.  The body is one line form; the
// service validates the schedule but deliberately not other users'
// committed lines, so a cart can hold a slot that later fails to
// confirm.
func (h *CartHandler) AddLine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var form booking.LineForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    in, err := booking.ParseLineInput(form)
    if err != nil {
        return respondError(c, err)
    }
    cart, err := h.Bookings.AddLineToCart(c.Request().Context(), userID, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, reservationView(cart))
}

// RemoveLine handles DELETE /v1/cart/lines/:id.  Only the cart's owner
// may remove a line, and only while the line is still in the cart.
func (h *CartHandler) RemoveLine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    lineID, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
    }
    if err := h.Bookings.RemoveLineFromCart(c.Request().Context(), lineID, userID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Empty handles DELETE /v1/cart.  It removes every line from the
// caller's cart but keeps the cart itself.
func (h *CartHandler) Empty(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Bookings.EmptyCart(c.Request().Context(), userID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Confirm handles POST /v1/cart/confirm.  The service re-validates every
// line under the slot locks and promotes the cart to a pending
// reservation; on success a confirmation event is published for
// downstream consumers.  An empty cart is rejected with 409.
func (h *CartHandler) Confirm(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Notes *string `json:"notes"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    res, err := h.Bookings.ConfirmCart(c.Request().Context(), userID, body.Notes)
    if err != nil {
        return respondError(c, err)
    }

    // Publish after commit; a broker failure must not undo the booking.
    _ = h.Publish(c.Request().Context(), queue.NewReservationConfirmedEvent(res))

    return c.JSON(http.StatusOK, reservationView(res))
}
