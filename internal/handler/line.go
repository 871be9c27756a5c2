package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// LineHandler serves single reserved service lines: the per-line status
// machine providers drive, and the provider notes surface.
type LineHandler struct {
    Bookings *booking.Service
}

// NewLineHandler constructs a LineHandler.
func NewLineHandler(bookings *booking.Service) *LineHandler {
    if bookings == nil {
        panic("nil booking service passed to NewLineHandler")
    }
    return &LineHandler{Bookings: bookings}
}

// Get handles GET /v1/lines/:id.
func (h *LineHandler) Get(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
    }
    line, err := h.Bookings.GetLine(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, lineView(*line))
}

// SetStatus handles PUT /v1/lines/:id/status.  A line moves
// independently of its reservation, but in-cart lines are owned by the
// cart flow and cannot be driven from here.
func (h *LineHandler) SetStatus(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    line, err := h.Bookings.SetLineStatus(c.Request().Context(), id, model.LineStatus(body.Status))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, lineView(*line))
}

// UpdateNotes handles PUT /v1/lines/:id.  Providers attach delivery
// notes to their line without touching the rest of the aggregate.
func (h *LineHandler) UpdateNotes(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
    }
    var body struct {
        ProviderNotes string `json:"provider_notes"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    line, err := h.Bookings.SetProviderNotes(c.Request().Context(), id, body.ProviderNotes)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, lineView(*line))
}
