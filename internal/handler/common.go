package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel comparisons in respondError
    "net/http"
    "strconv" // strconv converts path parameters to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
    "github.com/valleturismo/reservation-engine/internal/plan"
)

// getUserID extracts the authenticated user id placed in the context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// paramID parses the named path parameter as a positive uint64.
func paramID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id != 0
}

// respondError translates the aggregate's typed errors into HTTP
// responses.  Validation failures carry their per-field messages;
// conflicts are distinguished so clients can tell "slot taken" from
// "wrong state".
func respondError(c echo.Context, err error) error {
    var verr *booking.ValidationError
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
    case errors.Is(err, booking.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrAvailabilityConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot not available", "detail": err.Error()})
    case errors.Is(err, booking.ErrCapacityExceeded):
        return c.JSON(http.StatusConflict, echo.Map{"error": "capacity exceeded", "detail": err.Error()})
    case errors.Is(err, plan.ErrPlanFull):
        return c.JSON(http.StatusConflict, echo.Map{"error": "plan full", "detail": err.Error()})
    case errors.Is(err, plan.ErrAlreadyEnrolled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled", "detail": err.Error()})
    case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrUniqueViolation):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    }
    c.Logger().Errorf("internal error: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// lineView renders a reserved service line for API responses.
func lineView(l model.ReservedServiceLine) echo.Map {
    v := echo.Map{
        "id":               l.ID,
        "reservation_id":   l.ReservationID,
        "service_id":       l.ServiceID,
        "provider_id":      l.ProviderID,
        "start_date":       l.StartDate,
        "start_time":       l.StartTime,
        "end_time":         l.EndTime,
        "duration_min":     l.DurationMin,
        "quantity":         l.Quantity,
        "unit_price_cents": l.UnitPriceCents,
        "status":           l.Status,
        "client_notes":     l.ClientNotes,
        "provider_notes":   l.ProviderNotes,
        "created_at":       l.CreatedAt,
        "updated_at":       l.UpdatedAt,
    }
    if l.EndDate != nil {
        v["end_date"] = *l.EndDate
    }
    return v
}

// reservationView renders a reservation with its lines and derived total.
func reservationView(r *model.Reservation) echo.Map {
    lines := make([]echo.Map, 0, len(r.Lines))
    for _, l := range r.Lines {
        lines = append(lines, lineView(l))
    }
    return echo.Map{
        "id":                r.ID,
        "owner_id":          r.OwnerID,
        "code":              r.Code,
        "status":            r.Status,
        "notes":             r.Notes,
        "total_price_cents": r.TotalPriceCents(),
        "lines":             lines,
        "created_at":        r.CreatedAt,
        "updated_at":        r.UpdatedAt,
    }
}
