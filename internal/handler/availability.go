package handler

import (
    "net/http" // HTTP status codes
    "strconv"  // parsing query parameters

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/availability"
    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// AvailabilityHandler serves the public read-only availability and
// schedule queries.  Both endpoints sit behind the response cache, so
// answers are advisory: the locked confirm path re-validates.
type AvailabilityHandler struct {
    Bookings *booking.Service
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(bookings *booking.Service) *AvailabilityHandler {
    if bookings == nil {
        panic("nil booking service passed to NewAvailabilityHandler")
    }
    return &AvailabilityHandler{Bookings: bookings}
}

// Check handles GET /v1/availability.  Query parameters: service_id,
// date (YYYY-MM-DD), start and end (HH:MM), optional end_date for
// multi-day slots.  The response carries the verdict so a client can
// distinguish "outside schedule" from "slot taken" from "full".
func (h *AvailabilityHandler) Check(c echo.Context) error {
    slot, err := slotFromQuery(c)
    if err != nil {
        return respondError(c, err)
    }
    verdict, err := h.Bookings.CheckSlot(c.Request().Context(), slot)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "service_id": slot.ServiceID,
        "date":       slot.StartDate,
        "start":      slot.StartTime,
        "end":        slot.EndTime,
        "available":  verdict == availability.Available,
        "verdict":    verdict.String(),
    })
}

// Schedule handles GET /v1/services/:id/schedule.  The day parameter is
// 0 (Monday) through 6 (Sunday); alternatively a date parameter picks
// the weekday of that date.
func (h *AvailabilityHandler) Schedule(c echo.Context) error {
    serviceID, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
    }
    var day model.DayOfWeek
    switch {
    case c.QueryParam("date") != "":
        d, err := model.ParseDate(c.QueryParam("date"))
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
        }
        day = d.Weekday()
    case c.QueryParam("day") != "":
        n, err := strconv.Atoi(c.QueryParam("day"))
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
        }
        day = model.DayOfWeek(n)
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "day or date is required"})
    }
    windows, err := h.Bookings.ScheduleFor(c.Request().Context(), serviceID, day)
    if err != nil {
        return respondError(c, err)
    }
    views := make([]echo.Map, 0, len(windows))
    for _, w := range windows {
        views = append(views, echo.Map{
            "id":         w.ID,
            "day":        w.Day.String(),
            "start_time": w.StartTime,
            "end_time":   w.EndTime,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"service_id": serviceID, "day": day.String(), "windows": views})
}

// slotFromQuery parses the availability query parameters into a slot.
func slotFromQuery(c echo.Context) (availability.Slot, error) {
    var slot availability.Slot
    errs := map[string]string{}

    if v := c.QueryParam("service_id"); v == "" {
        errs["service_id"] = "required"
    } else if n, err := strconv.ParseUint(v, 10, 64); err != nil || n == 0 {
        errs["service_id"] = "must be a positive integer"
    } else {
        slot.ServiceID = n
    }
    if v := c.QueryParam("date"); v == "" {
        errs["date"] = "required"
    } else if d, err := model.ParseDate(v); err != nil {
        errs["date"] = err.Error()
    } else {
        slot.StartDate = d
    }
    if v := c.QueryParam("end_date"); v != "" {
        if d, err := model.ParseDate(v); err != nil {
            errs["end_date"] = err.Error()
        } else {
            slot.EndDate = &d
        }
    }
    if v := c.QueryParam("start"); v == "" {
        errs["start"] = "required"
    } else if t, err := model.ParseClockTime(v); err != nil {
        errs["start"] = err.Error()
    } else {
        slot.StartTime = t
    }
    if v := c.QueryParam("end"); v == "" {
        errs["end"] = "required"
    } else if t, err := model.ParseClockTime(v); err != nil {
        errs["end"] = err.Error()
    } else {
        slot.EndTime = t
    }
    if slot.StartTime != "" && slot.EndTime != "" && !slot.StartTime.Before(slot.EndTime) {
        errs["end"] = "must be after start"
    }
    if slot.StartDate != "" && slot.EndDate != nil && slot.EndDate.Before(slot.StartDate) {
        errs["end_date"] = "must be on or after date"
    }
    if len(errs) > 0 {
        return slot, &booking.ValidationError{Fields: errs}
    }
    return slot, nil
}
