package handler

import (
    "context"
    "database/sql" // for sentinel errors returned from repository
    "errors"       // for errors.Is comparisons
    "net/http"     // HTTP status codes
    "strconv"      // parsing query parameters

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/middleware"
    "github.com/valleturismo/reservation-engine/internal/model"
    "github.com/valleturismo/reservation-engine/internal/queue"
    "github.com/valleturismo/reservation-engine/internal/repository"
    queuepub "github.com/valleturismo/reservation-engine/internal/service"
)

// ReservationHandler serves the reservation aggregate: direct creation,
// full update, deletion, the status machine, and the read-side listing
// projections.  Mutations go through the booking service; listings read
// the repository projections directly because they bypass aggregate
// rules.
type ReservationHandler struct {
    Bookings *booking.Service
    Reads    *repository.ReservationRepo
    // Publish sends the confirmation event after a transition to
    // confirmed commits.
    Publish func(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// NewReservationHandler constructs a ReservationHandler publishing
// events to the message broker.  Both dependencies must be non-nil.
func NewReservationHandler(bookings *booking.Service, reads *repository.ReservationRepo) *ReservationHandler {
    if bookings == nil || reads == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Bookings: bookings, Reads: reads, Publish: queuepub.PublishReservationConfirmed}
}

// reservationForm is the JSON body of a create request.
type reservationForm struct {
    Code  string             `json:"code,omitempty"`
    Notes string             `json:"notes,omitempty"`
    Lines []booking.LineForm `json:"lines"`
}

// Create handles POST /v1/reservations.  It creates a committed
// reservation directly, without going through a cart; every line is
// availability-checked under the slot locks.
func (h *ReservationHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var form reservationForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    lines, err := booking.ParseLineInputs(form.Lines)
    if err != nil {
        return respondError(c, err)
    }
    in := booking.ReservationInput{OwnerID: userID, Code: form.Code, Notes: form.Notes}
    res, err := h.Bookings.Create(c.Request().Context(), in, lines)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, reservationView(res))
}

// updateForm is the JSON body of an update request.  Absent lines are
// deleted, lines with an id are updated, lines without one are added.
type updateForm struct {
    Notes *string            `json:"notes,omitempty"`
    Lines []booking.LineForm `json:"lines"`
}

// Update handles PUT /v1/reservations/:id.  The submitted line set
// replaces the stored one; new and changed slots are re-validated under
// the slot locks.
func (h *ReservationHandler) Update(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var form updateForm
    if err := c.Bind(&form); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    lines, err := booking.ParseLineInputs(form.Lines)
    if err != nil {
        return respondError(c, err)
    }
    res, err := h.Bookings.Update(c.Request().Context(), id, booking.ReservationPatch{Notes: form.Notes}, lines)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, reservationView(res))
}

// Delete handles DELETE /v1/reservations/:id.  The reservation and all
// of its lines disappear in one transaction.
func (h *ReservationHandler) Delete(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    if err := h.Bookings.Delete(c.Request().Context(), id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// SetStatus handles PUT /v1/reservations/:id/status.  Legal transitions
// only; moving the aggregate cascades onto every line.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    res, err := h.Bookings.SetStatus(c.Request().Context(), id, model.ReservationStatus(body.Status))
    if err != nil {
        return respondError(c, err)
    }
    if res.Status == model.ReservationConfirmed {
        // Same post-commit, best-effort publish as the cart confirm path.
        _ = h.Publish(c.Request().Context(), queue.NewReservationConfirmedEvent(res))
    }
    return c.JSON(http.StatusOK, reservationView(res))
}

// Get handles GET /v1/reservations/:id using the read projection, which
// joins service names onto the lines.
func (h *ReservationHandler) Get(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    detail, err := h.Reads.GetDetail(c.Request().Context(), id)
    if errors.Is(err, sql.ErrNoRows) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, detail)
}

// List handles GET /v1/reservations.  Tourists always see their own
// reservations; providers default to reservations carrying their lines;
// admins see everything.  Supported query parameters: owner_id,
// provider_id, service_id, from, to.
func (h *ReservationHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    filter, err := listFilterFrom(c)
    if err != nil {
        return respondError(c, err)
    }
    role, _ := c.Get(middleware.ContextRole).(string)
    switch role {
    case middleware.RoleAdmin:
        // admins may query freely
    case middleware.RoleProvider:
        filter.ProviderID = userID
    default:
        filter.OwnerID = userID
    }
    details, err := h.Reads.List(c.Request().Context(), filter)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": details, "count": len(details)})
}

// listFilterFrom parses the listing query parameters.
func listFilterFrom(c echo.Context) (repository.ListFilter, error) {
    var f repository.ListFilter
    errs := map[string]string{}
    if v := c.QueryParam("owner_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            errs["owner_id"] = "must be a positive integer"
        } else {
            f.OwnerID = n
        }
    }
    if v := c.QueryParam("provider_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            errs["provider_id"] = "must be a positive integer"
        } else {
            f.ProviderID = n
        }
    }
    if v := c.QueryParam("service_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            errs["service_id"] = "must be a positive integer"
        } else {
            f.ServiceID = n
        }
    }
    if v := c.QueryParam("from"); v != "" {
        d, err := model.ParseDate(v)
        if err != nil {
            errs["from"] = err.Error()
        } else {
            f.From = &d
        }
    }
    if v := c.QueryParam("to"); v != "" {
        d, err := model.ParseDate(v)
        if err != nil {
            errs["to"] = err.Error()
        } else {
            f.To = &d
        }
    }
    if len(errs) > 0 {
        return f, &booking.ValidationError{Fields: errs}
    }
    return f, nil
}
