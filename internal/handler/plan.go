package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/valleturismo/reservation-engine/internal/model"
    "github.com/valleturismo/reservation-engine/internal/plan"
)

// PlanHandler serves plan enrollments and materialization.
type PlanHandler struct {
    Plans *plan.Service
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(plans *plan.Service) *PlanHandler {
    if plans == nil {
        panic("nil plan service passed to NewPlanHandler")
    }
    return &PlanHandler{Plans: plans}
}

// enrollmentView renders an enrollment for API responses.
func enrollmentView(e *model.PlanEnrollment) echo.Map {
    return echo.Map{
        "id":         e.ID,
        "plan_id":    e.PlanID,
        "user_id":    e.UserID,
        "status":     e.Status,
        "created_at": e.CreatedAt,
        "updated_at": e.UpdatedAt,
    }
}

// Enroll handles POST /v1/plans/:id/enroll.  The caller becomes a
// pending enrollee; capacity counts only confirmed enrollments but is
// still checked here so a full plan rejects immediately.
func (h *PlanHandler) Enroll(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    planID, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
    }
    enrollment, err := h.Plans.Enroll(c.Request().Context(), planID, userID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, enrollmentView(enrollment))
}

// SetStatus handles PUT /v1/enrollments/:id/status.  Confirming
// re-checks plan capacity; cancelled is terminal.
func (h *PlanHandler) SetStatus(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    enrollment, err := h.Plans.SetEnrollmentStatus(c.Request().Context(), id, model.EnrollmentStatus(body.Status))
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, enrollmentView(enrollment))
}

// Materialize handles POST /v1/enrollments/:id/materialize.  A confirmed
// enrollment expands into a real pending reservation with one line per
// plan entry.  The endpoint is not idempotent; calling it twice books
// twice.
func (h *PlanHandler) Materialize(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid enrollment id"})
    }
    res, err := h.Plans.Materialize(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, reservationView(res))
}
