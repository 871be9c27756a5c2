package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/plan"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestRespondError(t *testing.T) {
    cases := []struct {
        name       string
        err        error
        wantStatus int
    }{
        {"validation", &booking.ValidationError{Fields: map[string]string{"quantity": "must be at least 1"}}, http.StatusBadRequest},
        {"not found", fmt.Errorf("reservation 9: %w", booking.ErrNotFound), http.StatusNotFound},
        {"forbidden", booking.ErrForbidden, http.StatusForbidden},
        {"availability conflict", fmt.Errorf("slot busy: %w", booking.ErrAvailabilityConflict), http.StatusConflict},
        {"capacity exceeded", fmt.Errorf("full: %w", booking.ErrCapacityExceeded), http.StatusConflict},
        {"plan full", fmt.Errorf("plan 1: %w", plan.ErrPlanFull), http.StatusConflict},
        {"already enrolled", plan.ErrAlreadyEnrolled, http.StatusConflict},
        {"invalid state", fmt.Errorf("cart empty: %w", booking.ErrInvalidState), http.StatusConflict},
        {"unique violation", booking.ErrUniqueViolation, http.StatusConflict},
        {"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            c, rec := newTestContext(t)
            if err := respondError(c, tc.err); err != nil {
                t.Fatalf("respondError returned error: %v", err)
            }
            if rec.Code != tc.wantStatus {
                t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
            }
            var body map[string]any
            if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
                t.Fatalf("body is not JSON: %v", err)
            }
            if _, ok := body["error"]; !ok {
                t.Fatalf("body has no error field: %v", body)
            }
        })
    }

    t.Run("internal errors are not leaked", func(t *testing.T) {
        c, rec := newTestContext(t)
        if err := respondError(c, errors.New("dsn=user:secret@tcp")); err != nil {
            t.Fatalf("respondError returned error: %v", err)
        }
        var body map[string]any
        if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
            t.Fatalf("body is not JSON: %v", err)
        }
        if body["error"] != "internal error" {
            t.Fatalf("internal detail leaked: %v", body["error"])
        }
    })

    t.Run("validation carries field messages", func(t *testing.T) {
        c, rec := newTestContext(t)
        verr := &booking.ValidationError{Fields: map[string]string{"start_date": "required"}}
        if err := respondError(c, verr); err != nil {
            t.Fatalf("respondError returned error: %v", err)
        }
        var body struct {
            Fields map[string]string `json:"fields"`
        }
        if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
            t.Fatalf("body is not JSON: %v", err)
        }
        if body.Fields["start_date"] != "required" {
            t.Fatalf("fields = %v", body.Fields)
        }
    })
}

func TestGetUserID(t *testing.T) {
    c, _ := newTestContext(t)
    c.Set("user_id", uint64(42))
    id, err := getUserID(c)
    if err != nil || id != 42 {
        t.Fatalf("getUserID = %d, %v", id, err)
    }

    c, _ = newTestContext(t)
    c.Set("user_id", "17")
    id, err = getUserID(c)
    if err != nil || id != 17 {
        t.Fatalf("string claim: getUserID = %d, %v", id, err)
    }

    c, _ = newTestContext(t)
    if _, err := getUserID(c); err == nil {
        t.Fatalf("missing user_id accepted")
    }
}

func TestParamID(t *testing.T) {
    c, _ := newTestContext(t)
    c.SetParamNames("id")
    c.SetParamValues("12")
    id, ok := paramID(c, "id")
    if !ok || id != 12 {
        t.Fatalf("paramID = %d, %v", id, ok)
    }

    for _, bad := range []string{"", "0", "-3", "abc"} {
        c, _ := newTestContext(t)
        c.SetParamNames("id")
        c.SetParamValues(bad)
        if _, ok := paramID(c, "id"); ok {
            t.Fatalf("paramID accepted %q", bad)
        }
    }
}
