package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
    "github.com/valleturismo/reservation-engine/internal/queue"
)

// statusStore is the minimal booking.Store for driving status changes
// through the handler: one reservation, its lines, no real locking.
type statusStore struct {
    res   *model.Reservation
    lines []model.ReservedServiceLine
}

func (s *statusStore) InTx(ctx context.Context, fn func(booking.Tx) error) error {
    return fn(s)
}

func (s *statusStore) WithSlotLocks(ctx context.Context, keys []booking.SlotKey, fn func() error) error {
    return fn()
}

func (s *statusStore) ServiceByID(ctx context.Context, id uint64) (*model.Service, error) {
    return nil, booking.ErrNotFound
}

func (s *statusStore) WindowsFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    return nil, nil
}

func (s *statusStore) CommittedLinesInRange(ctx context.Context, serviceID uint64, from, to model.Date) ([]model.ReservedServiceLine, error) {
    return nil, nil
}

func (s *statusStore) CommittedCountAt(ctx context.Context, serviceID uint64, date model.Date, start model.ClockTime) (int, error) {
    return 0, nil
}

func (s *statusStore) CartByOwner(ctx context.Context, ownerID uint64) (*model.Reservation, error) {
    return nil, booking.ErrNotFound
}

func (s *statusStore) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    if s.res == nil || s.res.ID != id {
        return nil, booking.ErrNotFound
    }
    cp := *s.res
    return &cp, nil
}

func (s *statusStore) LinesByReservation(ctx context.Context, reservationID uint64) ([]model.ReservedServiceLine, error) {
    return append([]model.ReservedServiceLine(nil), s.lines...), nil
}

func (s *statusStore) LineByID(ctx context.Context, id uint64) (*model.ReservedServiceLine, error) {
    return nil, booking.ErrNotFound
}

func (s *statusStore) InsertReservation(ctx context.Context, r *model.Reservation) error { return nil }

func (s *statusStore) InsertLine(ctx context.Context, l *model.ReservedServiceLine) error {
    return nil
}

func (s *statusStore) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    s.res.Status = r.Status
    s.res.Notes = r.Notes
    return nil
}

func (s *statusStore) UpdateLine(ctx context.Context, l *model.ReservedServiceLine) error {
    return nil
}

func (s *statusStore) UpdateLineStatusesByReservation(ctx context.Context, reservationID uint64, status model.LineStatus) error {
    for i := range s.lines {
        s.lines[i].Status = status
    }
    return nil
}

func (s *statusStore) DeleteLine(ctx context.Context, id uint64) error { return nil }

func (s *statusStore) DeleteLinesByReservation(ctx context.Context, reservationID uint64) (int, error) {
    return 0, nil
}

func (s *statusStore) DeleteReservation(ctx context.Context, id uint64) error { return nil }

func newStatusContext(t *testing.T, id, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/reservations/"+id+"/status", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues(id)
    return c, rec
}

func statusFixture() *statusStore {
    return &statusStore{
        res: &model.Reservation{ID: 12, OwnerID: 3, Code: "R-00AB12CD34", Status: model.ReservationPending},
        lines: []model.ReservedServiceLine{
            {ID: 1, ReservationID: 12, ServiceID: 7, StartDate: "2026-09-05", StartTime: "10:00", EndTime: "11:00", Quantity: 2, UnitPriceCents: 4500, Status: model.LinePending},
        },
    }
}

// A direct status change to confirmed must publish the same confirmation
// event as confirming a cart; every other transition stays silent.
func TestSetStatusPublishesConfirmation(t *testing.T) {
    t.Run("transition to confirmed publishes", func(t *testing.T) {
        st := statusFixture()
        var published []queue.ReservationConfirmedEvent
        h := &ReservationHandler{
            Bookings: booking.NewService(st),
            Publish: func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
                published = append(published, ev)
                return nil
            },
        }
        c, rec := newStatusContext(t, "12", `{"status":"confirmed"}`)
        if err := h.SetStatus(c); err != nil {
            t.Fatalf("SetStatus returned error: %v", err)
        }
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
        }
        if len(published) != 1 {
            t.Fatalf("published %d events, want 1", len(published))
        }
        ev := published[0]
        if ev.ReservationID != 12 || ev.OwnerID != 3 || ev.Code != "R-00AB12CD34" {
            t.Fatalf("event header = %+v", ev)
        }
        if len(ev.Lines) != 1 || ev.Lines[0].ServiceID != 7 {
            t.Fatalf("event lines = %+v", ev.Lines)
        }
        if ev.TotalPriceCents != 9000 {
            t.Fatalf("event total = %d, want 9000", ev.TotalPriceCents)
        }
    })

    t.Run("transition to cancelled stays silent", func(t *testing.T) {
        st := statusFixture()
        var published []queue.ReservationConfirmedEvent
        h := &ReservationHandler{
            Bookings: booking.NewService(st),
            Publish: func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
                published = append(published, ev)
                return nil
            },
        }
        c, rec := newStatusContext(t, "12", `{"status":"cancelled"}`)
        if err := h.SetStatus(c); err != nil {
            t.Fatalf("SetStatus returned error: %v", err)
        }
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
        }
        if len(published) != 0 {
            t.Fatalf("published %d events, want none", len(published))
        }
    })

    t.Run("broker failure does not undo the transition", func(t *testing.T) {
        st := statusFixture()
        h := &ReservationHandler{
            Bookings: booking.NewService(st),
            Publish: func(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
                return context.DeadlineExceeded
            },
        }
        c, rec := newStatusContext(t, "12", `{"status":"confirmed"}`)
        if err := h.SetStatus(c); err != nil {
            t.Fatalf("SetStatus returned error: %v", err)
        }
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
        }
        if st.res.Status != model.ReservationConfirmed {
            t.Fatalf("reservation status = %s, want confirmed", st.res.Status)
        }
    })
}
