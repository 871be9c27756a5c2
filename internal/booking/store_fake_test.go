package booking

import (
    "context"
    "fmt"
    "sort"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// memStore is an in-memory Store for exercising the aggregate without a
// database.  InTx snapshots the state and restores it when the callback
// fails, mirroring a rollback; WithSlotLocks records the requested keys
// so tests can assert on lock usage.
type memStore struct {
    services     map[uint64]model.Service
    windows      []model.ScheduleWindow
    reservations map[uint64]model.Reservation
    lines        map[uint64]model.ReservedServiceLine
    nextRes      uint64
    nextLine     uint64
    lockedKeys   [][]SlotKey

    // failInsertLine, when set, makes the next InsertLine return it.
    failInsertLine error
    // beforeLock, when set, runs once at the next WithSlotLocks call,
    // after the keys were chosen but before the callback; it simulates a
    // concurrent writer slipping in between key selection and locking.
    beforeLock func()
}

func newMemStore() *memStore {
    return &memStore{
        services:     map[uint64]model.Service{},
        reservations: map[uint64]model.Reservation{},
        lines:        map[uint64]model.ReservedServiceLine{},
    }
}

func (m *memStore) addService(svc model.Service) { m.services[svc.ID] = svc }

func (m *memStore) addWindow(w model.ScheduleWindow) { m.windows = append(m.windows, w) }

func (m *memStore) snapshot() (map[uint64]model.Reservation, map[uint64]model.ReservedServiceLine, uint64, uint64) {
    res := make(map[uint64]model.Reservation, len(m.reservations))
    for k, v := range m.reservations {
        res[k] = v
    }
    lines := make(map[uint64]model.ReservedServiceLine, len(m.lines))
    for k, v := range m.lines {
        lines[k] = v
    }
    return res, lines, m.nextRes, m.nextLine
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
    res, lines, nr, nl := m.snapshot()
    if err := fn(&memTx{s: m}); err != nil {
        m.reservations, m.lines, m.nextRes, m.nextLine = res, lines, nr, nl
        return err
    }
    return nil
}

func (m *memStore) WithSlotLocks(ctx context.Context, keys []SlotKey, fn func() error) error {
    m.lockedKeys = append(m.lockedKeys, keys)
    if hook := m.beforeLock; hook != nil {
        m.beforeLock = nil
        hook()
    }
    return fn()
}

type memTx struct {
    s *memStore
}

func (t *memTx) ServiceByID(ctx context.Context, id uint64) (*model.Service, error) {
    svc, ok := t.s.services[id]
    if !ok {
        return nil, fmt.Errorf("service %d: %w", id, ErrNotFound)
    }
    out := svc
    return &out, nil
}

func (t *memTx) WindowsFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    var out []model.ScheduleWindow
    for _, w := range t.s.windows {
        if w.ServiceID == serviceID && w.Day == day && w.Active {
            out = append(out, w)
        }
    }
    return out, nil
}

func (t *memTx) CommittedLinesInRange(ctx context.Context, serviceID uint64, from, to model.Date) ([]model.ReservedServiceLine, error) {
    var out []model.ReservedServiceLine
    for _, l := range t.s.lines {
        if l.ServiceID != serviceID || !l.Status.Committed() {
            continue
        }
        if l.LastDate().Before(from) || to.Before(l.StartDate) {
            continue
        }
        out = append(out, l)
    }
    return out, nil
}

func (t *memTx) CommittedCountAt(ctx context.Context, serviceID uint64, date model.Date, start model.ClockTime) (int, error) {
    n := 0
    for _, l := range t.s.lines {
        if l.ServiceID == serviceID && l.Status.Committed() && l.StartDate == date && l.StartTime == start {
            n++
        }
    }
    return n, nil
}

func (t *memTx) CartByOwner(ctx context.Context, ownerID uint64) (*model.Reservation, error) {
    for _, r := range t.s.reservations {
        if r.OwnerID == ownerID && r.Status == model.ReservationInCart {
            out := r
            out.Lines = nil
            return &out, nil
        }
    }
    return nil, fmt.Errorf("cart for owner %d: %w", ownerID, ErrNotFound)
}

func (t *memTx) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    r, ok := t.s.reservations[id]
    if !ok {
        return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
    }
    out := r
    out.Lines = nil
    return &out, nil
}

func (t *memTx) LinesByReservation(ctx context.Context, reservationID uint64) ([]model.ReservedServiceLine, error) {
    var out []model.ReservedServiceLine
    for _, l := range t.s.lines {
        if l.ReservationID == reservationID {
            out = append(out, l)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (t *memTx) LineByID(ctx context.Context, id uint64) (*model.ReservedServiceLine, error) {
    l, ok := t.s.lines[id]
    if !ok {
        return nil, fmt.Errorf("line %d: %w", id, ErrNotFound)
    }
    out := l
    return &out, nil
}

func (t *memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    for _, existing := range t.s.reservations {
        if existing.Code == r.Code {
            return fmt.Errorf("insert reservation: %w", ErrUniqueViolation)
        }
        if r.Status == model.ReservationInCart && existing.Status == model.ReservationInCart && existing.OwnerID == r.OwnerID {
            return fmt.Errorf("insert reservation: %w", ErrUniqueViolation)
        }
    }
    t.s.nextRes++
    r.ID = t.s.nextRes
    t.s.reservations[r.ID] = *r
    return nil
}

func (t *memTx) InsertLine(ctx context.Context, l *model.ReservedServiceLine) error {
    if err := t.s.failInsertLine; err != nil {
        t.s.failInsertLine = nil
        return err
    }
    t.s.nextLine++
    l.ID = t.s.nextLine
    t.s.lines[l.ID] = *l
    return nil
}

func (t *memTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    if _, ok := t.s.reservations[r.ID]; !ok {
        return fmt.Errorf("reservation %d: %w", r.ID, ErrNotFound)
    }
    stored := *r
    stored.Lines = nil
    t.s.reservations[r.ID] = stored
    return nil
}

func (t *memTx) UpdateLine(ctx context.Context, l *model.ReservedServiceLine) error {
    if _, ok := t.s.lines[l.ID]; !ok {
        return fmt.Errorf("line %d: %w", l.ID, ErrNotFound)
    }
    t.s.lines[l.ID] = *l
    return nil
}

func (t *memTx) UpdateLineStatusesByReservation(ctx context.Context, reservationID uint64, status model.LineStatus) error {
    for id, l := range t.s.lines {
        if l.ReservationID == reservationID {
            l.Status = status
            t.s.lines[id] = l
        }
    }
    return nil
}

func (t *memTx) DeleteLine(ctx context.Context, id uint64) error {
    if _, ok := t.s.lines[id]; !ok {
        return fmt.Errorf("line %d: %w", id, ErrNotFound)
    }
    delete(t.s.lines, id)
    return nil
}

func (t *memTx) DeleteLinesByReservation(ctx context.Context, reservationID uint64) (int, error) {
    n := 0
    for id, l := range t.s.lines {
        if l.ReservationID == reservationID {
            delete(t.s.lines, id)
            n++
        }
    }
    return n, nil
}

func (t *memTx) DeleteReservation(ctx context.Context, id uint64) error {
    if _, ok := t.s.reservations[id]; !ok {
        return fmt.Errorf("reservation %d: %w", id, ErrNotFound)
    }
    delete(t.s.reservations, id)
    return nil
}
