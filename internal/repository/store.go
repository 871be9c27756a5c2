package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "sort"

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
    "github.com/valleturismo/reservation-engine/internal/plan"
)

// lockWaitSeconds bounds how long a writer waits for an advisory lock
// before failing with a storage error.
const lockWaitSeconds = 5

// Store bundles the per-entity repositories behind the booking
// aggregate's transactional contract.  InTx wraps the callback in one
// BeginTx/Commit scope with rollback on any error; WithSlotLocks holds
// MySQL advisory locks on a dedicated connection around the callback, so
// that the locks outlive the transaction's commit and two committing
// writers for the same slot serialize.
type Store struct {
    db           *sql.DB
    services     *ServiceRepo
    schedules    *ScheduleRepo
    reservations *ReservationRepo
    lines        *LineRepo
}

// NewStore returns a Store over db.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:           db,
        services:     NewServiceRepo(db),
        schedules:    NewScheduleRepo(db),
        reservations: NewReservationRepo(db),
        lines:        NewLineRepo(db),
    }
}

// InTx implements booking.Store.
func (s *Store) InTx(ctx context.Context, fn func(booking.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin transaction: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&storeTx{s: s, tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit transaction: %w", err)
    }
    committed = true
    return nil
}

// WithSlotLocks implements booking.Store.  Keys are deduplicated and
// acquired in sorted order so concurrent multi-slot writers cannot
// deadlock.  The locks are released only after fn (and therefore the
// transaction it runs) has finished, which is what closes the
// check-then-insert race window.
func (s *Store) WithSlotLocks(ctx context.Context, keys []booking.SlotKey, fn func() error) error {
    names := make([]string, 0, len(keys))
    seen := make(map[string]struct{}, len(keys))
    for _, k := range keys {
        n := k.String()
        if _, ok := seen[n]; !ok {
            seen[n] = struct{}{}
            names = append(names, n)
        }
    }
    sort.Strings(names)
    return withAdvisoryLocks(ctx, s.db, names, fn)
}

// withAdvisoryLocks acquires the named MySQL locks on one dedicated
// connection, runs fn, and releases the locks in reverse order.  The
// connection is pinned for the whole span because GET_LOCK is
// connection-scoped.
func withAdvisoryLocks(ctx context.Context, db *sql.DB, names []string, fn func() error) error {
    if len(names) == 0 {
        return fn()
    }
    conn, err := db.Conn(ctx)
    if err != nil {
        return fmt.Errorf("acquire lock connection: %w", err)
    }
    defer conn.Close()
    held := make([]string, 0, len(names))
    defer func() {
        for i := len(held) - 1; i >= 0; i-- {
            _, _ = conn.ExecContext(ctx, `DO RELEASE_LOCK(?)`, held[i])
        }
    }()
    for _, n := range names {
        var got sql.NullInt64
        if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, n, lockWaitSeconds).Scan(&got); err != nil {
            return fmt.Errorf("acquire lock %s: %w", n, err)
        }
        if !got.Valid || got.Int64 != 1 {
            return fmt.Errorf("acquire lock %s: timed out after %ds", n, lockWaitSeconds)
        }
        held = append(held, n)
    }
    return fn()
}

// storeTx adapts one *sql.Tx to the booking.Tx contract, delegating to
// the per-entity repositories and translating driver errors into the
// aggregate's sentinels.
type storeTx struct {
    s  *Store
    tx *sql.Tx
}

// notFound wraps booking.ErrNotFound with the entity that was missed.
func notFound(entity string, id uint64) error {
    return fmt.Errorf("%s %d: %w", entity, id, booking.ErrNotFound)
}

func (t *storeTx) ServiceByID(ctx context.Context, id uint64) (*model.Service, error) {
    row, err := t.s.services.GetByIDTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, notFound("service", id)
    }
    if err != nil {
        return nil, err
    }
    svc := &model.Service{
        ID:                  row.ID,
        ProviderID:          row.ProviderID,
        Name:                row.Name,
        Capacity:            row.Capacity,
        ReferencePriceCents: row.ReferencePriceCents,
        Active:              row.Active,
    }
    if row.CreatedAt.Valid {
        svc.CreatedAt = row.CreatedAt.Time
    }
    if row.UpdatedAt.Valid {
        svc.UpdatedAt = row.UpdatedAt.Time
    }
    return svc, nil
}

func (t *storeTx) WindowsFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    return t.s.schedules.WindowsForTx(ctx, t.tx, serviceID, day)
}

func (t *storeTx) CommittedLinesInRange(ctx context.Context, serviceID uint64, from, to model.Date) ([]model.ReservedServiceLine, error) {
    return t.s.lines.CommittedLinesInRangeTx(ctx, t.tx, serviceID, from, to)
}

func (t *storeTx) CommittedCountAt(ctx context.Context, serviceID uint64, date model.Date, start model.ClockTime) (int, error) {
    return t.s.lines.CommittedCountAtTx(ctx, t.tx, serviceID, date, start)
}

func (t *storeTx) CartByOwner(ctx context.Context, ownerID uint64) (*model.Reservation, error) {
    res, err := t.s.reservations.CartByOwnerTx(ctx, t.tx, ownerID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, fmt.Errorf("cart for owner %d: %w", ownerID, booking.ErrNotFound)
    }
    return res, err
}

func (t *storeTx) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    res, err := t.s.reservations.GetByIDTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, notFound("reservation", id)
    }
    return res, err
}

func (t *storeTx) LinesByReservation(ctx context.Context, reservationID uint64) ([]model.ReservedServiceLine, error) {
    return t.s.lines.ListByReservationTx(ctx, t.tx, reservationID)
}

func (t *storeTx) LineByID(ctx context.Context, id uint64) (*model.ReservedServiceLine, error) {
    line, err := t.s.lines.GetByIDTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, notFound("line", id)
    }
    return line, err
}

func (t *storeTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    err := t.s.reservations.InsertTx(ctx, t.tx, r)
    if isDuplicateEntry(err) {
        return fmt.Errorf("insert reservation: %w", booking.ErrUniqueViolation)
    }
    return err
}

func (t *storeTx) InsertLine(ctx context.Context, l *model.ReservedServiceLine) error {
    return t.s.lines.InsertTx(ctx, t.tx, l)
}

func (t *storeTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    return t.s.reservations.UpdateTx(ctx, t.tx, r)
}

func (t *storeTx) UpdateLine(ctx context.Context, l *model.ReservedServiceLine) error {
    return t.s.lines.UpdateTx(ctx, t.tx, l)
}

func (t *storeTx) UpdateLineStatusesByReservation(ctx context.Context, reservationID uint64, status model.LineStatus) error {
    return t.s.lines.UpdateStatusByReservationTx(ctx, t.tx, reservationID, status)
}

func (t *storeTx) DeleteLine(ctx context.Context, id uint64) error {
    err := t.s.lines.DeleteTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return notFound("line", id)
    }
    return err
}

func (t *storeTx) DeleteLinesByReservation(ctx context.Context, reservationID uint64) (int, error) {
    return t.s.lines.DeleteByReservationTx(ctx, t.tx, reservationID)
}

func (t *storeTx) DeleteReservation(ctx context.Context, id uint64) error {
    err := t.s.reservations.DeleteTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return notFound("reservation", id)
    }
    return err
}

// PlanStore adapts the plan repository to the plan subsystem's
// transactional contract.
type PlanStore struct {
    db    *sql.DB
    plans *PlanRepo
}

// NewPlanStore returns a PlanStore over db.
func NewPlanStore(db *sql.DB) *PlanStore {
    return &PlanStore{db: db, plans: NewPlanRepo(db)}
}

// InTx implements plan.Store.
func (s *PlanStore) InTx(ctx context.Context, fn func(plan.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin transaction: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&planTx{s: s, tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit transaction: %w", err)
    }
    committed = true
    return nil
}

// WithPlanLock implements plan.Store with one advisory lock per plan.
func (s *PlanStore) WithPlanLock(ctx context.Context, planID uint64, fn func() error) error {
    return withAdvisoryLocks(ctx, s.db, []string{fmt.Sprintf("plan:%d", planID)}, fn)
}

type planTx struct {
    s  *PlanStore
    tx *sql.Tx
}

func (t *planTx) PlanByID(ctx context.Context, id uint64) (*model.Plan, error) {
    p, err := t.s.plans.GetByIDTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, notFound("plan", id)
    }
    return p, err
}

func (t *planTx) EntriesByPlan(ctx context.Context, planID uint64) ([]model.PlanEntry, error) {
    return t.s.plans.EntriesByPlanTx(ctx, t.tx, planID)
}

func (t *planTx) EnrollmentByID(ctx context.Context, id uint64) (*model.PlanEnrollment, error) {
    e, err := t.s.plans.EnrollmentByIDTx(ctx, t.tx, id)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, notFound("enrollment", id)
    }
    return e, err
}

func (t *planTx) ConfirmedEnrollmentCount(ctx context.Context, planID uint64) (int, error) {
    return t.s.plans.ConfirmedCountTx(ctx, t.tx, planID)
}

func (t *planTx) InsertEnrollment(ctx context.Context, e *model.PlanEnrollment) error {
    err := t.s.plans.InsertEnrollmentTx(ctx, t.tx, e)
    if isDuplicateEntry(err) {
        return fmt.Errorf("insert enrollment: %w", booking.ErrUniqueViolation)
    }
    return err
}

func (t *planTx) UpdateEnrollmentStatus(ctx context.Context, id uint64, status model.EnrollmentStatus) error {
    err := t.s.plans.UpdateEnrollmentStatusTx(ctx, t.tx, id, status)
    if errors.Is(err, sql.ErrNoRows) {
        return notFound("enrollment", id)
    }
    return err
}
