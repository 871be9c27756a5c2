package repository

import (
    "context"
    "database/sql"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// LineRepo provides CRUD access to the reserved_service_lines table plus
// the committed-line queries the availability checker depends on.  A
// "committed" line is one in pending or confirmed status; only those
// occupy a slot.
type LineRepo struct {
    db *sql.DB
}

// NewLineRepo returns a LineRepo bound to the given database.
func NewLineRepo(db *sql.DB) *LineRepo { return &LineRepo{db: db} }

const lineColumns = `id, reservation_id, service_id, provider_id, start_date, end_date,
                     start_time, end_time, duration_min, quantity, unit_price_cents,
                     status, client_notes, provider_notes, created_at, updated_at`

// GetByIDTx returns one line within an existing transaction.
// sql.ErrNoRows is returned when the line does not exist.
func (r *LineRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ReservedServiceLine, error) {
    const q = `SELECT ` + lineColumns + ` FROM reserved_service_lines WHERE id = ?`
    return scanLine(tx.QueryRowContext(ctx, q, id))
}

// ListByReservationTx returns all lines of a reservation ordered by id.
func (r *LineRepo) ListByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) ([]model.ReservedServiceLine, error) {
    const q = `SELECT ` + lineColumns + ` FROM reserved_service_lines WHERE reservation_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, reservationID)
    if err != nil {
        return nil, err
    }
    return collectLines(rows)
}

// InsertTx inserts a new line and populates the generated ID plus DB
// default timestamps on the provided record.
func (r *LineRepo) InsertTx(ctx context.Context, tx *sql.Tx, l *model.ReservedServiceLine) error {
    const q = `INSERT INTO reserved_service_lines
               (reservation_id, service_id, provider_id, start_date, end_date,
                start_time, end_time, duration_min, quantity, unit_price_cents,
                status, client_notes, provider_notes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        l.ReservationID, l.ServiceID, l.ProviderID,
        string(l.StartDate), nullableDate(l.EndDate),
        string(l.StartTime), string(l.EndTime),
        l.DurationMin, l.Quantity, l.UnitPriceCents,
        string(l.Status), l.ClientNotes, l.ProviderNotes,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    // Query back the row so DB-side timestamps are visible to the caller.
    refreshed, err := r.GetByIDTx(ctx, tx, l.ID)
    if err != nil {
        return err
    }
    *l = *refreshed
    return nil
}

// UpdateTx persists every mutable field of an existing line.
func (r *LineRepo) UpdateTx(ctx context.Context, tx *sql.Tx, l *model.ReservedServiceLine) error {
    const q = `UPDATE reserved_service_lines
               SET service_id = ?, provider_id = ?, start_date = ?, end_date = ?,
                   start_time = ?, end_time = ?, duration_min = ?, quantity = ?,
                   unit_price_cents = ?, status = ?, client_notes = ?, provider_notes = ?
               WHERE id = ?`
    result, err := tx.ExecContext(ctx, q,
        l.ServiceID, l.ProviderID,
        string(l.StartDate), nullableDate(l.EndDate),
        string(l.StartTime), string(l.EndTime),
        l.DurationMin, l.Quantity, l.UnitPriceCents,
        string(l.Status), l.ClientNotes, l.ProviderNotes,
        l.ID,
    )
    if err != nil {
        return err
    }
    // MySQL reports zero affected rows for a value-identical update, so
    // RowsAffected cannot distinguish "missing" here; callers read the
    // line inside the same transaction before updating.
    _ = result
    return nil
}

// UpdateStatusByReservationTx sets the status of every line of the
// reservation.  It is the cascade write used by reservation status
// changes and cart confirmation.
func (r *LineRepo) UpdateStatusByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64, status model.LineStatus) error {
    const q = `UPDATE reserved_service_lines SET status = ? WHERE reservation_id = ?`
    _, err := tx.ExecContext(ctx, q, string(status), reservationID)
    return err
}

// DeleteTx removes one line.
func (r *LineRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    result, err := tx.ExecContext(ctx, `DELETE FROM reserved_service_lines WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// DeleteByReservationTx removes all lines of a reservation and returns how
// many rows were deleted.
func (r *LineRepo) DeleteByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (int, error) {
    result, err := tx.ExecContext(ctx, `DELETE FROM reserved_service_lines WHERE reservation_id = ?`, reservationID)
    if err != nil {
        return 0, err
    }
    n, err := result.RowsAffected()
    if err != nil {
        return 0, err
    }
    return int(n), nil
}

// CommittedLinesInRangeTx returns all pending/confirmed lines of the
// service whose date range intersects [from, to].  Lines without an end
// date count their start date as the end.
func (r *LineRepo) CommittedLinesInRangeTx(ctx context.Context, tx *sql.Tx, serviceID uint64, from, to model.Date) ([]model.ReservedServiceLine, error) {
    const q = `SELECT ` + lineColumns + `
               FROM reserved_service_lines
               WHERE service_id = ?
                 AND status IN ('pending', 'confirmed')
                 AND start_date <= ?
                 AND COALESCE(end_date, start_date) >= ?`
    rows, err := tx.QueryContext(ctx, q, serviceID, string(to), string(from))
    if err != nil {
        return nil, err
    }
    return collectLines(rows)
}

// CommittedCountAtTx counts pending/confirmed lines of the service with
// exactly the given start date and start time.  The count feeds the
// capacity bound.
func (r *LineRepo) CommittedCountAtTx(ctx context.Context, tx *sql.Tx, serviceID uint64, date model.Date, start model.ClockTime) (int, error) {
    const q = `SELECT COUNT(*)
               FROM reserved_service_lines
               WHERE service_id = ?
                 AND start_date = ?
                 AND start_time = ?
                 AND status IN ('pending', 'confirmed')`
    var count int
    if err := tx.QueryRowContext(ctx, q, serviceID, string(date), string(start)).Scan(&count); err != nil {
        return 0, err
    }
    return count, nil
}

// nullableDate renders an optional date for a nullable DATE column.
func nullableDate(d *model.Date) interface{} {
    if d == nil {
        return nil
    }
    return string(*d)
}

func scanLine(row *sql.Row) (*model.ReservedServiceLine, error) {
    var (
        l                model.ReservedServiceLine
        startDate        sql.NullTime
        endDate          sql.NullTime
        startTime        string
        endTime          string
        status           string
        created, updated sql.NullTime
    )
    if err := row.Scan(
        &l.ID, &l.ReservationID, &l.ServiceID, &l.ProviderID,
        &startDate, &endDate, &startTime, &endTime,
        &l.DurationMin, &l.Quantity, &l.UnitPriceCents,
        &status, &l.ClientNotes, &l.ProviderNotes,
        &created, &updated,
    ); err != nil {
        return nil, err
    }
    fillLine(&l, startDate, endDate, startTime, endTime, status, created, updated)
    return &l, nil
}

func collectLines(rows *sql.Rows) ([]model.ReservedServiceLine, error) {
    defer rows.Close()
    lines := make([]model.ReservedServiceLine, 0)
    for rows.Next() {
        var (
            l                model.ReservedServiceLine
            startDate        sql.NullTime
            endDate          sql.NullTime
            startTime        string
            endTime          string
            status           string
            created, updated sql.NullTime
        )
        if err := rows.Scan(
            &l.ID, &l.ReservationID, &l.ServiceID, &l.ProviderID,
            &startDate, &endDate, &startTime, &endTime,
            &l.DurationMin, &l.Quantity, &l.UnitPriceCents,
            &status, &l.ClientNotes, &l.ProviderNotes,
            &created, &updated,
        ); err != nil {
            return nil, err
        }
        fillLine(&l, startDate, endDate, startTime, endTime, status, created, updated)
        lines = append(lines, l)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return lines, nil
}

func fillLine(l *model.ReservedServiceLine, startDate, endDate sql.NullTime, startTime, endTime, status string, created, updated sql.NullTime) {
    if startDate.Valid {
        l.StartDate = dateOf(startDate.Time)
    }
    l.EndDate = nullableDateOf(endDate)
    l.StartTime = clockOf(startTime)
    l.EndTime = clockOf(endTime)
    l.Status = model.LineStatus(status)
    if created.Valid {
        l.CreatedAt = created.Time
    }
    if updated.Valid {
        l.UpdatedAt = updated.Time
    }
}
