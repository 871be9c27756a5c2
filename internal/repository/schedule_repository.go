package repository

import (
    "context"
    "database/sql"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// ScheduleRepo reads the schedule_windows table: the per-service weekly
// availability windows consulted by the availability checker.  Editing
// windows belongs to the catalog subsystem; the engine never writes them.
type ScheduleRepo struct {
    db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const windowQuery = `SELECT id, service_id, day_of_week, start_time, end_time, active
                     FROM schedule_windows
                     WHERE service_id = ? AND day_of_week = ? AND active = 1
                     ORDER BY start_time, end_time`

// WindowsForTx returns the active windows of a service on one day of
// week, ordered by start time, within an existing transaction.
func (r *ScheduleRepo) WindowsForTx(ctx context.Context, tx *sql.Tx, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    rows, err := tx.QueryContext(ctx, windowQuery, serviceID, int(day))
    if err != nil {
        return nil, err
    }
    return collectWindows(rows)
}

// WindowsFor is the non-transactional variant used by the read-only
// schedule endpoint.
func (r *ScheduleRepo) WindowsFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    rows, err := r.db.QueryContext(ctx, windowQuery, serviceID, int(day))
    if err != nil {
        return nil, err
    }
    return collectWindows(rows)
}

func collectWindows(rows *sql.Rows) ([]model.ScheduleWindow, error) {
    defer rows.Close()
    windows := make([]model.ScheduleWindow, 0)
    for rows.Next() {
        var (
            w          model.ScheduleWindow
            day        int
            start, end string
        )
        if err := rows.Scan(&w.ID, &w.ServiceID, &day, &start, &end, &w.Active); err != nil {
            return nil, err
        }
        w.Day = model.DayOfWeek(day)
        w.StartTime = clockOf(start)
        w.EndTime = clockOf(end)
        windows = append(windows, w)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return windows, nil
}
