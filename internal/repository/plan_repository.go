package repository

import (
    "context"
    "database/sql"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// PlanRepo provides access to plans, their template entries and
// enrollments.  Plan and entry rows are maintained by the catalog
// subsystem; the engine writes only enrollments.
type PlanRepo struct {
    db *sql.DB
}

// NewPlanRepo returns a PlanRepo bound to the given database.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// GetByIDTx returns one plan within an existing transaction.
func (r *PlanRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Plan, error) {
    const q = `SELECT id, name, capacity, active FROM plans WHERE id = ?`
    var p model.Plan
    if err := tx.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Capacity, &p.Active); err != nil {
        return nil, err
    }
    return &p, nil
}

// EntriesByPlanTx returns the plan's template entries ordered by id.
func (r *PlanRepo) EntriesByPlanTx(ctx context.Context, tx *sql.Tx, planID uint64) ([]model.PlanEntry, error) {
    const q = `SELECT id, plan_id, service_id, start_date, end_date, start_time, end_time, duration_min
               FROM plan_entries WHERE plan_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, planID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.PlanEntry, 0)
    for rows.Next() {
        var (
            e                  model.PlanEntry
            startDate, endDate sql.NullTime
            startTime, endTime string
        )
        if err := rows.Scan(&e.ID, &e.PlanID, &e.ServiceID, &startDate, &endDate, &startTime, &endTime, &e.DurationMin); err != nil {
            return nil, err
        }
        if startDate.Valid {
            e.StartDate = dateOf(startDate.Time)
        }
        e.EndDate = nullableDateOf(endDate)
        e.StartTime = clockOf(startTime)
        e.EndTime = clockOf(endTime)
        entries = append(entries, e)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

// EnrollmentByIDTx returns one enrollment within an existing transaction.
func (r *PlanRepo) EnrollmentByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.PlanEnrollment, error) {
    const q = `SELECT id, plan_id, user_id, status, created_at, updated_at FROM plan_enrollments WHERE id = ?`
    var (
        e                model.PlanEnrollment
        status           string
        created, updated sql.NullTime
    )
    if err := tx.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.PlanID, &e.UserID, &status, &created, &updated); err != nil {
        return nil, err
    }
    e.Status = model.EnrollmentStatus(status)
    if created.Valid {
        e.CreatedAt = created.Time
    }
    if updated.Valid {
        e.UpdatedAt = updated.Time
    }
    return &e, nil
}

// ConfirmedCountTx counts the plan's confirmed enrollments, which is what
// the plan capacity bounds.
func (r *PlanRepo) ConfirmedCountTx(ctx context.Context, tx *sql.Tx, planID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM plan_enrollments WHERE plan_id = ? AND status = 'confirmed'`
    var count int
    if err := tx.QueryRowContext(ctx, q, planID).Scan(&count); err != nil {
        return 0, err
    }
    return count, nil
}

// InsertEnrollmentTx inserts a new enrollment and populates the generated
// ID and timestamps.  The (plan_id, user_id) unique index surfaces
// duplicate enrollments as MySQL duplicate-key errors.
func (r *PlanRepo) InsertEnrollmentTx(ctx context.Context, tx *sql.Tx, e *model.PlanEnrollment) error {
    const q = `INSERT INTO plan_enrollments (plan_id, user_id, status) VALUES (?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, e.PlanID, e.UserID, string(e.Status))
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    refreshed, err := r.EnrollmentByIDTx(ctx, tx, e.ID)
    if err != nil {
        return err
    }
    *e = *refreshed
    return nil
}

// UpdateEnrollmentStatusTx sets the enrollment's status.
func (r *PlanRepo) UpdateEnrollmentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.EnrollmentStatus) error {
    result, err := tx.ExecContext(ctx, `UPDATE plan_enrollments SET status = ? WHERE id = ?`, string(status), id)
    if err != nil {
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        return sql.ErrNoRows
    }
    return nil
}
