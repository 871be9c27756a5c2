package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// ReservationRepo provides CRUD operations for reservations plus the
// read-side projections consumed by HTTP handlers.  The cart singleton
// (one in-cart reservation per owner) is enforced by a unique index over
// the generated cart_owner_id column; inserts racing for it surface
// MySQL's duplicate-key error.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, owner_id, code, status, notes, created_at, updated_at`

// CartByOwnerTx returns the owner's in-cart reservation within an
// existing transaction.  sql.ErrNoRows means the owner has no cart.
func (r *ReservationRepo) CartByOwnerTx(ctx context.Context, tx *sql.Tx, ownerID uint64) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE owner_id = ? AND status = 'in_cart'`
    return scanReservation(tx.QueryRowContext(ctx, q, ownerID))
}

// GetByIDTx returns one reservation (without lines) within an existing
// transaction.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    return scanReservation(tx.QueryRowContext(ctx, q, id))
}

// InsertTx inserts a new reservation and populates the generated ID and
// DB default timestamps on the provided record.  Duplicate-key errors
// (code collision or a cart singleton race) are returned to the caller
// undecorated for classification.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (owner_id, code, status, notes) VALUES (?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.OwnerID, res.Code, string(res.Status), res.Notes)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    refreshed, err := r.GetByIDTx(ctx, tx, res.ID)
    if err != nil {
        return err
    }
    lines := res.Lines
    *res = *refreshed
    res.Lines = lines
    return nil
}

// UpdateTx persists status and notes of an existing reservation.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `UPDATE reservations SET status = ?, notes = ? WHERE id = ?`
    result, err := tx.ExecContext(ctx, q, string(res.Status), res.Notes, res.ID)
    if err != nil {
        return err
    }
    // MySQL reports zero affected rows for a value-identical update, so
    // RowsAffected cannot distinguish "missing" here; callers read the
    // reservation inside the same transaction before updating.
    _ = result
    return nil
}

// DeleteTx removes the reservation row.  Child lines must be removed
// first; the aggregate's delete operation performs the cascade
// explicitly inside one transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, err := result.RowsAffected(); err == nil && n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

func scanReservation(row *sql.Row) (*model.Reservation, error) {
    var (
        res              model.Reservation
        status           string
        created, updated sql.NullTime
    )
    if err := row.Scan(&res.ID, &res.OwnerID, &res.Code, &status, &res.Notes, &created, &updated); err != nil {
        return nil, err
    }
    res.Status = model.ReservationStatus(status)
    if created.Valid {
        res.CreatedAt = created.Time
    }
    if updated.Valid {
        res.UpdatedAt = updated.Time
    }
    return &res, nil
}

// LineDetail is one line of a reservation projection, joined with the
// service name for display.
type LineDetail struct {
    ID             uint64          `json:"id"`
    ServiceID      uint64          `json:"service_id"`
    ServiceName    string          `json:"service_name"`
    ProviderID     uint64          `json:"provider_id"`
    StartDate      model.Date      `json:"start_date"`
    EndDate        *model.Date     `json:"end_date,omitempty"`
    StartTime      model.ClockTime `json:"start_time"`
    EndTime        model.ClockTime `json:"end_time"`
    DurationMin    uint32          `json:"duration_min"`
    Quantity       uint32          `json:"quantity"`
    UnitPriceCents uint32          `json:"unit_price_cents"`
    Status         string          `json:"status"`
    ClientNotes    string          `json:"client_notes,omitempty"`
    ProviderNotes  string          `json:"provider_notes,omitempty"`
}

// ReservationDetail is the read-side projection of a reservation for
// customers, providers and admin listings.
type ReservationDetail struct {
    ID              uint64       `json:"id"`
    OwnerID         uint64       `json:"owner_id"`
    Code            string       `json:"code"`
    Status          string       `json:"status"`
    Notes           string       `json:"notes,omitempty"`
    TotalPriceCents uint64       `json:"total_price_cents"`
    CreatedAt       string       `json:"created_at"`
    Lines           []LineDetail `json:"lines"`
}

// ListFilter narrows the reservation listing.  Zero/nil fields are
// ignored.  ProviderID and ServiceID match reservations having at least
// one line for that provider/service; From/To match reservations having
// at least one line starting in the date range.
type ListFilter struct {
    OwnerID    uint64
    ProviderID uint64
    ServiceID  uint64
    From       *model.Date
    To         *model.Date
}

// listWhere builds the WHERE clause and arguments for a listing filter.
// From and To constrain the same line: a reservation matches only when a
// single line starts inside the requested range, not when one line
// starts after From and a different one before To.
func listWhere(f ListFilter) (string, []interface{}) {
    where := []string{"1 = 1"}
    args := make([]interface{}, 0, 5)
    if f.OwnerID != 0 {
        where = append(where, "r.owner_id = ?")
        args = append(args, f.OwnerID)
    }
    if f.ProviderID != 0 {
        where = append(where, "EXISTS (SELECT 1 FROM reserved_service_lines l WHERE l.reservation_id = r.id AND l.provider_id = ?)")
        args = append(args, f.ProviderID)
    }
    if f.ServiceID != 0 {
        where = append(where, "EXISTS (SELECT 1 FROM reserved_service_lines l WHERE l.reservation_id = r.id AND l.service_id = ?)")
        args = append(args, f.ServiceID)
    }
    switch {
    case f.From != nil && f.To != nil:
        where = append(where, "EXISTS (SELECT 1 FROM reserved_service_lines l WHERE l.reservation_id = r.id AND l.start_date >= ? AND l.start_date <= ?)")
        args = append(args, string(*f.From), string(*f.To))
    case f.From != nil:
        where = append(where, "EXISTS (SELECT 1 FROM reserved_service_lines l WHERE l.reservation_id = r.id AND l.start_date >= ?)")
        args = append(args, string(*f.From))
    case f.To != nil:
        where = append(where, "EXISTS (SELECT 1 FROM reserved_service_lines l WHERE l.reservation_id = r.id AND l.start_date <= ?)")
        args = append(args, string(*f.To))
    }
    return strings.Join(where, " AND "), args
}

// List returns reservation projections matching the filter, newest
// first, with lines populated in a single follow-up query.
func (r *ReservationRepo) List(ctx context.Context, f ListFilter) ([]ReservationDetail, error) {
    where, args := listWhere(f)
    q := `SELECT r.id, r.owner_id, r.code, r.status, r.notes, r.created_at
          FROM reservations r
          WHERE ` + where + `
          ORDER BY r.created_at DESC, r.id DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            d       ReservationDetail
            created sql.NullTime
        )
        if err := rows.Scan(&d.ID, &d.OwnerID, &d.Code, &d.Status, &d.Notes, &created); err != nil {
            return nil, err
        }
        if created.Valid {
            d.CreatedAt = created.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
        }
        d.Lines = []LineDetail{}
        index[d.ID] = len(details)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(details) == 0 {
        return details, nil
    }
    if err := r.populateLines(ctx, details, index); err != nil {
        return nil, err
    }
    return details, nil
}

// GetDetail returns a single reservation projection with its lines.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
    const q = `SELECT r.id, r.owner_id, r.code, r.status, r.notes, r.created_at
               FROM reservations r WHERE r.id = ?`
    var (
        d       ReservationDetail
        created sql.NullTime
    )
    if err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.OwnerID, &d.Code, &d.Status, &d.Notes, &created); err != nil {
        return nil, err
    }
    if created.Valid {
        d.CreatedAt = created.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
    }
    d.Lines = []LineDetail{}
    details := []ReservationDetail{d}
    if err := r.populateLines(ctx, details, map[uint64]int{d.ID: 0}); err != nil {
        return nil, err
    }
    return &details[0], nil
}

// populateLines fills the Lines and TotalPriceCents of every projection
// in one query, matching rows back to their reservation via the index
// map.
func (r *ReservationRepo) populateLines(ctx context.Context, details []ReservationDetail, index map[uint64]int) error {
    ids := make([]interface{}, 0, len(details))
    placeholders := make([]string, 0, len(details))
    for _, d := range details {
        ids = append(ids, d.ID)
        placeholders = append(placeholders, "?")
    }
    q := `SELECT l.reservation_id, l.id, l.service_id, s.name, l.provider_id,
                 l.start_date, l.end_date, l.start_time, l.end_time,
                 l.duration_min, l.quantity, l.unit_price_cents, l.status,
                 l.client_notes, l.provider_notes
          FROM reserved_service_lines l
          JOIN services s ON s.id = l.service_id
          WHERE l.reservation_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY l.reservation_id, l.id`
    rows, err := r.db.QueryContext(ctx, q, ids...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var (
            rid                  uint64
            ld                   LineDetail
            startDate, endDate   sql.NullTime
            startTime, endTime   string
        )
        if err := rows.Scan(
            &rid, &ld.ID, &ld.ServiceID, &ld.ServiceName, &ld.ProviderID,
            &startDate, &endDate, &startTime, &endTime,
            &ld.DurationMin, &ld.Quantity, &ld.UnitPriceCents, &ld.Status,
            &ld.ClientNotes, &ld.ProviderNotes,
        ); err != nil {
            return err
        }
        if startDate.Valid {
            ld.StartDate = dateOf(startDate.Time)
        }
        ld.EndDate = nullableDateOf(endDate)
        ld.StartTime = clockOf(startTime)
        ld.EndTime = clockOf(endTime)
        idx, ok := index[rid]
        if !ok {
            continue
        }
        details[idx].Lines = append(details[idx].Lines, ld)
        details[idx].TotalPriceCents += uint64(ld.UnitPriceCents) * uint64(ld.Quantity)
    }
    return rows.Err()
}
