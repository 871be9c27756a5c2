package repository

import (
    "context"
    "database/sql"
)

// ServiceRepo reads the services table.  The catalog subsystem owns
// service rows; the engine only looks up capacity, pricing, provider and
// the active flag.
type ServiceRepo struct {
    db *sql.DB
}

// NewServiceRepo returns a ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, provider_id, name, capacity, reference_price_cents, active, created_at, updated_at`

// GetByIDTx returns one service within the scope of an existing
// transaction.  sql.ErrNoRows is returned when the service does not
// exist.
func (r *ServiceRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*serviceRow, error) {
    const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
    return scanService(tx.QueryRowContext(ctx, q, id))
}

// GetByID returns one service using the repository's own connection.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*serviceRow, error) {
    const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
    return scanService(r.db.QueryRowContext(ctx, q, id))
}

// serviceRow mirrors the services table.  Store glue converts it to
// model.Service.
type serviceRow struct {
    ID                  uint64
    ProviderID          uint64
    Name                string
    Capacity            uint32
    ReferencePriceCents uint32
    Active              bool
    CreatedAt           sql.NullTime
    UpdatedAt           sql.NullTime
}

func scanService(row *sql.Row) (*serviceRow, error) {
    var s serviceRow
    if err := row.Scan(
        &s.ID, &s.ProviderID, &s.Name, &s.Capacity,
        &s.ReferencePriceCents, &s.Active, &s.CreatedAt, &s.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    return &s, nil
}
