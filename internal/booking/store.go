package booking

import (
    "context"
    "fmt"

    "github.com/valleturismo/reservation-engine/internal/availability"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// SlotKey identifies one contended booking slot: a service at an exact
// start date and start time.  Writers that may commit lines for the same
// slot serialize on its advisory lock.
type SlotKey struct {
    ServiceID uint64
    Date      model.Date
    Start     model.ClockTime
}

// String renders the key in the form used for the store's advisory lock
// name.
func (k SlotKey) String() string {
    return fmt.Sprintf("slot:%d:%s:%s", k.ServiceID, k.Date, k.Start)
}

// Store is the transactional persistence contract of the aggregate.  Every
// mutating operation runs entirely inside one InTx scope: the callback's
// error rolls the transaction back, nil commits it.  WithSlotLocks
// acquires advisory locks for the given slots (in a deterministic order)
// around fn, so that two concurrent committing writers for an overlapping
// slot cannot both pass the availability check.
type Store interface {
    InTx(ctx context.Context, fn func(Tx) error) error
    WithSlotLocks(ctx context.Context, keys []SlotKey, fn func() error) error
}

// Tx is the set of reads and writes available inside a transaction.  All
// lookups return ErrNotFound when the row does not exist; inserts return
// ErrUniqueViolation (possibly wrapped) when a unique key is hit.
type Tx interface {
    // The availability checker reads catalog and committed-line data
    // through the same transaction.
    availability.Source

    // CartByOwner returns the owner's in-cart reservation without lines.
    CartByOwner(ctx context.Context, ownerID uint64) (*model.Reservation, error)
    // ReservationByID returns the reservation without lines.
    ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error)
    // LinesByReservation returns all lines of a reservation ordered by id.
    LinesByReservation(ctx context.Context, reservationID uint64) ([]model.ReservedServiceLine, error)
    // LineByID returns a single line.
    LineByID(ctx context.Context, id uint64) (*model.ReservedServiceLine, error)

    // InsertReservation writes a new reservation and populates its ID and
    // timestamps.
    InsertReservation(ctx context.Context, r *model.Reservation) error
    // InsertLine writes a new line and populates its ID and timestamps.
    InsertLine(ctx context.Context, l *model.ReservedServiceLine) error
    // UpdateReservation persists status and notes of an existing
    // reservation.
    UpdateReservation(ctx context.Context, r *model.Reservation) error
    // UpdateLine persists all mutable fields of an existing line.
    UpdateLine(ctx context.Context, l *model.ReservedServiceLine) error
    // UpdateLineStatusesByReservation sets the status of every line of the
    // reservation (the cascade write).
    UpdateLineStatusesByReservation(ctx context.Context, reservationID uint64, status model.LineStatus) error

    // DeleteLine removes one line.
    DeleteLine(ctx context.Context, id uint64) error
    // DeleteLinesByReservation removes all lines of a reservation and
    // returns how many were removed.
    DeleteLinesByReservation(ctx context.Context, reservationID uint64) (int, error)
    // DeleteReservation removes the reservation row itself.
    DeleteReservation(ctx context.Context, id uint64) error
}
