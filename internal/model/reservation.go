package model

import "time"

// Reservation is the aggregate root of the booking engine.  It groups one
// or more reserved service lines under a single owner, status and
// human-readable code.  A reservation in ReservationInCart status is the
// owner's cart: at most one such row may exist per owner at any time.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user who owns the reservation.
//  Code      – globally unique human-readable code (generated at creation,
//              retried on collision).
//  Status    – aggregate state (InCart, Pending, Confirmed, Cancelled,
//              Completed).
//  Notes     – free-text notes from the owner.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
//  Lines     – child reserved service lines; the reservation exclusively
//              owns them (cascade delete).
type Reservation struct {
    ID        uint64            // reservations.id
    OwnerID   uint64            // reservations.owner_id
    Code      string            // reservations.code
    Status    ReservationStatus // reservations.status
    Notes     string            // reservations.notes
    CreatedAt time.Time         // reservations.created_at
    UpdatedAt time.Time         // reservations.updated_at
    Lines     []ReservedServiceLine
}

// TotalPriceCents is the derived total across all lines
// (Σ unit price × quantity).  It is never stored.
func (r *Reservation) TotalPriceCents() uint64 {
    var total uint64
    for _, l := range r.Lines {
        total += uint64(l.UnitPriceCents) * uint64(l.Quantity)
    }
    return total
}

// DateSpan returns the earliest start date and latest end date across all
// lines.  Lines without an end date count their start date as the end.
// ok is false when the reservation has no lines.
func (r *Reservation) DateSpan() (first, last Date, ok bool) {
    for _, l := range r.Lines {
        end := l.StartDate
        if l.EndDate != nil {
            end = *l.EndDate
        }
        if !ok {
            first, last, ok = l.StartDate, end, true
            continue
        }
        if l.StartDate.Before(first) {
            first = l.StartDate
        }
        if end.After(last) {
            last = end
        }
    }
    return first, last, ok
}
