package model

// ReservationStatus is the lifecycle state of a reservation aggregate.
// StatusInCart marks the per-user draft (the "cart"); the remaining values
// describe a committed reservation.  Reservation and line statuses are
// deliberately distinct types: the source system used different vocabulary
// for each, and conflating them hides cascade bugs.
type ReservationStatus string

const (
    ReservationInCart    ReservationStatus = "in_cart"
    ReservationPending   ReservationStatus = "pending"
    ReservationConfirmed ReservationStatus = "confirmed"
    ReservationCancelled ReservationStatus = "cancelled"
    ReservationCompleted ReservationStatus = "completed"
)

// Valid reports whether s is one of the defined reservation statuses.
func (s ReservationStatus) Valid() bool {
    switch s {
    case ReservationInCart, ReservationPending, ReservationConfirmed,
        ReservationCancelled, ReservationCompleted:
        return true
    }
    return false
}

// CanTransitionTo reports whether a reservation may move from s to next.
// Allowed moves: Pending→Confirmed, Confirmed→Completed, and any status to
// Cancelled.  InCart leaves the draft state only through the cart confirm
// path, never through a direct status change.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
    if next == ReservationCancelled {
        return true
    }
    switch s {
    case ReservationPending:
        return next == ReservationConfirmed
    case ReservationConfirmed:
        return next == ReservationCompleted
    }
    return false
}

// LineStatus is the lifecycle state of a single reserved service line.
// Lines mirror the reservation vocabulary but are tracked independently so
// a provider can act on just their own line.
type LineStatus string

const (
    LineInCart    LineStatus = "in_cart"
    LinePending   LineStatus = "pending"
    LineConfirmed LineStatus = "confirmed"
    LineCancelled LineStatus = "cancelled"
    LineCompleted LineStatus = "completed"
)

// Valid reports whether s is one of the defined line statuses.
func (s LineStatus) Valid() bool {
    switch s {
    case LineInCart, LinePending, LineConfirmed, LineCancelled, LineCompleted:
        return true
    }
    return false
}

// Committed reports whether the line participates in overlap and capacity
// checks.  Only Pending and Confirmed lines occupy a slot; cart drafts and
// terminal lines do not.
func (s LineStatus) Committed() bool {
    return s == LinePending || s == LineConfirmed
}

// CanTransitionTo mirrors the reservation transition rules at line level,
// used when a provider acts on a single line.
func (s LineStatus) CanTransitionTo(next LineStatus) bool {
    if next == LineCancelled {
        return true
    }
    switch s {
    case LinePending:
        return next == LineConfirmed
    case LineConfirmed:
        return next == LineCompleted
    }
    return false
}

// LineStatusFor maps a reservation status to the line status applied to
// every child line when a status change cascades.  Confirmed, Cancelled and
// Completed map to their line counterparts; everything else maps to
// Pending.
func LineStatusFor(s ReservationStatus) LineStatus {
    switch s {
    case ReservationConfirmed:
        return LineConfirmed
    case ReservationCancelled:
        return LineCancelled
    case ReservationCompleted:
        return LineCompleted
    }
    return LinePending
}

// EnrollmentStatus is the lifecycle state of a plan enrollment.
type EnrollmentStatus string

const (
    EnrollmentPending   EnrollmentStatus = "pending"
    EnrollmentConfirmed EnrollmentStatus = "confirmed"
    EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Valid reports whether s is one of the defined enrollment statuses.
func (s EnrollmentStatus) Valid() bool {
    switch s {
    case EnrollmentPending, EnrollmentConfirmed, EnrollmentCancelled:
        return true
    }
    return false
}
