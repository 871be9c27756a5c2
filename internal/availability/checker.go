// Package availability decides whether a requested service slot can be
// booked.  A slot is available when it falls inside an active schedule
// window, does not overlap a committed (pending or confirmed) line for the
// same service, and the service still has capacity at that exact
// date + start time.  Cart drafts and terminal lines never occupy a slot,
// so carts cannot block each other: contention is resolved when a cart is
// confirmed, not when a line is added.
package availability

import (
    "context"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// Source supplies the catalog and booking data the checker reads.  In
// production it is backed by the transaction the calling operation runs
// in, so the check and the dependent write observe the same snapshot.
type Source interface {
    // ServiceByID returns the service, or an error the caller treats as
    // not-found.
    ServiceByID(ctx context.Context, id uint64) (*model.Service, error)
    // WindowsFor returns the active schedule windows for a service on one
    // day of week, ordered by start time.
    WindowsFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error)
    // CommittedLinesInRange returns all pending/confirmed lines of the
    // service whose date range intersects [from, to].
    CommittedLinesInRange(ctx context.Context, serviceID uint64, from, to model.Date) ([]model.ReservedServiceLine, error)
    // CommittedCountAt counts pending/confirmed lines of the service with
    // exactly the given start date and start time.
    CommittedCountAt(ctx context.Context, serviceID uint64, date model.Date, start model.ClockTime) (int, error)
}

// Verdict is the outcome of a composite availability check.
type Verdict int

const (
    // Available means every check passed and the slot may be booked.
    Available Verdict = iota
    // OutsideSchedule means no active window contains the requested slot.
    OutsideSchedule
    // Overlap means a committed line for the service intersects the slot.
    Overlap
    // NoCapacity means the service's capacity at the slot is exhausted.
    NoCapacity
)

// String names the verdict for logs and error messages.
func (v Verdict) String() string {
    switch v {
    case Available:
        return "available"
    case OutsideSchedule:
        return "outside schedule"
    case Overlap:
        return "overlapping booking"
    case NoCapacity:
        return "capacity exhausted"
    }
    return "unknown"
}

// Slot describes a candidate booking to check.  EndDate is nil for
// single-day bookings.  ExcludeLineID, when non-zero, ignores that line in
// overlap detection; it is set when re-checking an existing line that is
// being edited.
type Slot struct {
    ServiceID     uint64
    StartDate     model.Date
    EndDate       *model.Date
    StartTime     model.ClockTime
    EndTime       model.ClockTime
    ExcludeLineID uint64
}

// lastDate returns the effective end date of the slot.
func (s Slot) lastDate() model.Date {
    if s.EndDate != nil {
        return *s.EndDate
    }
    return s.StartDate
}

// Checker evaluates slot availability against a Source.
type Checker struct {
    src Source
}

// NewChecker returns a Checker reading from src.
func NewChecker(src Source) *Checker { return &Checker{src: src} }

// HasOverlap reports whether the slot intersects any committed line for
// the same service.  Two bookings overlap when their date intervals
// intersect and their time intervals intersect.  Time intervals are
// half-open: a booking ending at 11:00 does not overlap one starting at
// 11:00.
func (c *Checker) HasOverlap(ctx context.Context, slot Slot) (bool, error) {
    lines, err := c.src.CommittedLinesInRange(ctx, slot.ServiceID, slot.StartDate, slot.lastDate())
    if err != nil {
        return false, err
    }
    for _, l := range lines {
        if slot.ExcludeLineID != 0 && l.ID == slot.ExcludeLineID {
            continue
        }
        if !datesIntersect(slot.StartDate, slot.lastDate(), l.StartDate, l.LastDate()) {
            continue
        }
        if timesIntersect(slot.StartTime, slot.EndTime, l.StartTime, l.EndTime) {
            return true, nil
        }
    }
    return false, nil
}

// WithinSchedule reports whether some active schedule window for the
// service on the weekday of date fully contains [start, end).
func (c *Checker) WithinSchedule(ctx context.Context, serviceID uint64, date model.Date, start, end model.ClockTime) (bool, error) {
    windows, err := c.src.WindowsFor(ctx, serviceID, date.Weekday())
    if err != nil {
        return false, err
    }
    for _, w := range windows {
        if w.Contains(start, end) {
            return true, nil
        }
    }
    return false, nil
}

// HasCapacity reports whether fewer committed lines than the service's
// capacity exist for the exact same start date and start time.
func (c *Checker) HasCapacity(ctx context.Context, serviceID uint64, date model.Date, start model.ClockTime) (bool, error) {
    svc, err := c.src.ServiceByID(ctx, serviceID)
    if err != nil {
        return false, err
    }
    count, err := c.src.CommittedCountAt(ctx, serviceID, date, start)
    if err != nil {
        return false, err
    }
    return uint32(count) < svc.Capacity, nil
}

// Check runs the composite availability decision for the slot:
// WithinSchedule AND NOT HasOverlap AND HasCapacity.  Direct booking and
// cart confirmation pass every line through this before writing; adding
// to a cart checks only the schedule, so contention surfaces at confirm.
func (c *Checker) Check(ctx context.Context, slot Slot) (Verdict, error) {
    return c.CheckWith(ctx, slot, nil)
}

// CheckWith runs the same composite decision while also treating pending
// as occupied: lines accepted earlier in the same multi-line operation
// are not committed yet, but they must conflict with the slot exactly
// like committed lines so one cart or create call cannot book against
// itself.
func (c *Checker) CheckWith(ctx context.Context, slot Slot, pending []model.ReservedServiceLine) (Verdict, error) {
    ok, err := c.WithinSchedule(ctx, slot.ServiceID, slot.StartDate, slot.StartTime, slot.EndTime)
    if err != nil {
        return OutsideSchedule, err
    }
    if !ok {
        return OutsideSchedule, nil
    }
    overlap, err := c.HasOverlap(ctx, slot)
    if err != nil {
        return Overlap, err
    }
    if overlap {
        return Overlap, nil
    }
    for _, l := range pending {
        if slot.ExcludeLineID != 0 && l.ID == slot.ExcludeLineID {
            continue
        }
        if l.ServiceID != slot.ServiceID {
            continue
        }
        if !datesIntersect(slot.StartDate, slot.lastDate(), l.StartDate, l.LastDate()) {
            continue
        }
        if timesIntersect(slot.StartTime, slot.EndTime, l.StartTime, l.EndTime) {
            return Overlap, nil
        }
    }
    ok, err = c.HasCapacity(ctx, slot.ServiceID, slot.StartDate, slot.StartTime)
    if err != nil {
        return NoCapacity, err
    }
    if !ok {
        return NoCapacity, nil
    }
    return Available, nil
}

// datesIntersect reports whether the closed date intervals [as, ae] and
// [bs, be] share at least one day.
func datesIntersect(as, ae, bs, be model.Date) bool {
    return !ae.Before(bs) && !be.Before(as)
}

// timesIntersect reports whether the half-open time intervals [as, ae) and
// [bs, be) share any instant.  Shared endpoints do not count.
func timesIntersect(as, ae, bs, be model.ClockTime) bool {
    return as.Before(be) && bs.Before(ae)
}
