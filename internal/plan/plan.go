// Package plan manages plan enrollments and materializes confirmed
// enrollments into real reservations.  A plan is a booking template with
// a capacity; enrolling creates a pending link between user and plan, and
// confirming counts against the capacity.  Materialization expands the
// plan's template entries into one reservation with one pending line per
// entry, delegating creation to the booking aggregate exactly as any
// other client would.
package plan

import (
    "context"
    "errors"
    "fmt"

    "github.com/valleturismo/reservation-engine/internal/booking"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// ErrPlanFull means the plan's confirmed enrollments already reach its
// capacity.
var ErrPlanFull = errors.New("plan capacity reached")

// ErrAlreadyEnrolled means the user already has an enrollment for the
// plan.
var ErrAlreadyEnrolled = errors.New("user already enrolled in plan")

// Store is the transactional persistence contract of the plan subsystem.
// WithPlanLock serializes capacity-sensitive writers on one plan.
type Store interface {
    InTx(ctx context.Context, fn func(Tx) error) error
    WithPlanLock(ctx context.Context, planID uint64, fn func() error) error
}

// Tx is the set of plan reads and writes available inside a transaction.
// Lookups return booking.ErrNotFound for missing rows; inserts return
// booking.ErrUniqueViolation on a unique-key hit.
type Tx interface {
    PlanByID(ctx context.Context, id uint64) (*model.Plan, error)
    EntriesByPlan(ctx context.Context, planID uint64) ([]model.PlanEntry, error)
    EnrollmentByID(ctx context.Context, id uint64) (*model.PlanEnrollment, error)
    ConfirmedEnrollmentCount(ctx context.Context, planID uint64) (int, error)
    InsertEnrollment(ctx context.Context, e *model.PlanEnrollment) error
    UpdateEnrollmentStatus(ctx context.Context, id uint64, status model.EnrollmentStatus) error
}

// ReservationCreator is the slice of the booking aggregate the
// materializer consumes.
type ReservationCreator interface {
    Create(ctx context.Context, in booking.ReservationInput, lines []booking.LineInput) (*model.Reservation, error)
}

// Service implements enrollment and materialization.
type Service struct {
    store        Store
    reservations ReservationCreator
}

// NewService returns a plan Service backed by store, creating
// reservations through reservations.
func NewService(store Store, reservations ReservationCreator) *Service {
    if store == nil || reservations == nil {
        panic("nil dependency passed to plan.NewService")
    }
    return &Service{store: store, reservations: reservations}
}

// Enroll creates a pending enrollment of the user in the plan.  It fails
// with booking.ErrNotFound for an unknown plan, ErrInvalidState for an
// inactive plan, ErrPlanFull when confirmed enrollments already fill the
// capacity, and ErrAlreadyEnrolled on a duplicate.  The capacity check
// and the insert run under the plan's advisory lock.
func (s *Service) Enroll(ctx context.Context, planID, userID uint64) (*model.PlanEnrollment, error) {
    if planID == 0 || userID == 0 {
        return nil, &booking.ValidationError{Fields: map[string]string{"plan_id": "required", "user_id": "required"}}
    }
    var enrollment *model.PlanEnrollment
    err := s.store.WithPlanLock(ctx, planID, func() error {
        return s.store.InTx(ctx, func(tx Tx) error {
            p, err := tx.PlanByID(ctx, planID)
            if err != nil {
                return err
            }
            if !p.Active {
                return fmt.Errorf("plan %d is not active: %w", planID, booking.ErrInvalidState)
            }
            confirmed, err := tx.ConfirmedEnrollmentCount(ctx, planID)
            if err != nil {
                return err
            }
            if uint32(confirmed) >= p.Capacity {
                return fmt.Errorf("plan %d: %w", planID, ErrPlanFull)
            }
            e := &model.PlanEnrollment{PlanID: planID, UserID: userID, Status: model.EnrollmentPending}
            if err := tx.InsertEnrollment(ctx, e); err != nil {
                if errors.Is(err, booking.ErrUniqueViolation) {
                    return fmt.Errorf("plan %d, user %d: %w", planID, userID, ErrAlreadyEnrolled)
                }
                return err
            }
            enrollment = e
            return nil
        })
    })
    if err != nil {
        return nil, err
    }
    return enrollment, nil
}

// SetEnrollmentStatus moves an enrollment between pending, confirmed and
// cancelled.  Confirming re-checks the plan capacity under the plan lock,
// since confirmed enrollments are what the capacity bounds.
func (s *Service) SetEnrollmentStatus(ctx context.Context, enrollmentID uint64, next model.EnrollmentStatus) (*model.PlanEnrollment, error) {
    if !next.Valid() {
        return nil, &booking.ValidationError{Fields: map[string]string{"status": "unknown status"}}
    }
    // Resolve the plan id first so the lock can be taken when confirming.
    var planID uint64
    err := s.store.InTx(ctx, func(tx Tx) error {
        e, err := tx.EnrollmentByID(ctx, enrollmentID)
        if err != nil {
            return err
        }
        planID = e.PlanID
        return nil
    })
    if err != nil {
        return nil, err
    }
    var updated *model.PlanEnrollment
    apply := func() error {
        return s.store.InTx(ctx, func(tx Tx) error {
            e, err := tx.EnrollmentByID(ctx, enrollmentID)
            if err != nil {
                return err
            }
            if e.Status == next {
                updated = e
                return nil
            }
            if e.Status == model.EnrollmentCancelled {
                return fmt.Errorf("enrollment %d is cancelled: %w", enrollmentID, booking.ErrInvalidState)
            }
            if next == model.EnrollmentConfirmed {
                if e.Status != model.EnrollmentPending {
                    return fmt.Errorf("enrollment %d is %s: %w", enrollmentID, e.Status, booking.ErrInvalidState)
                }
                p, err := tx.PlanByID(ctx, e.PlanID)
                if err != nil {
                    return err
                }
                confirmed, err := tx.ConfirmedEnrollmentCount(ctx, e.PlanID)
                if err != nil {
                    return err
                }
                if uint32(confirmed) >= p.Capacity {
                    return fmt.Errorf("plan %d: %w", e.PlanID, ErrPlanFull)
                }
            }
            if err := tx.UpdateEnrollmentStatus(ctx, enrollmentID, next); err != nil {
                return err
            }
            e.Status = next
            updated = e
            return nil
        })
    }
    if next == model.EnrollmentConfirmed {
        err = s.store.WithPlanLock(ctx, planID, apply)
    } else {
        err = apply()
    }
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// Materialize expands a confirmed enrollment into one reservation carrying
// one pending line per plan template entry, priced at each service's
// reference price with quantity 1.  The engine does not deduplicate
// repeated calls for the same enrollment; callers must guard against
// re-invocation.
func (s *Service) Materialize(ctx context.Context, enrollmentID uint64) (*model.Reservation, error) {
    var (
        enrollment *model.PlanEnrollment
        entries    []model.PlanEntry
    )
    err := s.store.InTx(ctx, func(tx Tx) error {
        e, err := tx.EnrollmentByID(ctx, enrollmentID)
        if err != nil {
            return err
        }
        if e.Status != model.EnrollmentConfirmed {
            return fmt.Errorf("enrollment %d is %s, not confirmed: %w", enrollmentID, e.Status, booking.ErrInvalidState)
        }
        if entries, err = tx.EntriesByPlan(ctx, e.PlanID); err != nil {
            return err
        }
        enrollment = e
        return nil
    })
    if err != nil {
        return nil, err
    }
    if len(entries) == 0 {
        return nil, fmt.Errorf("plan %d has no template entries: %w", enrollment.PlanID, booking.ErrInvalidState)
    }
    lines := make([]booking.LineInput, 0, len(entries))
    for _, e := range entries {
        lines = append(lines, booking.LineInput{
            ServiceID:   e.ServiceID,
            StartDate:   e.StartDate,
            EndDate:     e.EndDate,
            StartTime:   e.StartTime,
            EndTime:     e.EndTime,
            DurationMin: e.DurationMin,
            Quantity:    1,
            // The enrollment's confirmed status stands in for per-line
            // availability validation on this path.
            Prevalidated: true,
        })
    }
    return s.reservations.Create(ctx, booking.ReservationInput{OwnerID: enrollment.UserID}, lines)
}
