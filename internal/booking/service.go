// Package booking owns the cart/reservation aggregate: the reservation
// state machine, its child line state machine, the one-cart-per-user
// invariant, and the atomic multi-row operations that move bookings
// between states.  Every mutation runs as a single transaction against
// the Store; slot contention is serialized with advisory locks so two
// writers for an overlapping slot cannot both commit.
package booking

import (
    "context"
    "errors"
    "fmt"

    "github.com/valleturismo/reservation-engine/internal/availability"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// Service implements the aggregate operations.  It holds no mutable state
// of its own; all state lives in the Store.
type Service struct {
    store Store
}

// NewService returns a Service backed by store.
func NewService(store Store) *Service {
    if store == nil {
        panic("nil store passed to NewService")
    }
    return &Service{store: store}
}

// GetOrCreateCart returns the owner's in-cart reservation, creating an
// empty one with a fresh code when none exists.  The cart singleton is
// guaranteed by the store's unique index; when a concurrent first call
// wins the race, this call re-reads and returns the surviving cart.
func (s *Service) GetOrCreateCart(ctx context.Context, ownerID uint64) (*model.Reservation, error) {
    if ownerID == 0 {
        return nil, &ValidationError{Fields: map[string]string{"owner_id": "required"}}
    }
    for attempt := 0; attempt < codeAttempts; attempt++ {
        var cart *model.Reservation
        err := s.store.InTx(ctx, func(tx Tx) error {
            existing, err := tx.CartByOwner(ctx, ownerID)
            if err == nil {
                existing.Lines, err = tx.LinesByReservation(ctx, existing.ID)
                if err != nil {
                    return err
                }
                cart = existing
                return nil
            }
            if !errors.Is(err, ErrNotFound) {
                return err
            }
            code, err := NewReservationCode()
            if err != nil {
                return err
            }
            fresh := &model.Reservation{OwnerID: ownerID, Code: code, Status: model.ReservationInCart}
            if err := tx.InsertReservation(ctx, fresh); err != nil {
                return err
            }
            fresh.Lines = []model.ReservedServiceLine{}
            cart = fresh
            return nil
        })
        if err == nil {
            return cart, nil
        }
        // A unique-key hit means either a concurrent call created the cart
        // first or the generated code collided; both resolve on retry.
        if errors.Is(err, ErrUniqueViolation) {
            continue
        }
        return nil, err
    }
    return nil, fmt.Errorf("get or create cart: %w", ErrUniqueViolation)
}

// AddLineToCart validates the requested slot against the service schedule
// and appends an in-cart line to the owner's cart, creating the cart if
// needed.  Overlap and capacity against committed bookings are NOT
// enforced here: the cart is optimistic, and contention surfaces when the
// cart is confirmed.
func (s *Service) AddLineToCart(ctx context.Context, ownerID uint64, in LineInput) (*model.Reservation, error) {
    if ownerID == 0 {
        return nil, &ValidationError{Fields: map[string]string{"owner_id": "required"}}
    }
    var cart *model.Reservation
    key := slotKeyFor(in)
    err := s.store.WithSlotLocks(ctx, []SlotKey{key}, func() error {
        return s.store.InTx(ctx, func(tx Tx) error {
            svc, err := tx.ServiceByID(ctx, in.ServiceID)
            if err != nil {
                return err
            }
            if !svc.Active {
                return fmt.Errorf("service %d is not active: %w", svc.ID, ErrInvalidState)
            }
            checker := availability.NewChecker(tx)
            within, err := checker.WithinSchedule(ctx, in.ServiceID, in.StartDate, in.StartTime, in.EndTime)
            if err != nil {
                return err
            }
            if !within {
                return fmt.Errorf("%s %s-%s outside service schedule: %w",
                    in.StartDate, in.StartTime, in.EndTime, ErrAvailabilityConflict)
            }
            target, err := tx.CartByOwner(ctx, ownerID)
            if errors.Is(err, ErrNotFound) {
                code, cerr := NewReservationCode()
                if cerr != nil {
                    return cerr
                }
                target = &model.Reservation{OwnerID: ownerID, Code: code, Status: model.ReservationInCart}
                if err := tx.InsertReservation(ctx, target); err != nil {
                    return err
                }
            } else if err != nil {
                return err
            }
            line := s.lineFromInput(in, svc)
            line.ReservationID = target.ID
            line.Status = model.LineInCart
            if err := tx.InsertLine(ctx, &line); err != nil {
                return err
            }
            target.Lines, err = tx.LinesByReservation(ctx, target.ID)
            if err != nil {
                return err
            }
            cart = target
            return nil
        })
    })
    if err != nil {
        return nil, err
    }
    return cart, nil
}

// RemoveLineFromCart deletes a line from a still-in-cart reservation.  It
// fails with ErrNotFound when the line does not exist, ErrForbidden when
// the owning reservation belongs to someone else, and ErrInvalidState
// when the parent reservation already left the cart state.
func (s *Service) RemoveLineFromCart(ctx context.Context, lineID, actingUserID uint64) error {
    return s.store.InTx(ctx, func(tx Tx) error {
        line, err := tx.LineByID(ctx, lineID)
        if err != nil {
            return err
        }
        parent, err := tx.ReservationByID(ctx, line.ReservationID)
        if err != nil {
            return err
        }
        if parent.OwnerID != actingUserID {
            return ErrForbidden
        }
        if parent.Status != model.ReservationInCart {
            return fmt.Errorf("reservation %d is %s, not in cart: %w", parent.ID, parent.Status, ErrInvalidState)
        }
        return tx.DeleteLine(ctx, lineID)
    })
}

// EmptyCart deletes all lines of the owner's cart.  The cart reservation
// itself persists, empty and still in cart state.
func (s *Service) EmptyCart(ctx context.Context, ownerID uint64) error {
    return s.store.InTx(ctx, func(tx Tx) error {
        cart, err := tx.CartByOwner(ctx, ownerID)
        if err != nil {
            return err
        }
        _, err = tx.DeleteLinesByReservation(ctx, cart.ID)
        return err
    })
}

// errStaleSlotKeys signals that the cart's line set changed between
// reading the slot keys and acquiring their locks; the confirm loop
// retries with the fresh set.
var errStaleSlotKeys = errors.New("cart lines changed while acquiring slot locks")

// ConfirmCart runs full availability validation for every line of the
// owner's cart and, as one atomic unit, moves the reservation and all its
// lines to pending.  This is where two optimistic carts holding the same
// slot collide: the loser fails with ErrAvailabilityConflict or
// ErrCapacityExceeded and its cart stays untouched.  The slot keys are
// read in a first transaction; if the locked transaction then sees a
// different line set (a line was added concurrently), the locks held do
// not cover it, and the whole confirm restarts with the fresh keys.
func (s *Service) ConfirmCart(ctx context.Context, ownerID uint64, notes *string) (*model.Reservation, error) {
    for attempt := 0; attempt < codeAttempts; attempt++ {
        keys, err := s.cartSlotKeys(ctx, ownerID)
        if err != nil {
            return nil, err
        }
        var confirmed *model.Reservation
        err = s.store.WithSlotLocks(ctx, keys, func() error {
            return s.store.InTx(ctx, func(tx Tx) error {
                cart, err := tx.CartByOwner(ctx, ownerID)
                if err != nil {
                    return err
                }
                lines, err := tx.LinesByReservation(ctx, cart.ID)
                if err != nil {
                    return err
                }
                if len(lines) == 0 {
                    return fmt.Errorf("cart %d has no lines: %w", cart.ID, ErrInvalidState)
                }
                if !sameSlotKeys(keys, slotKeysForLines(lines)) {
                    return errStaleSlotKeys
                }
                checker := availability.NewChecker(tx)
                for i, l := range lines {
                    if err := checkSlot(ctx, checker, availability.Slot{
                        ServiceID:     l.ServiceID,
                        StartDate:     l.StartDate,
                        EndDate:       l.EndDate,
                        StartTime:     l.StartTime,
                        EndTime:       l.EndTime,
                        ExcludeLineID: l.ID,
                    }, lines[:i]); err != nil {
                        return err
                    }
                }
                cart.Status = model.ReservationPending
                if notes != nil {
                    cart.Notes = *notes
                }
                if err := tx.UpdateReservation(ctx, cart); err != nil {
                    return err
                }
                if err := tx.UpdateLineStatusesByReservation(ctx, cart.ID, model.LinePending); err != nil {
                    return err
                }
                cart.Lines, err = tx.LinesByReservation(ctx, cart.ID)
                if err != nil {
                    return err
                }
                confirmed = cart
                return nil
            })
        })
        if errors.Is(err, errStaleSlotKeys) {
            continue
        }
        if err != nil {
            return nil, err
        }
        return confirmed, nil
    }
    return nil, fmt.Errorf("confirm cart: line set kept changing while locking: %w", ErrInvalidState)
}

// cartSlotKeys reads the owner's cart and returns the slot keys its
// current lines need locked.
func (s *Service) cartSlotKeys(ctx context.Context, ownerID uint64) ([]SlotKey, error) {
    var keys []SlotKey
    err := s.store.InTx(ctx, func(tx Tx) error {
        cart, err := tx.CartByOwner(ctx, ownerID)
        if err != nil {
            return err
        }
        lines, err := tx.LinesByReservation(ctx, cart.ID)
        if err != nil {
            return err
        }
        keys = slotKeysForLines(lines)
        return nil
    })
    if err != nil {
        return nil, err
    }
    return keys, nil
}

// sameSlotKeys reports whether a and b cover the same set of slots,
// ignoring order and duplicates.
func sameSlotKeys(a, b []SlotKey) bool {
    as := make(map[SlotKey]struct{}, len(a))
    for _, k := range a {
        as[k] = struct{}{}
    }
    bs := make(map[SlotKey]struct{}, len(b))
    for _, k := range b {
        if _, ok := as[k]; !ok {
            return false
        }
        bs[k] = struct{}{}
    }
    return len(as) == len(bs)
}

// Create inserts a reservation together with all its lines in one atomic
// unit.  It serves direct (non-cart) booking and plan materialization.
// Each line passes the full availability check unless marked
// prevalidated; the reservation and all lines are created pending.  A
// blank code is generated and retried on collision.
func (s *Service) Create(ctx context.Context, in ReservationInput, lines []LineInput) (*model.Reservation, error) {
    if err := in.Validate(); err != nil {
        return nil, err
    }
    if len(lines) == 0 {
        return nil, &ValidationError{Fields: map[string]string{"lines": "at least one line is required"}}
    }
    keys := make([]SlotKey, 0, len(lines))
    for _, l := range lines {
        keys = append(keys, slotKeyFor(l))
    }
    for attempt := 0; attempt < codeAttempts; attempt++ {
        var created *model.Reservation
        err := s.store.WithSlotLocks(ctx, keys, func() error {
            return s.store.InTx(ctx, func(tx Tx) error {
                checker := availability.NewChecker(tx)
                resolved := make([]model.ReservedServiceLine, 0, len(lines))
                for _, l := range lines {
                    svc, err := tx.ServiceByID(ctx, l.ServiceID)
                    if err != nil {
                        return err
                    }
                    if !svc.Active {
                        return fmt.Errorf("service %d is not active: %w", svc.ID, ErrInvalidState)
                    }
                    if !l.Prevalidated {
                        if err := checkSlot(ctx, checker, availability.Slot{
                            ServiceID: l.ServiceID,
                            StartDate: l.StartDate,
                            EndDate:   l.EndDate,
                            StartTime: l.StartTime,
                            EndTime:   l.EndTime,
                        }, resolved); err != nil {
                            return err
                        }
                    }
                    line := s.lineFromInput(l, svc)
                    line.Status = model.LinePending
                    resolved = append(resolved, line)
                }
                code := in.Code
                if code == "" {
                    var err error
                    if code, err = NewReservationCode(); err != nil {
                        return err
                    }
                }
                r := &model.Reservation{OwnerID: in.OwnerID, Code: code, Status: model.ReservationPending, Notes: in.Notes}
                if err := tx.InsertReservation(ctx, r); err != nil {
                    return err
                }
                for i := range resolved {
                    resolved[i].ReservationID = r.ID
                    if err := tx.InsertLine(ctx, &resolved[i]); err != nil {
                        return err
                    }
                }
                r.Lines = resolved
                created = r
                return nil
            })
        })
        if err == nil {
            return created, nil
        }
        // Only regenerate on collision when the engine picked the code; a
        // caller-supplied duplicate is the caller's conflict.
        if errors.Is(err, ErrUniqueViolation) && in.Code == "" {
            continue
        }
        return nil, err
    }
    return nil, fmt.Errorf("create reservation: %w", ErrUniqueViolation)
}

// Update replaces the reservation's line set: inputs carrying an id update
// that line in place, inputs without an id insert a new line, and stored
// lines absent from the inputs are deleted.  Reservation-level fields in
// the patch are applied in the same transaction.
func (s *Service) Update(ctx context.Context, id uint64, patch ReservationPatch, lines []LineInput) (*model.Reservation, error) {
    keys := make([]SlotKey, 0, len(lines))
    for _, l := range lines {
        keys = append(keys, slotKeyFor(l))
    }
    var updated *model.Reservation
    err := s.store.WithSlotLocks(ctx, keys, func() error {
        return s.store.InTx(ctx, func(tx Tx) error {
            r, err := tx.ReservationByID(ctx, id)
            if err != nil {
                return err
            }
            existing, err := tx.LinesByReservation(ctx, id)
            if err != nil {
                return err
            }
            byID := make(map[uint64]model.ReservedServiceLine, len(existing))
            for _, l := range existing {
                byID[l.ID] = l
            }
            checker := availability.NewChecker(tx)
            kept := make(map[uint64]bool, len(lines))
            accepted := make([]model.ReservedServiceLine, 0, len(lines))
            for _, in := range lines {
                svc, err := tx.ServiceByID(ctx, in.ServiceID)
                if err != nil {
                    return err
                }
                if !in.Prevalidated {
                    if err := checkSlot(ctx, checker, availability.Slot{
                        ServiceID:     in.ServiceID,
                        StartDate:     in.StartDate,
                        EndDate:       in.EndDate,
                        StartTime:     in.StartTime,
                        EndTime:       in.EndTime,
                        ExcludeLineID: in.ID,
                    }, accepted); err != nil {
                        return err
                    }
                }
                if in.ID != 0 {
                    cur, ok := byID[in.ID]
                    if !ok {
                        return fmt.Errorf("line %d does not belong to reservation %d: %w", in.ID, id, ErrNotFound)
                    }
                    next := s.lineFromInput(in, svc)
                    next.ID = cur.ID
                    next.ReservationID = id
                    next.Status = cur.Status
                    next.ProviderNotes = cur.ProviderNotes
                    if err := tx.UpdateLine(ctx, &next); err != nil {
                        return err
                    }
                    kept[in.ID] = true
                    accepted = append(accepted, next)
                    continue
                }
                line := s.lineFromInput(in, svc)
                line.ReservationID = id
                line.Status = model.LineStatusFor(r.Status)
                if err := tx.InsertLine(ctx, &line); err != nil {
                    return err
                }
                accepted = append(accepted, line)
            }
            for _, l := range existing {
                if !kept[l.ID] {
                    if err := tx.DeleteLine(ctx, l.ID); err != nil {
                        return err
                    }
                }
            }
            if patch.Notes != nil {
                r.Notes = *patch.Notes
            }
            if err := tx.UpdateReservation(ctx, r); err != nil {
                return err
            }
            r.Lines, err = tx.LinesByReservation(ctx, id)
            if err != nil {
                return err
            }
            updated = r
            return nil
        })
    })
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// SetStatus applies an allowed reservation status transition and cascades
// the mapped line status onto every child line in the same transaction.
func (s *Service) SetStatus(ctx context.Context, id uint64, next model.ReservationStatus) (*model.Reservation, error) {
    if !next.Valid() || next == model.ReservationInCart {
        return nil, &ValidationError{Fields: map[string]string{"status": "unknown or unreachable status"}}
    }
    var updated *model.Reservation
    err := s.store.InTx(ctx, func(tx Tx) error {
        r, err := tx.ReservationByID(ctx, id)
        if err != nil {
            return err
        }
        if !r.Status.CanTransitionTo(next) {
            return fmt.Errorf("cannot move reservation %d from %s to %s: %w", id, r.Status, next, ErrInvalidState)
        }
        r.Status = next
        if err := tx.UpdateReservation(ctx, r); err != nil {
            return err
        }
        if err := tx.UpdateLineStatusesByReservation(ctx, id, model.LineStatusFor(next)); err != nil {
            return err
        }
        r.Lines, err = tx.LinesByReservation(ctx, id)
        if err != nil {
            return err
        }
        updated = r
        return nil
    })
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// Delete removes the reservation and all its lines: children first, then
// the parent, inside one transaction.
func (s *Service) Delete(ctx context.Context, id uint64) error {
    return s.store.InTx(ctx, func(tx Tx) error {
        if _, err := tx.ReservationByID(ctx, id); err != nil {
            return err
        }
        if _, err := tx.DeleteLinesByReservation(ctx, id); err != nil {
            return err
        }
        return tx.DeleteReservation(ctx, id)
    })
}

// GetReservation loads a reservation with its lines.
func (s *Service) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    var out *model.Reservation
    err := s.store.InTx(ctx, func(tx Tx) error {
        r, err := tx.ReservationByID(ctx, id)
        if err != nil {
            return err
        }
        r.Lines, err = tx.LinesByReservation(ctx, id)
        if err != nil {
            return err
        }
        out = r
        return nil
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}

// GetLine loads a single reserved service line.
func (s *Service) GetLine(ctx context.Context, id uint64) (*model.ReservedServiceLine, error) {
    var out *model.ReservedServiceLine
    err := s.store.InTx(ctx, func(tx Tx) error {
        l, err := tx.LineByID(ctx, id)
        if err != nil {
            return err
        }
        out = l
        return nil
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}

// SetLineStatus applies an allowed status transition to one line without
// touching its siblings or the parent reservation.  Cart lines are
// rejected; they change state only through cart operations.
func (s *Service) SetLineStatus(ctx context.Context, lineID uint64, next model.LineStatus) (*model.ReservedServiceLine, error) {
    if !next.Valid() || next == model.LineInCart {
        return nil, &ValidationError{Fields: map[string]string{"status": "unknown or unreachable status"}}
    }
    var updated *model.ReservedServiceLine
    err := s.store.InTx(ctx, func(tx Tx) error {
        line, err := tx.LineByID(ctx, lineID)
        if err != nil {
            return err
        }
        if line.Status == model.LineInCart {
            return fmt.Errorf("line %d is still in a cart: %w", lineID, ErrInvalidState)
        }
        if !line.Status.CanTransitionTo(next) {
            return fmt.Errorf("cannot move line %d from %s to %s: %w", lineID, line.Status, next, ErrInvalidState)
        }
        line.Status = next
        if err := tx.UpdateLine(ctx, line); err != nil {
            return err
        }
        updated = line
        return nil
    })
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// SetProviderNotes overwrites the provider notes of a line.  Ownership
// (acting provider vs line provider) is judged by the caller using the
// line's exposed provider id.
func (s *Service) SetProviderNotes(ctx context.Context, lineID uint64, notes string) (*model.ReservedServiceLine, error) {
    var updated *model.ReservedServiceLine
    err := s.store.InTx(ctx, func(tx Tx) error {
        line, err := tx.LineByID(ctx, lineID)
        if err != nil {
            return err
        }
        line.ProviderNotes = notes
        if err := tx.UpdateLine(ctx, line); err != nil {
            return err
        }
        updated = line
        return nil
    })
    if err != nil {
        return nil, err
    }
    return updated, nil
}

// lineFromInput builds a line from a validated input, defaulting the
// provider and unit price from the service row.
func (s *Service) lineFromInput(in LineInput, svc *model.Service) model.ReservedServiceLine {
    line := model.ReservedServiceLine{
        ServiceID:   in.ServiceID,
        ProviderID:  in.ProviderID,
        StartDate:   in.StartDate,
        EndDate:     in.EndDate,
        StartTime:   in.StartTime,
        EndTime:     in.EndTime,
        DurationMin: in.DurationMin,
        Quantity:    in.Quantity,
        ClientNotes: in.ClientNotes,
    }
    if line.ProviderID == 0 {
        line.ProviderID = svc.ProviderID
    }
    if in.UnitPriceCents != nil {
        line.UnitPriceCents = *in.UnitPriceCents
    } else {
        line.UnitPriceCents = svc.ReferencePriceCents
    }
    return line
}

// CheckSlot answers the public availability query: the verdict for one
// candidate slot against the service's schedule and the committed lines.
// The slot must carry a parsed service id, date and time range; the
// verdict reflects the moment of the read and can be invalidated by a
// concurrent confirm.
func (s *Service) CheckSlot(ctx context.Context, slot availability.Slot) (availability.Verdict, error) {
    if slot.ServiceID == 0 {
        return 0, &ValidationError{Fields: map[string]string{"service_id": "required"}}
    }
    var verdict availability.Verdict
    err := s.store.InTx(ctx, func(tx Tx) error {
        svc, err := tx.ServiceByID(ctx, slot.ServiceID)
        if err != nil {
            return err
        }
        if !svc.Active {
            return fmt.Errorf("service %d is not active: %w", svc.ID, ErrInvalidState)
        }
        verdict, err = availability.NewChecker(tx).Check(ctx, slot)
        return err
    })
    if err != nil {
        return 0, err
    }
    return verdict, nil
}

// ScheduleFor returns the service's active schedule windows on the given
// weekday, in start-time order.
func (s *Service) ScheduleFor(ctx context.Context, serviceID uint64, day model.DayOfWeek) ([]model.ScheduleWindow, error) {
    if !day.Valid() {
        return nil, &ValidationError{Fields: map[string]string{"day": "must be 0 (Monday) through 6 (Sunday)"}}
    }
    var windows []model.ScheduleWindow
    err := s.store.InTx(ctx, func(tx Tx) error {
        if _, err := tx.ServiceByID(ctx, serviceID); err != nil {
            return err
        }
        var err error
        windows, err = tx.WindowsFor(ctx, serviceID, day)
        return err
    })
    if err != nil {
        return nil, err
    }
    return windows, nil
}

// checkSlot maps an availability verdict onto the aggregate's typed
// errors.  siblings are the lines already accepted earlier in the same
// multi-line operation; they conflict with the slot like committed lines
// do, so one cart or create call cannot overbook against itself.
func checkSlot(ctx context.Context, checker *availability.Checker, slot availability.Slot, siblings []model.ReservedServiceLine) error {
    verdict, err := checker.CheckWith(ctx, slot, siblings)
    if err != nil {
        return err
    }
    switch verdict {
    case availability.Available:
        return nil
    case availability.NoCapacity:
        return fmt.Errorf("service %d at %s %s: %w", slot.ServiceID, slot.StartDate, slot.StartTime, ErrCapacityExceeded)
    default:
        return fmt.Errorf("service %d at %s %s-%s (%s): %w",
            slot.ServiceID, slot.StartDate, slot.StartTime, slot.EndTime, verdict, ErrAvailabilityConflict)
    }
}
