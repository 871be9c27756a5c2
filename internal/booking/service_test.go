package booking

import (
    "context"
    "errors"
    "testing"

    "github.com/valleturismo/reservation-engine/internal/availability"
    "github.com/valleturismo/reservation-engine/internal/model"
)

// Saturday within the test schedule.
const testDate = model.Date("2026-09-05")

func kayakStore() *memStore {
    st := newMemStore()
    st.addService(model.Service{ID: 7, ProviderID: 3, Name: "Kayak tour", Capacity: 2, ReferencePriceCents: 4500, Active: true})
    st.addService(model.Service{ID: 8, ProviderID: 3, Name: "Retired trek", Capacity: 5, ReferencePriceCents: 2000, Active: false})
    day := testDate.Weekday()
    st.addWindow(model.ScheduleWindow{ID: 1, ServiceID: 7, Day: day, StartTime: "09:00", EndTime: "18:00", Active: true})
    return st
}

func kayakLine(start, end model.ClockTime) LineInput {
    return LineInput{ServiceID: 7, StartDate: testDate, StartTime: start, EndTime: end, Quantity: 1}
}

func TestGetOrCreateCartSingleton(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())

    first, err := svc.GetOrCreateCart(ctx, 11)
    if err != nil {
        t.Fatalf("create cart: %v", err)
    }
    if first.Status != model.ReservationInCart {
        t.Fatalf("new cart status = %s, want %s", first.Status, model.ReservationInCart)
    }
    if first.Code == "" {
        t.Fatalf("new cart has no code")
    }
    second, err := svc.GetOrCreateCart(ctx, 11)
    if err != nil {
        t.Fatalf("fetch cart: %v", err)
    }
    if second.ID != first.ID {
        t.Fatalf("second call created cart %d, want existing %d", second.ID, first.ID)
    }
    if _, err := svc.GetOrCreateCart(ctx, 0); err == nil {
        t.Fatalf("owner 0 accepted")
    }
}

func TestAddLineToCart(t *testing.T) {
    ctx := context.Background()

    t.Run("creates cart and line", func(t *testing.T) {
        svc := NewService(kayakStore())
        cart, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00"))
        if err != nil {
            t.Fatalf("add line: %v", err)
        }
        if len(cart.Lines) != 1 {
            t.Fatalf("cart has %d lines, want 1", len(cart.Lines))
        }
        l := cart.Lines[0]
        if l.Status != model.LineInCart {
            t.Fatalf("line status = %s, want %s", l.Status, model.LineInCart)
        }
        if l.ProviderID != 3 {
            t.Fatalf("provider not defaulted from service: got %d", l.ProviderID)
        }
        if l.UnitPriceCents != 4500 {
            t.Fatalf("unit price not defaulted from service: got %d", l.UnitPriceCents)
        }
    })

    t.Run("outside schedule rejected", func(t *testing.T) {
        svc := NewService(kayakStore())
        _, err := svc.AddLineToCart(ctx, 11, kayakLine("07:00", "08:00"))
        if !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("err = %v, want ErrAvailabilityConflict", err)
        }
    })

    t.Run("inactive service rejected", func(t *testing.T) {
        svc := NewService(kayakStore())
        in := kayakLine("10:00", "12:00")
        in.ServiceID = 8
        _, err := svc.AddLineToCart(ctx, 11, in)
        if !errors.Is(err, ErrInvalidState) {
            t.Fatalf("err = %v, want ErrInvalidState", err)
        }
    })

    t.Run("ignores committed bookings on the slot", func(t *testing.T) {
        // The cart is optimistic: a booked slot still goes in, and the
        // conflict surfaces at confirm time.
        st := kayakStore()
        svc := NewService(st)
        seedBooking(t, svc, 20, "10:00", "12:00")
        cart, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00"))
        if err != nil {
            t.Fatalf("add to full slot: %v", err)
        }
        if cart.Lines[0].Status != model.LineInCart {
            t.Fatalf("line status = %s", cart.Lines[0].Status)
        }
    })
}

// seedBooking books the slot for ownerID through the normal Create path.
func seedBooking(t *testing.T, svc *Service, ownerID uint64, start, end model.ClockTime) *model.Reservation {
    t.Helper()
    r, err := svc.Create(context.Background(), ReservationInput{OwnerID: ownerID}, []LineInput{kayakLine(start, end)})
    if err != nil {
        t.Fatalf("seed booking for owner %d: %v", ownerID, err)
    }
    return r
}

func TestRemoveLineFromCart(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())
    cart, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00"))
    if err != nil {
        t.Fatalf("add line: %v", err)
    }
    lineID := cart.Lines[0].ID

    if err := svc.RemoveLineFromCart(ctx, 999, 11); !errors.Is(err, ErrNotFound) {
        t.Fatalf("missing line: err = %v, want ErrNotFound", err)
    }
    if err := svc.RemoveLineFromCart(ctx, lineID, 12); !errors.Is(err, ErrForbidden) {
        t.Fatalf("foreign user: err = %v, want ErrForbidden", err)
    }
    if err := svc.RemoveLineFromCart(ctx, lineID, 11); err != nil {
        t.Fatalf("remove line: %v", err)
    }
    got, err := svc.GetOrCreateCart(ctx, 11)
    if err != nil {
        t.Fatalf("reload cart: %v", err)
    }
    if len(got.Lines) != 0 {
        t.Fatalf("cart still has %d lines", len(got.Lines))
    }

    // Lines of a reservation that already left the cart cannot be removed
    // this way.
    booked := seedBooking(t, svc, 20, "14:00", "15:00")
    if err := svc.RemoveLineFromCart(ctx, booked.Lines[0].ID, 20); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("pending line: err = %v, want ErrInvalidState", err)
    }
}

func TestEmptyCart(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())
    if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
        t.Fatalf("add line: %v", err)
    }
    if _, err := svc.AddLineToCart(ctx, 11, kayakLine("14:00", "15:00")); err != nil {
        t.Fatalf("add line: %v", err)
    }
    if err := svc.EmptyCart(ctx, 11); err != nil {
        t.Fatalf("empty cart: %v", err)
    }
    cart, err := svc.GetOrCreateCart(ctx, 11)
    if err != nil {
        t.Fatalf("reload cart: %v", err)
    }
    if len(cart.Lines) != 0 {
        t.Fatalf("cart still has %d lines", len(cart.Lines))
    }
    if cart.Status != model.ReservationInCart {
        t.Fatalf("cart status = %s after emptying", cart.Status)
    }
    if err := svc.EmptyCart(ctx, 99); !errors.Is(err, ErrNotFound) {
        t.Fatalf("no cart: err = %v, want ErrNotFound", err)
    }
}

func TestConfirmCart(t *testing.T) {
    ctx := context.Background()

    t.Run("moves cart and lines to pending", func(t *testing.T) {
        svc := NewService(kayakStore())
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("add line: %v", err)
        }
        notes := "two paddles please"
        res, err := svc.ConfirmCart(ctx, 11, &notes)
        if err != nil {
            t.Fatalf("confirm: %v", err)
        }
        if res.Status != model.ReservationPending {
            t.Fatalf("status = %s, want %s", res.Status, model.ReservationPending)
        }
        if res.Notes != notes {
            t.Fatalf("notes = %q", res.Notes)
        }
        for _, l := range res.Lines {
            if l.Status != model.LinePending {
                t.Fatalf("line %d status = %s, want %s", l.ID, l.Status, model.LinePending)
            }
        }
        // The owner's next cart is a fresh one.
        fresh, err := svc.GetOrCreateCart(ctx, 11)
        if err != nil {
            t.Fatalf("new cart: %v", err)
        }
        if fresh.ID == res.ID {
            t.Fatalf("confirmed reservation still serves as cart")
        }
    })

    t.Run("empty cart rejected", func(t *testing.T) {
        svc := NewService(kayakStore())
        if _, err := svc.GetOrCreateCart(ctx, 11); err != nil {
            t.Fatalf("create cart: %v", err)
        }
        if _, err := svc.ConfirmCart(ctx, 11, nil); !errors.Is(err, ErrInvalidState) {
            t.Fatalf("err = %v, want ErrInvalidState", err)
        }
    })

    t.Run("second cart for the same slot loses", func(t *testing.T) {
        // Two optimistic carts hold the same slot; the first confirm
        // commits and the second collides with it.
        svc := NewService(kayakStore())
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("cart A add: %v", err)
        }
        if _, err := svc.AddLineToCart(ctx, 12, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("cart B add: %v", err)
        }
        if _, err := svc.ConfirmCart(ctx, 11, nil); err != nil {
            t.Fatalf("cart A confirm: %v", err)
        }
        _, err := svc.ConfirmCart(ctx, 12, nil)
        if !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("cart B confirm err = %v, want ErrAvailabilityConflict", err)
        }
        // The losing cart is untouched and can be retried with another
        // slot.
        cart, err := svc.GetOrCreateCart(ctx, 12)
        if err != nil {
            t.Fatalf("reload cart B: %v", err)
        }
        if cart.Status != model.ReservationInCart || len(cart.Lines) != 1 {
            t.Fatalf("losing cart mutated: status %s, %d lines", cart.Status, len(cart.Lines))
        }
    })

    t.Run("cart holding the same slot twice cannot confirm", func(t *testing.T) {
        // Both adds succeed (the cart is optimistic), but the second
        // line collides with its sibling at confirm time; otherwise a
        // single cart would exceed the slot's capacity on its own.
        st := kayakStore()
        svc := NewService(st)
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("first add: %v", err)
        }
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("second add: %v", err)
        }
        if _, err := svc.ConfirmCart(ctx, 11, nil); !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("err = %v, want ErrAvailabilityConflict", err)
        }
        for _, l := range st.lines {
            if l.Status != model.LineInCart {
                t.Fatalf("line %d left the cart despite the failed confirm: %s", l.ID, l.Status)
            }
        }
    })

    t.Run("overlapping sibling lines cannot confirm", func(t *testing.T) {
        svc := NewService(kayakStore())
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("first add: %v", err)
        }
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("11:00", "13:00")); err != nil {
            t.Fatalf("second add: %v", err)
        }
        if _, err := svc.ConfirmCart(ctx, 11, nil); !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("err = %v, want ErrAvailabilityConflict", err)
        }
    })

    t.Run("distinct sibling slots confirm together", func(t *testing.T) {
        svc := NewService(kayakStore())
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("first add: %v", err)
        }
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("12:00", "14:00")); err != nil {
            t.Fatalf("second add: %v", err)
        }
        res, err := svc.ConfirmCart(ctx, 11, nil)
        if err != nil {
            t.Fatalf("confirm: %v", err)
        }
        if len(res.Lines) != 2 {
            t.Fatalf("got %d lines", len(res.Lines))
        }
    })

    t.Run("line added while locking restarts with its slot covered", func(t *testing.T) {
        st := kayakStore()
        svc := NewService(st)
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("10:00", "12:00")); err != nil {
            t.Fatalf("add line: %v", err)
        }
        // Slip a second line into the cart after the slot keys were read
        // but before the locks are held; the confirm must restart and
        // lock the new slot too instead of committing it unserialized.
        st.beforeLock = func() {
            if _, err := svc.AddLineToCart(ctx, 11, kayakLine("14:00", "15:00")); err != nil {
                t.Errorf("concurrent add: %v", err)
            }
        }
        res, err := svc.ConfirmCart(ctx, 11, nil)
        if err != nil {
            t.Fatalf("confirm: %v", err)
        }
        if len(res.Lines) != 2 {
            t.Fatalf("got %d confirmed lines, want 2", len(res.Lines))
        }
        last := st.lockedKeys[len(st.lockedKeys)-1]
        if !sameSlotKeys(last, []SlotKey{
            {ServiceID: 7, Date: testDate, Start: "10:00"},
            {ServiceID: 7, Date: testDate, Start: "14:00"},
        }) {
            t.Fatalf("final lock set misses the late line's slot: %v", last)
        }
    })

    t.Run("back to back slots both confirm", func(t *testing.T) {
        svc := NewService(kayakStore())
        seedBooking(t, svc, 20, "09:00", "11:00")
        if _, err := svc.AddLineToCart(ctx, 11, kayakLine("11:00", "13:00")); err != nil {
            t.Fatalf("add line: %v", err)
        }
        if _, err := svc.ConfirmCart(ctx, 11, nil); err != nil {
            t.Fatalf("shared endpoint treated as overlap: %v", err)
        }
    })
}

func TestCreate(t *testing.T) {
    ctx := context.Background()

    t.Run("creates pending reservation with lines", func(t *testing.T) {
        svc := NewService(kayakStore())
        res, err := svc.Create(ctx, ReservationInput{OwnerID: 11, Notes: "walk-in"}, []LineInput{
            kayakLine("10:00", "12:00"),
            kayakLine("14:00", "15:00"),
        })
        if err != nil {
            t.Fatalf("create: %v", err)
        }
        if res.Status != model.ReservationPending {
            t.Fatalf("status = %s", res.Status)
        }
        if len(res.Lines) != 2 {
            t.Fatalf("got %d lines", len(res.Lines))
        }
        if res.TotalPriceCents() != 9000 {
            t.Fatalf("total = %d, want 9000", res.TotalPriceCents())
        }
    })

    t.Run("overlapping lines in one request collide with each other", func(t *testing.T) {
        st := kayakStore()
        svc := NewService(st)
        _, err := svc.Create(ctx, ReservationInput{OwnerID: 11}, []LineInput{
            kayakLine("10:00", "11:00"),
            kayakLine("10:00", "11:00"),
        })
        if !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("err = %v, want ErrAvailabilityConflict", err)
        }
        if len(st.reservations) != 0 || len(st.lines) != 0 {
            t.Fatalf("self-conflicting create persisted state: %d reservations, %d lines", len(st.reservations), len(st.lines))
        }
    })

    t.Run("rolls back everything when one line fails", func(t *testing.T) {
        st := kayakStore()
        svc := NewService(st)
        _, err := svc.Create(ctx, ReservationInput{OwnerID: 11}, []LineInput{
            kayakLine("10:00", "12:00"),
            kayakLine("20:00", "21:00"), // outside the window
        })
        if !errors.Is(err, ErrAvailabilityConflict) {
            t.Fatalf("err = %v, want ErrAvailabilityConflict", err)
        }
        if len(st.reservations) != 0 || len(st.lines) != 0 {
            t.Fatalf("partial state persisted: %d reservations, %d lines", len(st.reservations), len(st.lines))
        }
    })

    t.Run("storage failure rolls back the reservation row", func(t *testing.T) {
        st := kayakStore()
        st.failInsertLine = errors.New("disk on fire")
        svc := NewService(st)
        _, err := svc.Create(ctx, ReservationInput{OwnerID: 11}, []LineInput{kayakLine("10:00", "12:00")})
        if err == nil {
            t.Fatalf("injected store failure did not surface")
        }
        if len(st.reservations) != 0 {
            t.Fatalf("reservation row survived a failed line insert")
        }
    })

    t.Run("requires at least one line", func(t *testing.T) {
        svc := NewService(kayakStore())
        _, err := svc.Create(ctx, ReservationInput{OwnerID: 11}, nil)
        var ve *ValidationError
        if !errors.As(err, &ve) {
            t.Fatalf("err = %v, want *ValidationError", err)
        }
    })

    t.Run("caller supplied duplicate code is not retried", func(t *testing.T) {
        svc := NewService(kayakStore())
        if _, err := svc.Create(ctx, ReservationInput{OwnerID: 11, Code: "R-TAKEN"}, []LineInput{kayakLine("10:00", "11:00")}); err != nil {
            t.Fatalf("first create: %v", err)
        }
        _, err := svc.Create(ctx, ReservationInput{OwnerID: 12, Code: "R-TAKEN"}, []LineInput{kayakLine("14:00", "15:00")})
        if !errors.Is(err, ErrUniqueViolation) {
            t.Fatalf("err = %v, want ErrUniqueViolation", err)
        }
    })

    t.Run("prevalidated lines skip the availability check", func(t *testing.T) {
        svc := NewService(kayakStore())
        seedBooking(t, svc, 20, "10:00", "12:00")
        in := kayakLine("10:00", "12:00")
        in.Prevalidated = true
        if _, err := svc.Create(ctx, ReservationInput{OwnerID: 11}, []LineInput{in}); err != nil {
            t.Fatalf("prevalidated create: %v", err)
        }
    })
}

func TestUpdateReconcilesLines(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())
    res := seedBooking(t, svc, 11, "10:00", "12:00")
    keptID := res.Lines[0].ID
    if _, err := svc.SetProviderNotes(ctx, keptID, "bring sunscreen"); err != nil {
        t.Fatalf("set provider notes: %v", err)
    }

    moved := kayakLine("14:00", "15:00")
    moved.ID = keptID
    added := kayakLine("16:00", "17:00")
    notes := "rescheduled"
    updated, err := svc.Update(ctx, res.ID, ReservationPatch{Notes: &notes}, []LineInput{moved, added})
    if err != nil {
        t.Fatalf("update: %v", err)
    }
    if updated.Notes != notes {
        t.Fatalf("notes = %q", updated.Notes)
    }
    if len(updated.Lines) != 2 {
        t.Fatalf("got %d lines, want 2", len(updated.Lines))
    }
    var kept, fresh *model.ReservedServiceLine
    for i := range updated.Lines {
        if updated.Lines[i].ID == keptID {
            kept = &updated.Lines[i]
        } else {
            fresh = &updated.Lines[i]
        }
    }
    if kept == nil || fresh == nil {
        t.Fatalf("line set not reconciled: %+v", updated.Lines)
    }
    if kept.StartTime != "14:00" {
        t.Fatalf("kept line not moved: start %s", kept.StartTime)
    }
    if kept.Status != model.LinePending || kept.ProviderNotes != "bring sunscreen" {
        t.Fatalf("in-place update lost status or provider notes: %s %q", kept.Status, kept.ProviderNotes)
    }
    if fresh.Status != model.LinePending {
        t.Fatalf("inserted line status = %s", fresh.Status)
    }

    // Referencing a line of some other reservation fails the whole update.
    other := seedBooking(t, svc, 12, "09:00", "10:00")
    foreign := kayakLine("11:00", "12:00")
    foreign.ID = other.Lines[0].ID
    if _, err := svc.Update(ctx, res.ID, ReservationPatch{}, []LineInput{foreign}); !errors.Is(err, ErrNotFound) {
        t.Fatalf("foreign line id: err = %v, want ErrNotFound", err)
    }
}

func TestSetStatus(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())
    res := seedBooking(t, svc, 11, "10:00", "12:00")

    t.Run("cascades to lines", func(t *testing.T) {
        got, err := svc.SetStatus(ctx, res.ID, model.ReservationConfirmed)
        if err != nil {
            t.Fatalf("confirm: %v", err)
        }
        if got.Status != model.ReservationConfirmed {
            t.Fatalf("status = %s", got.Status)
        }
        for _, l := range got.Lines {
            if l.Status != model.LineConfirmed {
                t.Fatalf("line %d not cascaded: %s", l.ID, l.Status)
            }
        }
    })

    t.Run("illegal transition rejected", func(t *testing.T) {
        // Confirmed cannot go back to pending.
        if _, err := svc.SetStatus(ctx, res.ID, model.ReservationPending); !errors.Is(err, ErrInvalidState) {
            t.Fatalf("err = %v, want ErrInvalidState", err)
        }
    })

    t.Run("cart state unreachable", func(t *testing.T) {
        _, err := svc.SetStatus(ctx, res.ID, model.ReservationInCart)
        var ve *ValidationError
        if !errors.As(err, &ve) {
            t.Fatalf("err = %v, want *ValidationError", err)
        }
    })

    t.Run("missing reservation", func(t *testing.T) {
        if _, err := svc.SetStatus(ctx, 999, model.ReservationCancelled); !errors.Is(err, ErrNotFound) {
            t.Fatalf("err = %v, want ErrNotFound", err)
        }
    })
}

func TestSetLineStatus(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())
    res := seedBooking(t, svc, 11, "10:00", "12:00")
    lineID := res.Lines[0].ID

    got, err := svc.SetLineStatus(ctx, lineID, model.LineConfirmed)
    if err != nil {
        t.Fatalf("confirm line: %v", err)
    }
    if got.Status != model.LineConfirmed {
        t.Fatalf("status = %s", got.Status)
    }
    if _, err := svc.SetLineStatus(ctx, lineID, model.LinePending); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("backwards transition: err = %v, want ErrInvalidState", err)
    }

    cart, err := svc.AddLineToCart(ctx, 12, kayakLine("14:00", "15:00"))
    if err != nil {
        t.Fatalf("add cart line: %v", err)
    }
    if _, err := svc.SetLineStatus(ctx, cart.Lines[0].ID, model.LineConfirmed); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("cart line: err = %v, want ErrInvalidState", err)
    }
}

func TestDeleteRemovesChildren(t *testing.T) {
    ctx := context.Background()
    st := kayakStore()
    svc := NewService(st)
    res := seedBooking(t, svc, 11, "10:00", "12:00")

    if err := svc.Delete(ctx, res.ID); err != nil {
        t.Fatalf("delete: %v", err)
    }
    if len(st.reservations) != 0 || len(st.lines) != 0 {
        t.Fatalf("orphans left: %d reservations, %d lines", len(st.reservations), len(st.lines))
    }
    if err := svc.Delete(ctx, res.ID); !errors.Is(err, ErrNotFound) {
        t.Fatalf("second delete: err = %v, want ErrNotFound", err)
    }
}

func TestCheckSlot(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())

    verdict, err := svc.CheckSlot(ctx, availability.Slot{ServiceID: 7, StartDate: testDate, StartTime: "10:00", EndTime: "12:00"})
    if err != nil {
        t.Fatalf("check: %v", err)
    }
    if verdict != availability.Available {
        t.Fatalf("verdict = %s, want available", verdict)
    }
    if _, err := svc.CheckSlot(ctx, availability.Slot{StartDate: testDate, StartTime: "10:00", EndTime: "12:00"}); err == nil {
        t.Fatalf("zero service id accepted")
    }
    if _, err := svc.CheckSlot(ctx, availability.Slot{ServiceID: 8, StartDate: testDate, StartTime: "10:00", EndTime: "12:00"}); !errors.Is(err, ErrInvalidState) {
        t.Fatalf("inactive service: err = %v, want ErrInvalidState", err)
    }
}

func TestScheduleFor(t *testing.T) {
    ctx := context.Background()
    svc := NewService(kayakStore())

    windows, err := svc.ScheduleFor(ctx, 7, testDate.Weekday())
    if err != nil {
        t.Fatalf("schedule: %v", err)
    }
    if len(windows) != 1 || windows[0].StartTime != "09:00" {
        t.Fatalf("windows = %+v", windows)
    }
    if _, err := svc.ScheduleFor(ctx, 7, model.DayOfWeek(9)); err == nil {
        t.Fatalf("invalid day accepted")
    }
    if _, err := svc.ScheduleFor(ctx, 999, testDate.Weekday()); !errors.Is(err, ErrNotFound) {
        t.Fatalf("missing service: err = %v, want ErrNotFound", err)
    }
}
