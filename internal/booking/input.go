package booking

import (
    "strconv"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// LineForm is the raw JSON shape of a reserved-service-line input as bound
// from a request body.  Parsing into a typed LineInput validates every
// field before any domain object is constructed.
type LineForm struct {
    ID             uint64  `json:"id,omitempty"`
    ServiceID      uint64  `json:"service_id"`
    ProviderID     uint64  `json:"provider_id,omitempty"`
    StartDate      string  `json:"start_date"`
    EndDate        *string `json:"end_date,omitempty"`
    StartTime      string  `json:"start_time"`
    EndTime        string  `json:"end_time"`
    DurationMin    uint32  `json:"duration_min"`
    Quantity       uint32  `json:"quantity"`
    UnitPriceCents *uint32 `json:"unit_price_cents,omitempty"`
    ClientNotes    string  `json:"client_notes,omitempty"`
}

// LineInput is a validated line request.  A zero ProviderID is filled from
// the service's provider; a nil UnitPriceCents is filled from the
// service's reference price.  Prevalidated marks lines whose availability
// was established by the caller (the plan materialization path) and skips
// the per-line availability check.
type LineInput struct {
    ID             uint64
    ServiceID      uint64
    ProviderID     uint64
    StartDate      model.Date
    EndDate        *model.Date
    StartTime      model.ClockTime
    EndTime        model.ClockTime
    DurationMin    uint32
    Quantity       uint32
    UnitPriceCents *uint32
    ClientNotes    string
    Prevalidated   bool
}

// ParseLineInput validates f field by field and returns the typed input.
// On failure it returns a *ValidationError naming every offending field.
func ParseLineInput(f LineForm) (LineInput, error) {
    errs := fieldErrors{}
    in := LineInput{
        ID:             f.ID,
        ServiceID:      f.ServiceID,
        ProviderID:     f.ProviderID,
        DurationMin:    f.DurationMin,
        Quantity:       f.Quantity,
        UnitPriceCents: f.UnitPriceCents,
        ClientNotes:    f.ClientNotes,
    }
    if f.ServiceID == 0 {
        errs.add("service_id", "required")
    }
    if f.StartDate == "" {
        errs.add("start_date", "required")
    } else if d, err := model.ParseDate(f.StartDate); err != nil {
        errs.add("start_date", err.Error())
    } else {
        in.StartDate = d
    }
    if f.EndDate != nil {
        if d, err := model.ParseDate(*f.EndDate); err != nil {
            errs.add("end_date", err.Error())
        } else {
            in.EndDate = &d
        }
    }
    if f.StartTime == "" {
        errs.add("start_time", "required")
    } else if t, err := model.ParseClockTime(f.StartTime); err != nil {
        errs.add("start_time", err.Error())
    } else {
        in.StartTime = t
    }
    if f.EndTime == "" {
        errs.add("end_time", "required")
    } else if t, err := model.ParseClockTime(f.EndTime); err != nil {
        errs.add("end_time", err.Error())
    } else {
        in.EndTime = t
    }
    if in.StartTime != "" && in.EndTime != "" && !in.StartTime.Before(in.EndTime) {
        errs.add("end_time", "must be after start_time")
    }
    if in.StartDate != "" && in.EndDate != nil && in.EndDate.Before(in.StartDate) {
        errs.add("end_date", "must be on or after start_date")
    }
    if f.Quantity == 0 {
        errs.add("quantity", "must be at least 1")
    }
    if err := errs.err(); err != nil {
        return LineInput{}, err
    }
    return in, nil
}

// ParseLineInputs parses a slice of forms, prefixing field names with the
// element index so callers see which line failed.
func ParseLineInputs(forms []LineForm) ([]LineInput, error) {
    inputs := make([]LineInput, 0, len(forms))
    errs := fieldErrors{}
    for i, f := range forms {
        in, err := ParseLineInput(f)
        if err != nil {
            ve := err.(*ValidationError)
            for field, problem := range ve.Fields {
                errs.add(indexField(i, field), problem)
            }
            continue
        }
        inputs = append(inputs, in)
    }
    if err := errs.err(); err != nil {
        return nil, err
    }
    return inputs, nil
}

func indexField(i int, field string) string {
    // lines[2].start_date style keys for multi-line payloads
    return "lines[" + strconv.Itoa(i) + "]." + field
}

// ReservationInput is a validated reservation-creation request.  A blank
// Code is generated by the engine; a supplied code is used verbatim and
// must be unique.
type ReservationInput struct {
    OwnerID uint64
    Code    string
    Notes   string
}

// Validate checks the reservation input.
func (in ReservationInput) Validate() error {
    errs := fieldErrors{}
    if in.OwnerID == 0 {
        errs.add("owner_id", "required")
    }
    return errs.err()
}

// ReservationPatch carries the optional reservation-level changes of an
// update.  Nil fields are left untouched.
type ReservationPatch struct {
    Notes *string
}

// slotKeyFor builds the advisory-lock key of a line input.
func slotKeyFor(in LineInput) SlotKey {
    return SlotKey{ServiceID: in.ServiceID, Date: in.StartDate, Start: in.StartTime}
}

// slotKeysForLines builds the advisory-lock keys for stored lines.
func slotKeysForLines(lines []model.ReservedServiceLine) []SlotKey {
    keys := make([]SlotKey, 0, len(lines))
    for _, l := range lines {
        keys = append(keys, SlotKey{ServiceID: l.ServiceID, Date: l.StartDate, Start: l.StartTime})
    }
    return keys
}
