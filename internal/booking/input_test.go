package booking

import (
    "errors"
    "testing"
)

func validForm() LineForm {
    return LineForm{
        ServiceID: 7,
        StartDate: "2026-09-05",
        StartTime: "10:00",
        EndTime:   "12:00",
        Quantity:  1,
    }
}

func TestParseLineInput(t *testing.T) {
    t.Run("valid form", func(t *testing.T) {
        in, err := ParseLineInput(validForm())
        if err != nil {
            t.Fatalf("ParseLineInput returned error: %v", err)
        }
        if in.ServiceID != 7 || in.StartDate != "2026-09-05" || in.StartTime != "10:00" {
            t.Fatalf("parsed input = %+v", in)
        }
        if in.EndDate != nil {
            t.Fatalf("EndDate = %v, want nil for single-day booking", *in.EndDate)
        }
    })

    t.Run("collects every field error", func(t *testing.T) {
        _, err := ParseLineInput(LineForm{StartDate: "05/09/2026", StartTime: "10:00", EndTime: "9:00"})
        var ve *ValidationError
        if !errors.As(err, &ve) {
            t.Fatalf("err = %v, want *ValidationError", err)
        }
        for _, field := range []string{"service_id", "start_date", "end_time", "quantity"} {
            if _, ok := ve.Fields[field]; !ok {
                t.Fatalf("missing error for %s in %v", field, ve.Fields)
            }
        }
    })

    t.Run("end before start", func(t *testing.T) {
        f := validForm()
        f.EndTime = "09:00"
        _, err := ParseLineInput(f)
        var ve *ValidationError
        if !errors.As(err, &ve) {
            t.Fatalf("err = %v, want *ValidationError", err)
        }
        if _, ok := ve.Fields["end_time"]; !ok {
            t.Fatalf("no end_time error in %v", ve.Fields)
        }
    })

    t.Run("end date before start date", func(t *testing.T) {
        f := validForm()
        end := "2026-09-01"
        f.EndDate = &end
        _, err := ParseLineInput(f)
        var ve *ValidationError
        if !errors.As(err, &ve) {
            t.Fatalf("err = %v, want *ValidationError", err)
        }
        if _, ok := ve.Fields["end_date"]; !ok {
            t.Fatalf("no end_date error in %v", ve.Fields)
        }
    })
}

func TestParseLineInputsIndexesFields(t *testing.T) {
    good := validForm()
    bad := validForm()
    bad.StartTime = ""
    _, err := ParseLineInputs([]LineForm{good, bad})
    var ve *ValidationError
    if !errors.As(err, &ve) {
        t.Fatalf("err = %v, want *ValidationError", err)
    }
    if _, ok := ve.Fields["lines[1].start_time"]; !ok {
        t.Fatalf("field not indexed by line: %v", ve.Fields)
    }

    inputs, err := ParseLineInputs([]LineForm{good, validForm()})
    if err != nil {
        t.Fatalf("ParseLineInputs returned error: %v", err)
    }
    if len(inputs) != 2 {
        t.Fatalf("got %d inputs, want 2", len(inputs))
    }
}

func TestReservationInputValidate(t *testing.T) {
    if err := (ReservationInput{OwnerID: 11}).Validate(); err != nil {
        t.Fatalf("valid input rejected: %v", err)
    }
    err := (ReservationInput{}).Validate()
    var ve *ValidationError
    if !errors.As(err, &ve) {
        t.Fatalf("err = %v, want *ValidationError", err)
    }
}

func TestNewReservationCode(t *testing.T) {
    code, err := NewReservationCode()
    if err != nil {
        t.Fatalf("NewReservationCode returned error: %v", err)
    }
    if len(code) != 12 || code[:2] != "R-" {
        t.Fatalf("code = %q, want R- prefix and 10 hex digits", code)
    }
    other, err := NewReservationCode()
    if err != nil {
        t.Fatalf("NewReservationCode returned error: %v", err)
    }
    if code == other {
        t.Fatalf("two generated codes are identical: %s", code)
    }
}
