// Package repository implements raw-SQL data access for the reservation
// engine against MySQL.  Each entity gets its own repository with
// Tx-suffixed methods that run inside a caller-supplied transaction; the
// Store types in store.go bundle the repositories behind the
// booking/plan transactional contracts.  All timestamp columns are
// stored in UTC; dates and wall-clock times are stored as DATE and TIME
// columns and surfaced as the model's canonical string forms.
package repository

import (
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// isDuplicateEntry reports whether err is MySQL's duplicate-key error
// (1062), raised when a unique index such as the reservation code, the
// cart singleton or the enrollment uniqueness is hit.
func isDuplicateEntry(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}

// dateOf converts a scanned DATE column (parseTime=true yields time.Time)
// into the model's canonical date form.
func dateOf(t time.Time) model.Date {
    return model.Date(t.Format("2006-01-02"))
}

// nullableDateOf converts an optional DATE column.
func nullableDateOf(nt sql.NullTime) *model.Date {
    if !nt.Valid {
        return nil
    }
    d := dateOf(nt.Time)
    return &d
}

// clockOf converts a scanned TIME column ("HH:MM:SS") into the model's
// canonical "HH:MM" form.
func clockOf(s string) model.ClockTime {
    if len(s) >= 5 {
        return model.ClockTime(s[:5])
    }
    return model.ClockTime(s)
}
