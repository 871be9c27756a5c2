package model

import "time"

// ReservedServiceLine is one concrete booking of a single service inside a
// reservation.  It carries its own date range, time range and status so
// that a provider can act on just their line without touching the rest of
// the aggregate.
//
// Invariants: StartTime < EndTime; when EndDate is present it is on or
// after StartDate.  A nil EndDate means a single-day booking.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – owning reservation.
//  ServiceID      – booked service.
//  ProviderID     – provider (emprendedor) delivering the service.
//  StartDate      – first day of the booking.
//  EndDate        – last day of the booking (nil for single-day).
//  StartTime      – wall-clock start of the slot.
//  EndTime        – wall-clock end of the slot (exclusive).
//  DurationMin    – duration of one delivery in minutes.
//  Quantity       – number of units booked (≥ 1).
//  UnitPriceCents – unit price at booking time.
//  Status         – line state, tracked independently of the parent.
//  ClientNotes    – free-text notes from the booking user.
//  ProviderNotes  – free-text notes from the provider.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type ReservedServiceLine struct {
    ID             uint64     // reserved_service_lines.id
    ReservationID  uint64     // reserved_service_lines.reservation_id
    ServiceID      uint64     // reserved_service_lines.service_id
    ProviderID     uint64     // reserved_service_lines.provider_id
    StartDate      Date       // reserved_service_lines.start_date
    EndDate        *Date      // reserved_service_lines.end_date (nullable)
    StartTime      ClockTime  // reserved_service_lines.start_time
    EndTime        ClockTime  // reserved_service_lines.end_time
    DurationMin    uint32     // reserved_service_lines.duration_min
    Quantity       uint32     // reserved_service_lines.quantity
    UnitPriceCents uint32     // reserved_service_lines.unit_price_cents
    Status         LineStatus // reserved_service_lines.status
    ClientNotes    string     // reserved_service_lines.client_notes
    ProviderNotes  string     // reserved_service_lines.provider_notes
    CreatedAt      time.Time  // reserved_service_lines.created_at
    UpdatedAt      time.Time  // reserved_service_lines.updated_at
}

// LastDate returns the effective end date of the booking: EndDate when
// present, otherwise StartDate.
func (l ReservedServiceLine) LastDate() Date {
    if l.EndDate != nil {
        return *l.EndDate
    }
    return l.StartDate
}
