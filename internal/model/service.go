package model

import "time"

// Service is a bookable tourism service offered by a provider
// (emprendedor).  The catalog subsystem owns these rows; the reservation
// engine only reads them for capacity, pricing and schedule lookups.
//
// Fields:
//  ID                  – primary key identifier.
//  ProviderID          – provider (emprendedor) who offers the service.
//  Name                – display name of the service.
//  Capacity            – maximum simultaneous committed bookings for one
//                        date + start-time slot (positive).
//  ReferencePriceCents – default unit price copied onto new lines.
//  Active              – whether the service can currently be booked.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Service struct {
    ID                  uint64    // services.id
    ProviderID          uint64    // services.provider_id
    Name                string    // services.name
    Capacity            uint32    // services.capacity
    ReferencePriceCents uint32    // services.reference_price_cents
    Active              bool      // services.active
    CreatedAt           time.Time // services.created_at
    UpdatedAt           time.Time // services.updated_at
}
