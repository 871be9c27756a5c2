// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/valleturismo/reservation-engine/internal/model"
)

// ConfirmedLine is one service line summarized for downstream consumers.
type ConfirmedLine struct {
    LineID    uint64 `json:"line_id"`
    ServiceID uint64 `json:"service_id"`
    StartDate string `json:"start_date"`
    EndDate   string `json:"end_date,omitempty"`
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
    Quantity  uint32 `json:"quantity"`
    UnitPrice uint32 `json:"unit_price_cents"`
}

// ReservationConfirmedEvent is published when a cart is confirmed into a
// pending reservation.  It carries enough information for downstream
// consumers to log, notify providers, or feed analytics without querying
// the primary database.
type ReservationConfirmedEvent struct {
    ReservationID   uint64          `json:"reservation_id"`
    Code            string          `json:"code"`
    OwnerID         uint64          `json:"owner_id"`
    Lines           []ConfirmedLine `json:"lines"`
    TotalPriceCents uint64          `json:"total_price_cents"`
    ConfirmedAt     string          `json:"confirmed_at"`
}

// NewReservationConfirmedEvent summarizes a reservation into the event
// payload.  Both confirmation paths (cart confirm and a direct status
// change to confirmed) publish through this shape.
func NewReservationConfirmedEvent(r *model.Reservation) ReservationConfirmedEvent {
    ev := ReservationConfirmedEvent{
        ReservationID:   r.ID,
        Code:            r.Code,
        OwnerID:         r.OwnerID,
        TotalPriceCents: r.TotalPriceCents(),
        ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
    }
    for _, l := range r.Lines {
        cl := ConfirmedLine{
            LineID:    l.ID,
            ServiceID: l.ServiceID,
            StartDate: string(l.StartDate),
            StartTime: string(l.StartTime),
            EndTime:   string(l.EndTime),
            Quantity:  l.Quantity,
            UnitPrice: l.UnitPriceCents,
        }
        if l.EndDate != nil {
            cl.EndDate = string(*l.EndDate)
        }
        ev.Lines = append(ev.Lines, cl)
    }
    return ev
}
