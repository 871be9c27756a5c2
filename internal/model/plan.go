package model

import "time"

// Plan is a reusable booking template a user can subscribe to.  It owns a
// capacity and a list of template entries; once a user's enrollment is
// confirmed, the materializer expands the entries into a real reservation.
//
// Fields:
//  ID       – primary key identifier.
//  Name     – display name of the plan.
//  Capacity – maximum number of confirmed enrollments.
//  Active   – inactive plans cannot accept new enrollments.
type Plan struct {
    ID       uint64 // plans.id
    Name     string // plans.name
    Capacity uint32 // plans.capacity
    Active   bool   // plans.active
}

// PlanEntry is one template service line of a plan.  Materialization copies
// its date, time and duration verbatim onto a reserved service line with
// quantity 1 and the service's reference price.
type PlanEntry struct {
    ID          uint64    // plan_entries.id
    PlanID      uint64    // plan_entries.plan_id
    ServiceID   uint64    // plan_entries.service_id
    StartDate   Date      // plan_entries.start_date
    EndDate     *Date     // plan_entries.end_date (nullable)
    StartTime   ClockTime // plan_entries.start_time
    EndTime     ClockTime // plan_entries.end_time
    DurationMin uint32    // plan_entries.duration_min
}

// PlanEnrollment links a user to a plan.  Confirmed enrollments count
// against the plan's capacity.
type PlanEnrollment struct {
    ID        uint64           // plan_enrollments.id
    PlanID    uint64           // plan_enrollments.plan_id
    UserID    uint64           // plan_enrollments.user_id
    Status    EnrollmentStatus // plan_enrollments.status
    CreatedAt time.Time        // plan_enrollments.created_at
    UpdatedAt time.Time        // plan_enrollments.updated_at
}
