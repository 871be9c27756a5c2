package model

// ScheduleWindow is one weekly availability window for a service: on the
// given day of week the service may be booked between StartTime and
// EndTime.  A service may carry several windows per day; the catalog does
// not guarantee they are disjoint.
//
// Invariant: StartTime < EndTime.
//
// Fields:
//  ID        – primary key identifier.
//  ServiceID – service the window belongs to.
//  Day       – day of week (Monday-first enumeration).
//  StartTime – inclusive opening wall-clock time.
//  EndTime   – exclusive closing wall-clock time.
//  Active    – inactive windows are ignored by availability checks.
type ScheduleWindow struct {
    ID        uint64    // schedule_windows.id
    ServiceID uint64    // schedule_windows.service_id
    Day       DayOfWeek // schedule_windows.day_of_week
    StartTime ClockTime // schedule_windows.start_time
    EndTime   ClockTime // schedule_windows.end_time
    Active    bool      // schedule_windows.active
}

// Contains reports whether the window fully contains [start, end).
func (w ScheduleWindow) Contains(start, end ClockTime) bool {
    return !start.Before(w.StartTime) && !w.EndTime.Before(end)
}
