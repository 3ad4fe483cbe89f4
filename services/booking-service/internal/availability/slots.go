package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals [Start,End) share any instant.
// Touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Window is an open-hours range on the local wall clock, in minutes since midnight.
type Window struct {
	StartMinute int
	EndMinute   int
}

// Request carries the per-staff policy for one window.
type Request struct {
	Duration time.Duration
	Buffer   time.Duration
	Busy     []Interval
	// Now excludes slots that have already ended; Earliest excludes slots starting before the
	// lead time.
	Now      time.Time
	Earliest time.Time
}

// AvailableSlots generates the free slots of one window on day (any instant of the local date; its
// location is the schedule's timezone).
//
// Slot starts are laid out on the wall clock from the window start, spaced Duration+Buffer apart,
// and each slot ends Duration after its start. Generation stops at the first slot that would end
// after the window end, so a window shorter than Duration yields nothing.
func AvailableSlots(day time.Time, w Window, req Request) []Interval {
	if req.Duration <= 0 || req.Buffer < 0 {
		return nil
	}
	if w.EndMinute <= w.StartMinute {
		return nil
	}

	y, m, d := day.Date()
	loc := day.Location()
	windowEnd := time.Date(y, m, d, 0, w.EndMinute, 0, 0, loc)
	stepMinutes := int((req.Duration + req.Buffer) / time.Minute)
	if stepMinutes <= 0 {
		return nil
	}

	var slots []Interval
	for minute := w.StartMinute; ; minute += stepMinutes {
		start := time.Date(y, m, d, 0, minute, 0, 0, loc)
		slot := Interval{Start: start, End: start.Add(req.Duration)}
		if slot.End.After(windowEnd) {
			break
		}
		if !slot.End.After(req.Now) {
			continue
		}
		if slot.Start.Before(req.Earliest) {
			continue
		}
		if overlapsAny(slot, req.Busy) {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}

// EarliestStart applies a lead time of leadHours to now using wall-clock arithmetic in loc: the
// result shows the same minute on the clock face leadHours later, even across a DST change.
func EarliestStart(now time.Time, loc *time.Location, leadHours int) time.Time {
	n := now.In(loc)
	if leadHours <= 0 {
		return n
	}
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour()+leadHours, n.Minute(), n.Second(), n.Nanosecond(), loc)
}

// DayBounds returns [local midnight, next local midnight) for the calendar date of day.
func DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	loc := day.Location()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
