package core

import "time"

// This file implements the next-run calculator for recurrence rules. All
// functions are pure: the reference time is always an explicit parameter and
// is never read from the system clock, so every path is testable with fixed
// dates. Inputs are assumed to be validated at rule-write time (see
// RecurrenceRule.Validate); there is no error path here.

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month normalizes to this month's last day.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampToMonth builds a date in the given month, pulling the requested day
// back to the month's last day when it would not exist (day 31 in April
// yields the 30th, never the 1st of May).
func clampToMonth(year int, month time.Month, day int) Date {
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, int(month), day)
}

// NextOccurrence returns the first date on or after now that satisfies the
// rule's periodicity. Comparison is at day granularity: a rule whose target
// day is today is due today regardless of time-of-day. Clamping to the
// month's last day happens after any month or year advancement, so the
// result is always a valid date.
func NextOccurrence(freq Frequency, dayOfMonth, month int, now time.Time) Date {
	year, nowMonth, nowDay := now.Year(), now.Month(), now.Day()

	switch freq {
	case Yearly:
		target := time.Month(month)
		// Candidate is this year's month/day; compare before clamping so a
		// clamped day never pushes the occurrence into next year early.
		if target < nowMonth || (target == nowMonth && dayOfMonth < nowDay) {
			year++
		}
		return clampToMonth(year, target, dayOfMonth)
	default: // Monthly
		if dayOfMonth < nowDay {
			nowMonth++
			if nowMonth > time.December {
				nowMonth = time.January
				year++
			}
		}
		return clampToMonth(year, nowMonth, dayOfMonth)
	}
}

// Advance returns the rule's next due date after it fired on the given
// occurrence. The fired occurrence, not the wall clock, is the reference: a
// rule always steps exactly one period forward from its own last occurrence,
// so a batch that ran late neither skips occurrences nor fires one twice.
func (r RecurrenceRule) Advance(fired Date) Date {
	switch r.Frequency {
	case Yearly:
		return clampToMonth(fired.Year()+1, time.Month(r.Month), r.DayOfMonth)
	default: // Monthly
		year, month := fired.Year(), fired.Time.Month()+1
		if month > time.December {
			month = time.January
			year++
		}
		return clampToMonth(year, month, r.DayOfMonth)
	}
}
