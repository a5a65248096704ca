package streak

import "time"

// Transition applies one qualifying event happening at now to the given
// record and returns the new record together with the outcome. It is a pure
// function: no clock reads, no storage, no side effects. The caller owns
// persistence and must serialize concurrent transitions for the same user.
func Transition(record Record, now time.Time) (Record, Outcome) {
	// the freeze allowance refresh comes first, so that a freeze earned at a
	// week boundary is usable within this very transition
	record = refreshFreezeAllowance(record, now)

	if record.LastActiveDate == nil {
		record.CurrentStreak = 1
		if record.LongestStreak < 1 {
			record.LongestStreak = 1
		}
		lastActive := now
		record.LastActiveDate = &lastActive
		return record, OutcomeBootstrapped
	}

	var outcome Outcome
	switch dayDiff := calendarDaysBetween(*record.LastActiveDate, now); {
	case dayDiff == 0:
		// duplicate same-day submission, LastActiveDate stays untouched
		return record, OutcomeAlreadyCounted
	case dayDiff == 1:
		record.CurrentStreak++
		outcome = OutcomeExtended
	case dayDiff == 2 && record.FreezesAvailable > 0:
		record.CurrentStreak++
		record.FreezesAvailable--
		record.GraceUsedThisWeek = true
		outcome = OutcomeFreezeUsed
	default:
		// covers a gap too large for a freeze, a gap with no freeze left,
		// and negative diffs coming from clock skew or backdated events
		record.CurrentStreak = 1
		outcome = OutcomeBroken
	}

	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	lastActive := now
	record.LastActiveDate = &lastActive

	return record, outcome
}

// refreshFreezeAllowance grants a single freeze when the ISO week rolls over.
// This is the only place FreezesAvailable is ever incremented.
func refreshFreezeAllowance(record Record, now time.Time) Record {
	weekStart := WeekStart(now)
	if !record.FreezeWeekStart.Equal(weekStart) {
		record.FreezesAvailable = 1
		record.FreezeWeekStart = weekStart
		record.GraceUsedThisWeek = false
	}
	return record
}

// calendarDaysBetween returns the number of calendar days from the day of a
// to the day of b. Dates are taken from each timestamp's own location, so
// 23:59 to 00:01 the next day counts as one day apart.
func calendarDaysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}
