package streak

import "time"

// WeekStart returns the Monday at day-start of the ISO week containing t.
// Sunday belongs to the week that started the previous Monday.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 { // time.Sunday
		weekday = 7
	}
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return dayStart.AddDate(0, 0, -(weekday - 1))
}
