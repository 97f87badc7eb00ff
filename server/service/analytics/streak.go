package analytics

import (
	"github.com/studylog/studylog/server/timezone"
)

// Streak computes the current consecutive-day streak.
//
// Anchor policy: if today is active, count backward from today. If today is
// not yet logged but yesterday is active, the streak is not broken yet (the
// user has until day's end), so count backward from yesterday. Otherwise
// the streak is 0. A gap of two or more days always resets, no matter how
// long older runs were.
//
// Pure function of its inputs; "today" is supplied by the caller.
func Streak(active map[timezone.CalendarDate]struct{}, today timezone.CalendarDate) int {
	if len(active) == 0 {
		return 0
	}

	anchor := today
	if _, ok := active[anchor]; !ok {
		anchor = today.AddDays(-1)
		if _, ok := active[anchor]; !ok {
			return 0
		}
	}

	streak := 0
	for day := anchor; ; day = day.AddDays(-1) {
		if _, ok := active[day]; !ok {
			break
		}
		streak++
	}
	return streak
}
