// Package analytics converts a user's raw activity log into rollup
// statistics: trailing-window aggregates, per-type distributions, and the
// consecutive-day streak, assembled into dashboard payloads through a
// cached, concurrent fan-out.
//
// All calendar bucketing happens in one injected timezone, and "today" is
// always a parameter, never read from a clock inside the computation, so
// every function here is deterministic and independently testable.
package analytics

import (
	"math"
	"time"

	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
)

// TypeStat is the per-activity-type slice of an aggregate window.
type TypeStat struct {
	Count                int   `json:"count"`
	TotalDurationMinutes int64 `json:"total_duration_minutes"`
}

// Summary is the immutable aggregate over a trailing N-day window. Each
// computation produces a fresh value; nothing mutates one in place.
type Summary struct {
	PeriodDays           int                 `json:"period_days"`
	TotalRecords         int                 `json:"total_records"`
	TotalDurationMinutes int64               `json:"total_duration_minutes"`
	ActiveDayCount       int                 `json:"active_day_count"`
	AvgDifficulty        float64             `json:"avg_difficulty"`
	AvgFocus             float64             `json:"avg_focus"`
	TypeDistribution     map[string]TypeStat `json:"type_distribution"`

	// DroppedRecords counts records excluded because their occurred_at
	// could not be parsed. Informational; not part of the window totals.
	DroppedRecords int `json:"-"`
}

// Aggregate computes the summary of records whose occurred_at, projected to
// a local date in loc, falls within [today-windowDays+1, today] inclusive.
//
// A record with an unparseable timestamp is excluded and counted in
// DroppedRecords; the aggregation is always a best effort over parseable
// records. Absent durations count as 0; rating averages cover only records
// where the rating is present, and an empty set averages to 0.
func Aggregate(records []*store.Record, windowDays int, today timezone.CalendarDate, loc *time.Location) Summary {
	summary := Summary{
		PeriodDays:       windowDays,
		TypeDistribution: make(map[string]TypeStat),
	}
	windowStart := today.AddDays(-windowDays + 1)

	activeDates := make(map[timezone.CalendarDate]struct{})
	var difficultySum, difficultyCount int64
	var focusSum, focusCount int64

	for _, record := range records {
		instant, err := timezone.ParseTimestamp(record.OccurredAt)
		if err != nil {
			summary.DroppedRecords++
			continue
		}
		date := timezone.ToLocalDate(instant, loc)
		if date.Before(windowStart) || date.After(today) {
			continue
		}

		summary.TotalRecords++
		activeDates[date] = struct{}{}

		var duration int64
		if record.DurationMinutes != nil {
			duration = int64(*record.DurationMinutes)
		}
		summary.TotalDurationMinutes += duration

		if record.Difficulty != nil {
			difficultySum += int64(*record.Difficulty)
			difficultyCount++
		}
		if record.Focus != nil {
			focusSum += int64(*record.Focus)
			focusCount++
		}

		stat := summary.TypeDistribution[record.ActivityType]
		stat.Count++
		stat.TotalDurationMinutes += duration
		summary.TypeDistribution[record.ActivityType] = stat
	}

	summary.ActiveDayCount = len(activeDates)
	summary.AvgDifficulty = round1(avg(difficultySum, difficultyCount))
	summary.AvgFocus = round1(avg(focusSum, focusCount))
	return summary
}

// ActiveDates projects records to their set of distinct local calendar
// dates, silently skipping unparseable timestamps.
func ActiveDates(records []*store.Record, loc *time.Location) map[timezone.CalendarDate]struct{} {
	dates := make(map[timezone.CalendarDate]struct{}, len(records))
	for _, record := range records {
		instant, err := timezone.ParseTimestamp(record.OccurredAt)
		if err != nil {
			continue
		}
		dates[timezone.ToLocalDate(instant, loc)] = struct{}{}
	}
	return dates
}

func avg(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// round1 rounds to one decimal, matching the dashboard presentation.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
