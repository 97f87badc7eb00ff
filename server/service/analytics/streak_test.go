package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studylog/studylog/server/timezone"
)

func day(yyyy int, mm time.Month, dd int) timezone.CalendarDate {
	return timezone.CalendarDate{Year: yyyy, Month: mm, Day: dd}
}

func dateSet(dates ...timezone.CalendarDate) map[timezone.CalendarDate]struct{} {
	set := make(map[timezone.CalendarDate]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func TestStreak(t *testing.T) {
	today := day(2024, time.June, 10)

	tests := []struct {
		name   string
		active map[timezone.CalendarDate]struct{}
		want   int
	}{
		{
			name:   "no active days",
			active: dateSet(),
			want:   0,
		},
		{
			name:   "only today",
			active: dateSet(today),
			want:   1,
		},
		{
			name:   "three consecutive days ending today",
			active: dateSet(today, today.AddDays(-1), today.AddDays(-2)),
			want:   3,
		},
		{
			name:   "only yesterday keeps the streak alive",
			active: dateSet(today.AddDays(-1)),
			want:   1,
		},
		{
			name:   "run ending yesterday",
			active: dateSet(today.AddDays(-1), today.AddDays(-2), today.AddDays(-3)),
			want:   3,
		},
		{
			name:   "two day gap breaks the streak",
			active: dateSet(today.AddDays(-2)),
			want:   0,
		},
		{
			name:   "gap behind today stops the count",
			active: dateSet(today, today.AddDays(-2)),
			want:   1,
		},
		{
			name:   "hole in the middle of a run",
			active: dateSet(today, today.AddDays(-1), today.AddDays(-3), today.AddDays(-4)),
			want:   2,
		},
		{
			name:   "future dates are ignored by the walk",
			active: dateSet(today.AddDays(1), today),
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Streak(tt.active, today))
		})
	}
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	today := day(2024, time.March, 1)
	active := dateSet(today, day(2024, time.February, 29), day(2024, time.February, 28))
	require.Equal(t, 3, Streak(active, today))
}
