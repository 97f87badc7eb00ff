package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
)

func int32Ptr(v int32) *int32 {
	return &v
}

func testRecord(id int32, activityType, occurredAt string, duration *int32) *store.Record {
	return &store.Record{
		ID:              id,
		UserID:          1,
		Title:           "record",
		ActivityType:    activityType,
		OccurredAt:      occurredAt,
		DurationMinutes: duration,
	}
}

func TestAggregate(t *testing.T) {
	today := day(2024, time.June, 3)

	video := testRecord(1, "video", "2024-06-01T10:00:00Z", int32Ptr(30))
	video.Difficulty = int32Ptr(2)
	video.Focus = int32Ptr(4)
	book := testRecord(2, "book", "2024-06-03T08:30:00", int32Ptr(45))
	book.Difficulty = int32Ptr(3)

	records := []*store.Record{video, book}

	summary := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, 7, summary.PeriodDays)
	require.Equal(t, 2, summary.TotalRecords)
	require.Equal(t, int64(75), summary.TotalDurationMinutes)
	require.Equal(t, 2, summary.ActiveDayCount)
	require.Equal(t, 2.5, summary.AvgDifficulty)
	require.Equal(t, 4.0, summary.AvgFocus)
	require.Equal(t, TypeStat{Count: 1, TotalDurationMinutes: 30}, summary.TypeDistribution["video"])
	require.Equal(t, TypeStat{Count: 1, TotalDurationMinutes: 45}, summary.TypeDistribution["book"])
	require.Zero(t, summary.DroppedRecords)
}

func TestAggregateIsIdempotent(t *testing.T) {
	today := day(2024, time.June, 3)
	records := []*store.Record{
		testRecord(1, "video", "2024-06-01T10:00:00Z", int32Ptr(30)),
		testRecord(2, "book", "2024-06-03T08:30:00Z", int32Ptr(45)),
	}

	first := Aggregate(records, 7, today, time.UTC)
	second := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, first, second)
}

func TestAggregateEmptyInput(t *testing.T) {
	summary := Aggregate(nil, 7, day(2024, time.June, 3), time.UTC)
	require.Zero(t, summary.TotalRecords)
	require.Zero(t, summary.TotalDurationMinutes)
	require.Zero(t, summary.ActiveDayCount)
	require.Zero(t, summary.AvgDifficulty)
	require.Zero(t, summary.AvgFocus)
	require.NotNil(t, summary.TypeDistribution)
	require.Empty(t, summary.TypeDistribution)
}

func TestAggregateSkipsUnparseableTimestamps(t *testing.T) {
	today := day(2024, time.June, 3)
	records := []*store.Record{
		testRecord(1, "video", "2024-06-02T10:00:00Z", int32Ptr(30)),
		testRecord(2, "book", "not-a-date", int32Ptr(45)),
	}

	summary := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, 1, summary.TotalRecords)
	require.Equal(t, int64(30), summary.TotalDurationMinutes)
	require.Equal(t, 1, summary.DroppedRecords)
}

func TestAggregateWindowBoundaries(t *testing.T) {
	today := day(2024, time.June, 10)

	records := []*store.Record{
		// First day of a 7-day window ending today.
		testRecord(1, "video", "2024-06-04T00:00:00Z", int32Ptr(10)),
		// One day before the window.
		testRecord(2, "video", "2024-06-03T23:59:59Z", int32Ptr(20)),
		// After today.
		testRecord(3, "video", "2024-06-11T00:00:00Z", int32Ptr(40)),
		testRecord(4, "book", "2024-06-10T12:00:00Z", int32Ptr(5)),
	}

	summary := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, 2, summary.TotalRecords)
	require.Equal(t, int64(15), summary.TotalDurationMinutes)
	require.Zero(t, summary.DroppedRecords)
}

func TestAggregateNilDurationCountsAsZero(t *testing.T) {
	today := day(2024, time.June, 3)
	records := []*store.Record{
		testRecord(1, "video", "2024-06-03T10:00:00Z", nil),
		testRecord(2, "video", "2024-06-03T11:00:00Z", int32Ptr(25)),
	}

	summary := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, 2, summary.TotalRecords)
	require.Equal(t, int64(25), summary.TotalDurationMinutes)
	require.Equal(t, TypeStat{Count: 2, TotalDurationMinutes: 25}, summary.TypeDistribution["video"])
}

func TestAggregateRatingAverageRounding(t *testing.T) {
	today := day(2024, time.June, 3)
	records := make([]*store.Record, 0, 3)
	for i, difficulty := range []int32{1, 2, 2} {
		record := testRecord(int32(i+1), "video", "2024-06-03T10:00:00Z", nil)
		record.Difficulty = int32Ptr(difficulty)
		records = append(records, record)
	}

	summary := Aggregate(records, 7, today, time.UTC)
	// 5/3 rounded to one decimal.
	require.Equal(t, 1.7, summary.AvgDifficulty)
}

func TestAggregateLocalDateBucketing(t *testing.T) {
	shanghai := timezone.MustParseTimezone("Asia/Shanghai")
	today := day(2024, time.June, 2)

	// 2024-06-01T22:00Z is already June 2nd in Shanghai, while
	// 2024-06-02T17:00Z has rolled over to June 3rd.
	records := []*store.Record{
		testRecord(1, "video", "2024-06-01T22:00:00Z", int32Ptr(10)),
		testRecord(2, "video", "2024-06-02T17:00:00Z", int32Ptr(10)),
	}

	summary := Aggregate(records, 1, today, shanghai)
	require.Equal(t, 1, summary.TotalRecords)
	require.Equal(t, 1, summary.ActiveDayCount)
}

func TestAggregateAndStreakScenario(t *testing.T) {
	video := testRecord(1, "video", "2024-06-01T10:00:00Z", int32Ptr(30))
	book := testRecord(2, "book", "2024-06-03T09:00:00Z", int32Ptr(45))
	records := []*store.Record{video, book}
	active := ActiveDates(records, time.UTC)

	today := day(2024, time.June, 3)
	summary := Aggregate(records, 7, today, time.UTC)
	require.Equal(t, 2, summary.TotalRecords)
	require.Equal(t, int64(75), summary.TotalDurationMinutes)
	require.Equal(t, 2, summary.ActiveDayCount)
	// June 2nd has no record, so only today counts.
	require.Equal(t, 1, Streak(active, today))

	// Next day nothing is logged yet; June 3rd keeps the streak alive.
	require.Equal(t, 1, Streak(active, day(2024, time.June, 4)))

	// Another empty day and the streak resets.
	require.Equal(t, 0, Streak(active, day(2024, time.June, 5)))
}

func TestActiveDates(t *testing.T) {
	records := []*store.Record{
		testRecord(1, "video", "2024-06-01T10:00:00Z", nil),
		testRecord(2, "book", "2024-06-01T18:00:00Z", nil),
		testRecord(3, "book", "2024-06-03T08:00:00Z", nil),
		testRecord(4, "book", "garbage", nil),
	}

	active := ActiveDates(records, time.UTC)
	require.Len(t, active, 2)
	require.Contains(t, active, day(2024, time.June, 1))
	require.Contains(t, active, day(2024, time.June, 3))
}
