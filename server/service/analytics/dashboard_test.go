package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/store"
)

func TestGetDashboardInit(t *testing.T) {
	ctx := context.Background()
	mock := &mockStore{
		listRecordsFn: func(_ context.Context, find *store.FindRecord) ([]*store.Record, error) {
			record := testRecord(1, "video", "2024-06-03T09:00:00Z", int32Ptr(30))
			record.Title = "Concurrency patterns"
			return []*store.Record{record}, nil
		},
		listTagNamesFn: func(_ context.Context, recordIDs []int32) (map[int32][]string, error) {
			return map[int32][]string{1: {"golang"}}, nil
		},
		listTypesFn: func(_ context.Context, find *store.FindActivityType) ([]*store.ActivityType, error) {
			return []*store.ActivityType{
				{ID: 1, UserID: 1, Code: "video", Label: "Video", Emoji: "🎬", DisplayOrder: 1},
			}, nil
		},
		getProfileFn: func(_ context.Context, userID int32) (*store.UserProfile, error) {
			return &store.UserProfile{UserID: userID, DisplayName: "Ada", Timezone: "Asia/Shanghai"}, nil
		},
	}
	svc := newTestService(mock)

	payload, err := svc.GetDashboardInit(ctx, 1)
	require.NoError(t, err)

	require.Equal(t, 7, payload.Week.PeriodDays)
	require.Equal(t, 1, payload.Week.TotalRecords)
	require.Equal(t, 1, payload.Week.StreakDays)
	require.Equal(t, 1, payload.Week.Today.Count)
	require.Equal(t, int64(30), payload.Week.Today.DurationMinutes)
	require.Equal(t, 30, payload.Month.PeriodDays)

	require.Len(t, payload.Recent, 1)
	require.Equal(t, "Concurrency patterns", payload.Recent[0].Title)
	require.Equal(t, []TagCount{{Tag: "golang", Count: 1}}, payload.TopTags)

	require.Len(t, payload.ActivityTypes, 1)
	require.Equal(t, "video", payload.ActivityTypes[0].Code)

	require.Equal(t, "Ada", payload.Profile.DisplayName)
	require.Equal(t, "Asia/Shanghai", payload.Profile.Timezone)
}

func TestGetDashboardInitCaching(t *testing.T) {
	ctx := context.Background()
	mock := &mockStore{}
	svc := newTestService(mock)

	first, err := svc.GetDashboardInit(ctx, 1)
	require.NoError(t, err)
	// Week window, month window, recent list.
	require.Equal(t, 3, mock.recordCalls())

	second, err := svc.GetDashboardInit(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 3, mock.recordCalls())
}

func TestGetDashboardInitCriticalFailure(t *testing.T) {
	mock := &mockStore{
		listRecordsFn: func(context.Context, *store.FindRecord) ([]*store.Record, error) {
			return nil, errors.New("disk I/O error")
		},
	}
	svc := newTestService(mock)

	_, err := svc.GetDashboardInit(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, apierrors.ErrCodeAggregationUnavailable, apierrors.CodeOf(err))

	// Failed composites are never cached.
	require.Zero(t, svc.CacheStats().TotalEntries)
}

func TestGetDashboardInitDegradesOnNonCriticalFailure(t *testing.T) {
	mock := &mockStore{
		listTypesFn: func(context.Context, *store.FindActivityType) ([]*store.ActivityType, error) {
			return nil, errors.New("relation does not exist")
		},
		getProfileFn: func(context.Context, int32) (*store.UserProfile, error) {
			return nil, errors.New("relation does not exist")
		},
	}
	svc := newTestService(mock)

	payload, err := svc.GetDashboardInit(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, payload.ActivityTypes)
	require.Equal(t, "Learner", payload.Profile.DisplayName)
	require.Equal(t, "UTC", payload.Profile.Timezone)
}

func TestTopTags(t *testing.T) {
	views := []RecordView{
		{Tags: []string{"golang", "backend"}},
		{Tags: []string{"golang", "sql"}},
		{Tags: []string{"golang", "backend", "sql"}},
		{Tags: []string{"zsh"}},
	}

	tags := topTags(views, 3)
	require.Equal(t, []TagCount{
		{Tag: "golang", Count: 3},
		{Tag: "backend", Count: 2},
		{Tag: "sql", Count: 2},
	}, tags)
}

func TestTodayStatsFromViews(t *testing.T) {
	svc := newTestService(&mockStore{})
	today := day(2024, time.June, 3)

	views := []RecordView{
		{OccurredAt: "2024-06-03T09:00:00Z", DurationMinutes: 30},
		{OccurredAt: "2024-06-02T21:00:00Z", DurationMinutes: 60},
		{OccurredAt: "garbage", DurationMinutes: 15},
	}

	stats := svc.todayStatsFromViews(views, today)
	require.Equal(t, 1, stats.Count)
	require.Equal(t, int64(30), stats.DurationMinutes)
}
