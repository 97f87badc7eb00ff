package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
	"github.com/studylog/studylog/store/cache"
)

// Store is the interface for store operations needed by the analytics service.
type Store interface {
	ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error)
	ListRecordTagNames(ctx context.Context, recordIDs []int32) (map[int32][]string, error)
	ListActivityTypes(ctx context.Context, find *store.FindActivityType) ([]*store.ActivityType, error)
	GetUserProfile(ctx context.Context, userID int32) (*store.UserProfile, error)
}

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	SummaryTTL      time.Duration
	RecentTTL       time.Duration
	InitTTL         time.Duration
	FanOutWorkers   int
	SubQueryTimeout time.Duration
	RecentLimit     int
}

// Service computes cached aggregate statistics over a user's activity log.
// The cache is injected and explicitly owned; nothing here touches global
// state, and "now" is replaceable for tests.
type Service struct {
	store  Store
	cache  *cache.Cache
	loc    *time.Location
	logger *slog.Logger
	opts   Options

	now func() time.Time
}

// NewService creates a new analytics service. loc is the process-wide zone
// used for every calendar-date projection.
func NewService(st Store, c *cache.Cache, loc *time.Location, logger *slog.Logger, opts Options) *Service {
	if loc == nil {
		loc = timezone.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = 5 * time.Minute
	}
	if opts.RecentTTL <= 0 {
		opts.RecentTTL = 3 * time.Minute
	}
	if opts.InitTTL <= 0 {
		opts.InitTTL = 2 * time.Minute
	}
	if opts.FanOutWorkers <= 0 {
		opts.FanOutWorkers = 5
	}
	if opts.SubQueryTimeout <= 0 {
		opts.SubQueryTimeout = 5 * time.Second
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}

	return &Service{
		store:  st,
		cache:  c,
		loc:    loc,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// Location returns the zone used for calendar bucketing.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current local calendar date.
func (s *Service) Today() timezone.CalendarDate {
	return timezone.ToLocalDate(s.now(), s.loc)
}

// Cache keys are scoped per user so one invalidation prefix drops every
// cached aggregate for that user.
func userKeyPrefix(userID int32) string {
	return fmt.Sprintf("user:%d:", userID)
}

func summaryKey(userID int32, days int) string {
	return fmt.Sprintf("user:%d:summary:days=%d", userID, days)
}

func recentKey(userID int32, limit int) string {
	return fmt.Sprintf("user:%d:recent:limit=%d", userID, limit)
}

func dailyKey(userID int32, days int) string {
	return fmt.Sprintf("user:%d:daily:days=%d", userID, days)
}

func initKey(userID int32) string {
	return fmt.Sprintf("user:%d:init", userID)
}

// TodayStats is today's slice of the log, derived from already-fetched
// records rather than a dedicated query.
type TodayStats struct {
	Count           int   `json:"count"`
	DurationMinutes int64 `json:"duration_minutes"`
}

// SummaryPayload is the dashboard summary for one trailing window.
type SummaryPayload struct {
	Summary
	StreakDays int        `json:"streak_days"`
	Today      TodayStats `json:"today"`
}

// RecordView is the trimmed record representation used in dashboard lists.
type RecordView struct {
	UID             string   `json:"uid"`
	Title           string   `json:"title"`
	ActivityType    string   `json:"activity_type"`
	OccurredAt      string   `json:"occurred_at"`
	DurationMinutes int64    `json:"duration_minutes"`
	Tags            []string `json:"tags"`
}

// DailyStat is one day of the dense per-date series.
type DailyStat struct {
	Date                 string  `json:"date"`
	RecordCount          int     `json:"record_count"`
	TotalDurationMinutes int64   `json:"total_duration_minutes"`
	AvgDifficulty        float64 `json:"avg_difficulty"`
	AvgFocus             float64 `json:"avg_focus"`
}

// GetSummary returns the aggregate over the trailing windowDays window,
// served from cache when fresh.
func (s *Service) GetSummary(ctx context.Context, userID int32, windowDays int) (*SummaryPayload, error) {
	key := summaryKey(userID, windowDays)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*SummaryPayload), nil
	}

	today := s.Today()
	records, err := s.listWindowRecords(ctx, userID, today, windowDays, true)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeAggregationUnavailable, "failed to query records for summary")
	}

	payload := s.buildSummaryPayload(records, windowDays, today)
	s.cache.Set(key, payload, s.opts.SummaryTTL)
	return payload, nil
}

// GetRecentRecords returns the most recent records with their tag names
// resolved in one batch, served from cache when fresh.
func (s *Service) GetRecentRecords(ctx context.Context, userID int32, limit int) ([]RecordView, error) {
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}
	key := recentKey(userID, limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]RecordView), nil
	}

	views, err := s.fetchRecentRecords(ctx, userID, limit)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeAggregationUnavailable, "failed to query recent records")
	}

	s.cache.Set(key, views, s.opts.RecentTTL)
	return views, nil
}

// GetDailyStats returns a dense per-date series for the trailing window,
// zero-filled for dates without records.
func (s *Service) GetDailyStats(ctx context.Context, userID int32, windowDays int) ([]DailyStat, error) {
	key := dailyKey(userID, windowDays)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]DailyStat), nil
	}

	today := s.Today()
	records, err := s.listWindowRecords(ctx, userID, today, windowDays, true)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeAggregationUnavailable, "failed to query records for daily stats")
	}

	series := s.buildDailySeries(records, windowDays, today)
	s.cache.Set(key, series, s.opts.SummaryTTL)
	return series, nil
}

// InvalidateUser evicts every cached aggregate for the user. Called by the
// record write path after each create, update, and delete, and exposed as
// an explicit cache-bust operation.
func (s *Service) InvalidateUser(userID int32) int {
	removed := s.cache.InvalidatePrefix(userKeyPrefix(userID))
	if removed > 0 {
		s.logger.Debug("invalidated cached aggregates",
			slog.Int64("user_id", int64(userID)), slog.Int("entries", removed))
	}
	return removed
}

// CacheStats exposes cache counters for the debug endpoint.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}

// listWindowRecords fetches the user's records whose occurred_at falls
// inside the trailing window. The store prefilter compares canonical
// RFC3339 UTC strings; the in-memory local-date filter in Aggregate stays
// the final authority.
func (s *Service) listWindowRecords(ctx context.Context, userID int32, today timezone.CalendarDate, windowDays int, light bool) ([]*store.Record, error) {
	windowStart := today.AddDays(-windowDays + 1)
	gte := timezone.FormatTimestamp(s.dayStart(windowStart))
	lt := timezone.FormatTimestamp(s.dayStart(today.AddDays(1)))

	return s.store.ListRecords(ctx, &store.FindRecord{
		UserID:          &userID,
		OccurredAtGte:   &gte,
		OccurredAtLt:    &lt,
		LightProjection: light,
	})
}

func (s *Service) dayStart(d timezone.CalendarDate) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, s.loc)
}

func (s *Service) buildSummaryPayload(records []*store.Record, windowDays int, today timezone.CalendarDate) *SummaryPayload {
	summary := Aggregate(records, windowDays, today, s.loc)
	if summary.DroppedRecords > 0 {
		s.logger.Warn("dropped records with unparseable timestamps",
			slog.Int("count", summary.DroppedRecords))
	}

	active := ActiveDates(records, s.loc)
	return &SummaryPayload{
		Summary:    summary,
		StreakDays: Streak(active, today),
		Today:      s.todayStats(records, today),
	}
}

// todayStats filters already-fetched records down to local-today.
func (s *Service) todayStats(records []*store.Record, today timezone.CalendarDate) TodayStats {
	var stats TodayStats
	for _, record := range records {
		instant, err := timezone.ParseTimestamp(record.OccurredAt)
		if err != nil {
			continue
		}
		if timezone.ToLocalDate(instant, s.loc) != today {
			continue
		}
		stats.Count++
		if record.DurationMinutes != nil {
			stats.DurationMinutes += int64(*record.DurationMinutes)
		}
	}
	return stats
}

func (s *Service) fetchRecentRecords(ctx context.Context, userID int32, limit int) ([]RecordView, error) {
	records, err := s.store.ListRecords(ctx, &store.FindRecord{
		UserID:                &userID,
		OrderByOccurredAtDesc: true,
		Limit:                 &limit,
	})
	if err != nil {
		return nil, err
	}

	recordIDs := make([]int32, 0, len(records))
	for _, record := range records {
		recordIDs = append(recordIDs, record.ID)
	}
	tagsByRecord, err := s.store.ListRecordTagNames(ctx, recordIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, len(records))
	for _, record := range records {
		var duration int64
		if record.DurationMinutes != nil {
			duration = int64(*record.DurationMinutes)
		}
		tags := tagsByRecord[record.ID]
		if tags == nil {
			tags = []string{}
		}
		views = append(views, RecordView{
			UID:             record.UID,
			Title:           record.Title,
			ActivityType:    record.ActivityType,
			OccurredAt:      record.OccurredAt,
			DurationMinutes: duration,
			Tags:            tags,
		})
	}
	return views, nil
}

func (s *Service) buildDailySeries(records []*store.Record, windowDays int, today timezone.CalendarDate) []DailyStat {
	type dayAccum struct {
		count          int
		duration       int64
		difficultySum  int64
		difficultyN    int64
		focusSum       int64
		focusN         int64
	}
	byDate := make(map[timezone.CalendarDate]*dayAccum)

	windowStart := today.AddDays(-windowDays + 1)
	for _, record := range records {
		instant, err := timezone.ParseTimestamp(record.OccurredAt)
		if err != nil {
			continue
		}
		date := timezone.ToLocalDate(instant, s.loc)
		if date.Before(windowStart) || date.After(today) {
			continue
		}
		accum := byDate[date]
		if accum == nil {
			accum = &dayAccum{}
			byDate[date] = accum
		}
		accum.count++
		if record.DurationMinutes != nil {
			accum.duration += int64(*record.DurationMinutes)
		}
		if record.Difficulty != nil {
			accum.difficultySum += int64(*record.Difficulty)
			accum.difficultyN++
		}
		if record.Focus != nil {
			accum.focusSum += int64(*record.Focus)
			accum.focusN++
		}
	}

	series := make([]DailyStat, 0, windowDays)
	for day := windowStart; !day.After(today); day = day.AddDays(1) {
		stat := DailyStat{Date: day.String()}
		if accum, ok := byDate[day]; ok {
			stat.RecordCount = accum.count
			stat.TotalDurationMinutes = accum.duration
			stat.AvgDifficulty = round1(avg(accum.difficultySum, accum.difficultyN))
			stat.AvgFocus = round1(avg(accum.focusSum, accum.focusN))
		}
		series = append(series, stat)
	}
	return series
}
