package analytics

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
)

// TypeView is one catalog entry as shown on the dashboard.
type TypeView struct {
	Code         string `json:"code"`
	Label        string `json:"label"`
	Emoji        string `json:"emoji"`
	DisplayOrder int32  `json:"display_order"`
}

// ProfileView is the user profile slice the dashboard needs.
type ProfileView struct {
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

// TagCount is one entry of the top-tags list.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DashboardInit is the composite payload backing the single dashboard
// bootstrap call.
type DashboardInit struct {
	Week          SummaryPayload `json:"week"`
	Month         Summary        `json:"month"`
	Recent        []RecordView   `json:"recent"`
	TopTags       []TagCount     `json:"top_tags"`
	ActivityTypes []TypeView     `json:"activity_types"`
	Profile       ProfileView    `json:"profile"`
}

// GetDashboardInit fans out the dashboard's sub-queries over a bounded
// worker pool and merges the results into one payload.
//
// The week summary, month summary, and recent list are critical: if any of
// them fails the whole call fails. The type catalog and profile degrade to
// defaults instead, so a broken side table never blanks the dashboard.
func (s *Service) GetDashboardInit(ctx context.Context, userID int32) (*DashboardInit, error) {
	key := initKey(userID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*DashboardInit), nil
	}

	today := s.Today()

	var (
		weekRecords  []*store.Record
		monthRecords []*store.Record
		recent       []RecordView
		catalog      []*store.ActivityType
		profile      *store.UserProfile
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.opts.FanOutWorkers)

	group.Go(func() error {
		return s.subQuery(groupCtx, "week_records", func(ctx context.Context) error {
			var err error
			weekRecords, err = s.listWindowRecords(ctx, userID, today, 7, true)
			return err
		})
	})
	group.Go(func() error {
		return s.subQuery(groupCtx, "month_records", func(ctx context.Context) error {
			var err error
			monthRecords, err = s.listWindowRecords(ctx, userID, today, 30, true)
			return err
		})
	})
	group.Go(func() error {
		return s.subQuery(groupCtx, "recent_records", func(ctx context.Context) error {
			var err error
			recent, err = s.fetchRecentRecords(ctx, userID, s.opts.RecentLimit)
			return err
		})
	})
	group.Go(func() error {
		err := s.subQuery(groupCtx, "activity_types", func(ctx context.Context) error {
			var err error
			catalog, err = s.store.ListActivityTypes(ctx, &store.FindActivityType{UserID: &userID})
			return err
		})
		if err != nil {
			s.logger.Warn("activity type catalog unavailable, using empty catalog",
				slog.Int64("user_id", int64(userID)), slog.Any("error", err))
			catalog = nil
		}
		return nil
	})
	group.Go(func() error {
		err := s.subQuery(groupCtx, "user_profile", func(ctx context.Context) error {
			var err error
			profile, err = s.store.GetUserProfile(ctx, userID)
			return err
		})
		if err != nil {
			s.logger.Warn("user profile unavailable, using default profile",
				slog.Int64("user_id", int64(userID)), slog.Any("error", err))
			profile = nil
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeAggregationUnavailable, "dashboard aggregation failed")
	}

	payload := s.mergeDashboard(weekRecords, monthRecords, recent, catalog, profile, today)
	s.cache.Set(key, payload, s.opts.InitTTL)
	return payload, nil
}

// subQuery runs one fan-out leg under its own deadline so a single stuck
// query cannot hold the composite open.
func (s *Service) subQuery(ctx context.Context, kind string, fn func(ctx context.Context) error) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.SubQueryTimeout)
	defer cancel()

	start := time.Now()
	err := fn(queryCtx)
	if err != nil {
		if queryCtx.Err() == context.DeadlineExceeded {
			err = apierrors.Wrap(err, apierrors.ErrCodeTimeout, "sub-query "+kind+" timed out")
		}
		s.logger.Debug("dashboard sub-query failed",
			slog.String("query_kind", kind),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (s *Service) mergeDashboard(
	weekRecords, monthRecords []*store.Record,
	recent []RecordView,
	catalog []*store.ActivityType,
	profile *store.UserProfile,
	today timezone.CalendarDate,
) *DashboardInit {
	week := Aggregate(weekRecords, 7, today, s.loc)
	month := Aggregate(monthRecords, 30, today, s.loc)
	if dropped := week.DroppedRecords + month.DroppedRecords; dropped > 0 {
		s.logger.Warn("dropped records with unparseable timestamps",
			slog.Int("count", dropped))
	}

	payload := &DashboardInit{
		Week: SummaryPayload{
			Summary:    week,
			StreakDays: Streak(ActiveDates(weekRecords, s.loc), today),
			// Today's stats come from the recent list rather than a
			// dedicated query. With a default page size this misses
			// today's records only past the first page.
			Today: s.todayStatsFromViews(recent, today),
		},
		Month:         month,
		Recent:        recent,
		TopTags:       topTags(recent, 5),
		ActivityTypes: make([]TypeView, 0, len(catalog)),
		Profile:       ProfileView{DisplayName: "Learner", Timezone: s.loc.String()},
	}

	for _, entry := range catalog {
		payload.ActivityTypes = append(payload.ActivityTypes, TypeView{
			Code:         entry.Code,
			Label:        entry.Label,
			Emoji:        entry.Emoji,
			DisplayOrder: entry.DisplayOrder,
		})
	}
	if profile != nil {
		payload.Profile.DisplayName = profile.DisplayName
		if profile.Timezone != "" {
			payload.Profile.Timezone = profile.Timezone
		}
	}
	return payload
}

func (s *Service) todayStatsFromViews(views []RecordView, today timezone.CalendarDate) TodayStats {
	var stats TodayStats
	for _, view := range views {
		instant, err := timezone.ParseTimestamp(view.OccurredAt)
		if err != nil {
			continue
		}
		if timezone.ToLocalDate(instant, s.loc) != today {
			continue
		}
		stats.Count++
		stats.DurationMinutes += view.DurationMinutes
	}
	return stats
}

// topTags counts tag occurrences across the recent list, ties broken by
// tag name for a stable order.
func topTags(views []RecordView, limit int) []TagCount {
	counts := make(map[string]int)
	for _, view := range views {
		for _, tag := range view.Tags {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
