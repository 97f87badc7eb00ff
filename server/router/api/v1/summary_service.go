package v1

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/service/analytics"
)

const (
	maxWindowDays  = 365
	maxRecentLimit = 100
)

// TypeStatResponse augments a per-type bucket with its share of the window.
type TypeStatResponse struct {
	Count                int     `json:"count"`
	TotalDurationMinutes int64   `json:"total_duration_minutes"`
	Percentage           float64 `json:"percentage"`
}

// SummaryResponse is the single-window dashboard summary.
type SummaryResponse struct {
	PeriodDays           int                         `json:"period_days"`
	TotalRecords         int                         `json:"total_records"`
	TotalDurationMinutes int64                       `json:"total_duration_minutes"`
	ActiveDayCount       int                         `json:"active_day_count"`
	AvgDifficulty        float64                     `json:"avg_difficulty"`
	AvgFocus             float64                     `json:"avg_focus"`
	StreakDays           int                         `json:"streak_days"`
	Today                analytics.TodayStats        `json:"today"`
	TypeDistribution     map[string]TypeStatResponse `json:"type_distribution"`
}

// GetDashboardSummary returns the aggregate over a trailing window.
// GET /api/v1/summaries/dashboard?days=7
func (s *APIV1Service) GetDashboardSummary(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}
	days, err := parseWindowDays(c.QueryParam("days"), 7)
	if err != nil {
		return jsonError(c, err)
	}

	payload, err := s.Analytics.GetSummary(c.Request().Context(), userID, days)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, toSummaryResponse(payload))
}

// GetRecentRecords returns the latest records with resolved tags.
// GET /api/v1/summaries/recent?limit=10
func (s *APIV1Service) GetRecentRecords(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxRecentLimit {
			return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "limit must be between 1 and 100"))
		}
	}

	views, err := s.Analytics.GetRecentRecords(c.Request().Context(), userID, limit)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"records": views})
}

// GetDailyStats returns the dense per-date series for charting.
// GET /api/v1/summaries/daily?days=30
func (s *APIV1Service) GetDailyStats(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}
	days, err := parseWindowDays(c.QueryParam("days"), 30)
	if err != nil {
		return jsonError(c, err)
	}

	series, err := s.Analytics.GetDailyStats(c.Request().Context(), userID, days)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"days": series})
}

// GetDashboardInit returns the composite payload for dashboard bootstrap.
// GET /api/v1/dashboard/init
func (s *APIV1Service) GetDashboardInit(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	payload, err := s.Analytics.GetDashboardInit(c.Request().Context(), userID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

// InvalidateCache drops every cached aggregate for the calling user.
// POST /api/v1/summaries/invalidate-cache
func (s *APIV1Service) InvalidateCache(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}
	removed := s.Analytics.InvalidateUser(userID)
	return c.JSON(http.StatusOK, map[string]int{"invalidated_entries": removed})
}

// GetCacheStats exposes cache counters for debugging.
// GET /api/v1/summaries/cache-stats
func (s *APIV1Service) GetCacheStats(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(http.StatusOK, s.Analytics.CacheStats())
}

func parseWindowDays(raw string, defaultDays int) (int, error) {
	if raw == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > maxWindowDays {
		return 0, apierrors.New(apierrors.ErrCodeInvalidArgument, "days must be between 1 and 365")
	}
	return days, nil
}

func toSummaryResponse(payload *analytics.SummaryPayload) SummaryResponse {
	response := SummaryResponse{
		PeriodDays:           payload.PeriodDays,
		TotalRecords:         payload.TotalRecords,
		TotalDurationMinutes: payload.TotalDurationMinutes,
		ActiveDayCount:       payload.ActiveDayCount,
		AvgDifficulty:        payload.AvgDifficulty,
		AvgFocus:             payload.AvgFocus,
		StreakDays:           payload.StreakDays,
		Today:                payload.Today,
		TypeDistribution:     make(map[string]TypeStatResponse, len(payload.TypeDistribution)),
	}
	for code, stat := range payload.TypeDistribution {
		// Share of time spent, not of record count.
		percentage := 0.0
		if payload.TotalDurationMinutes > 0 {
			percentage = math.Round(float64(stat.TotalDurationMinutes)/float64(payload.TotalDurationMinutes)*1000) / 10
		}
		response.TypeDistribution[code] = TypeStatResponse{
			Count:                stat.Count,
			TotalDurationMinutes: stat.TotalDurationMinutes,
			Percentage:           percentage,
		}
	}
	return response
}
