package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/service/analytics"
)

func TestParseWindowDays(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "empty uses default", raw: "", want: 7},
		{name: "valid value", raw: "30", want: 30},
		{name: "minimum", raw: "1", want: 1},
		{name: "maximum", raw: "365", want: 365},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-7", wantErr: true},
		{name: "too large", raw: "366", wantErr: true},
		{name: "not a number", raw: "week", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := parseWindowDays(tt.raw, 7)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, apierrors.ErrCodeInvalidArgument, apierrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, days)
		})
	}
}

func TestToSummaryResponsePercentages(t *testing.T) {
	payload := &analytics.SummaryPayload{
		Summary: analytics.Summary{
			PeriodDays:           7,
			TotalRecords:         3,
			TotalDurationMinutes: 105,
			TypeDistribution: map[string]analytics.TypeStat{
				"video": {Count: 2, TotalDurationMinutes: 60},
				"book":  {Count: 1, TotalDurationMinutes: 45},
			},
		},
		StreakDays: 2,
	}

	// Percentages reflect time spent: 60/105 and 45/105.
	response := toSummaryResponse(payload)
	require.Equal(t, 57.1, response.TypeDistribution["video"].Percentage)
	require.Equal(t, 42.9, response.TypeDistribution["book"].Percentage)
	require.Equal(t, 2, response.StreakDays)
}

func TestToSummaryResponseZeroDuration(t *testing.T) {
	payload := &analytics.SummaryPayload{
		Summary: analytics.Summary{
			PeriodDays:   7,
			TotalRecords: 2,
			TypeDistribution: map[string]analytics.TypeStat{
				"video": {Count: 2},
			},
		},
	}

	response := toSummaryResponse(payload)
	require.Zero(t, response.TypeDistribution["video"].Percentage)
}

func TestToSummaryResponseEmptyWindow(t *testing.T) {
	payload := &analytics.SummaryPayload{
		Summary: analytics.Summary{
			PeriodDays:       7,
			TypeDistribution: map[string]analytics.TypeStat{},
		},
	}

	response := toSummaryResponse(payload)
	require.Empty(t, response.TypeDistribution)
	require.Zero(t, response.TotalRecords)
}

func TestJSONErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code   apierrors.ErrorCode
		status int
	}{
		{apierrors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{apierrors.ErrCodeInvalidArgument, http.StatusBadRequest},
		{apierrors.ErrCodeNotFound, http.StatusNotFound},
		{apierrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{apierrors.ErrCodeAggregationUnavailable, http.StatusServiceUnavailable},
		{apierrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{apierrors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			e := echo.New()
			recorder := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), recorder)

			err := jsonError(c, apierrors.New(tt.code, "boom"))
			require.NoError(t, err)
			require.Equal(t, tt.status, recorder.Code)
			require.Contains(t, recorder.Body.String(), string(tt.code))
		})
	}
}
