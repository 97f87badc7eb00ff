package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studylog/studylog/internal/profile"
	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/middleware"
	"github.com/studylog/studylog/server/service/analytics"
	"github.com/studylog/studylog/store"
)

// APIV1Service wires the HTTP surface to the store and analytics service.
type APIV1Service struct {
	Secret    string
	Profile   *profile.Profile
	Store     *store.Store
	Analytics *analytics.Service
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, analytics *analytics.Service) *APIV1Service {
	return &APIV1Service{
		Secret:    secret,
		Profile:   profile,
		Store:     store,
		Analytics: analytics,
	}
}

// Register mounts all /api/v1 routes on the echo instance. Every route
// except the dev token mint requires a valid bearer token.
func (s *APIV1Service) Register(echoServer *echo.Echo, rateLimiter *middleware.RateLimiter) {
	if s.Profile.IsDev() {
		echoServer.POST("/api/v1/auth/dev-token", s.MintDevToken)
	}

	group := echoServer.Group("/api/v1",
		middleware.JWTAuth(s.Secret),
		rateLimiter.Middleware(),
	)

	group.GET("/summaries/dashboard", s.GetDashboardSummary)
	group.GET("/summaries/recent", s.GetRecentRecords)
	group.GET("/summaries/daily", s.GetDailyStats)
	group.GET("/dashboard/init", s.GetDashboardInit)
	group.POST("/summaries/invalidate-cache", s.InvalidateCache)
	group.GET("/summaries/cache-stats", s.GetCacheStats)

	group.POST("/records", s.CreateRecord)
	group.GET("/records", s.ListRecords)
	group.GET("/records/:uid", s.GetRecord)
	group.PATCH("/records/:uid", s.UpdateRecord)
	group.DELETE("/records/:uid", s.DeleteRecord)

	group.GET("/activity-types", s.ListActivityTypes)
	group.POST("/activity-types", s.UpsertActivityType)
	group.DELETE("/activity-types/:id", s.DeleteActivityType)

	group.GET("/user/profile", s.GetUserProfile)
	group.PATCH("/user/profile", s.UpdateUserProfile)
}

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// jsonError maps an internal error code onto an HTTP status.
func jsonError(c echo.Context, err error) error {
	code := apierrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apierrors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apierrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case apierrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apierrors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	case apierrors.ErrCodeAggregationUnavailable:
		status = http.StatusServiceUnavailable
	case apierrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	return c.JSON(status, errorResponse{Code: string(code), Message: err.Error()})
}

func currentUserID(c echo.Context) (int32, error) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return 0, apierrors.New(apierrors.ErrCodeUnauthorized, "authentication required")
	}
	return userID, nil
}
