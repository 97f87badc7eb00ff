package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/studylog/studylog/server/auth"
)

func TestRequestLoggingCapturesAuthenticatedUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	// Mirrors the server assembly: logging is global, auth is route-level.
	e := echo.New()
	e.Use(RequestLogging(logger))
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWTAuth(testSecret))

	token, err := auth.GenerateAccessToken(42, testSecret)
	require.NoError(t, err)
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, buf.String(), "request completed")
	require.Contains(t, buf.String(), `"user_id":42`)
}

func TestRequestLoggingUnauthenticatedRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(RequestLogging(logger))
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, JWTAuth(testSecret))

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.Contains(t, buf.String(), `"user_id":0`)
	require.Contains(t, buf.String(), `"status":401`)
}
