package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/studylog/studylog/server/auth"
)

const testSecret = "test-secret"

func newAuthTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		userID, ok := UserIDFromContext(c)
		require.True(t, ok)
		return c.JSON(http.StatusOK, map[string]int32{"user_id": userID})
	}, JWTAuth(testSecret))
	return e
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	e := newAuthTestServer(t)
	token, err := auth.GenerateAccessToken(7, testSecret)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"user_id":7`)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	e := newAuthTestServer(t)

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	e := newAuthTestServer(t)

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set(echo.HeaderAuthorization, "Bearer not.a.token")
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestJWTAuthRejectsTokenSignedWithOtherSecret(t *testing.T) {
	e := newAuthTestServer(t)
	token, err := auth.GenerateAccessToken(7, "other-secret")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}
