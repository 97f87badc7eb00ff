package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studylog/studylog/server/auth"
)

// userIDContextKey is the echo context key holding the authenticated user id.
const userIDContextKey = "studylog-user-id"

// UserIDFromContext returns the authenticated user id set by JWTAuth.
func UserIDFromContext(c echo.Context) (int32, bool) {
	userID, ok := c.Get(userIDContextKey).(int32)
	return userID, ok
}

// JWTAuth validates the Authorization header and stores the user id in
// the request context. Requests without a valid token are rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := auth.FromAuthorizationHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "authentication required",
				})
			}
			claims, err := auth.Parse(token, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "invalid or expired token",
				})
			}
			c.Set(userIDContextKey, claims.UserID)
			return next(c)
		}
	}
}

// SetUserID stores a user id on the context; used by tests and by the dev
// token mint path.
func SetUserID(c echo.Context, userID int32) {
	c.Set(userIDContextKey, userID)
}
