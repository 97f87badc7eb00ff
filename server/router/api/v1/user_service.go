package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studylog/studylog/server/auth"
	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
)

// UserProfileResponse is the user profile representation.
type UserProfileResponse struct {
	UserID      int32  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`
}

// UpdateUserProfileRequest is the body for profile updates; nil fields are
// left unchanged.
type UpdateUserProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Timezone    *string `json:"timezone"`
}

// MintDevTokenRequest asks for a token for the given user.
type MintDevTokenRequest struct {
	UserID int32 `json:"user_id"`
}

// GetUserProfile returns the caller's profile, defaults when none is stored.
// GET /api/v1/user/profile
func (s *APIV1Service) GetUserProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	userProfile, err := s.Store.GetUserProfile(c.Request().Context(), userID)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to load user profile"))
	}
	return c.JSON(http.StatusOK, toUserProfileResponse(userProfile))
}

// UpdateUserProfile updates display name and preferred timezone.
// PATCH /api/v1/user/profile
func (s *APIV1Service) UpdateUserProfile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	var request UpdateUserProfileRequest
	if err := c.Bind(&request); err != nil {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "malformed request body"))
	}
	if request.Timezone != nil && !timezone.IsValidTimezone(*request.Timezone) {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "unknown timezone"))
	}

	current, err := s.Store.GetUserProfile(c.Request().Context(), userID)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to load user profile"))
	}
	if request.DisplayName != nil {
		current.DisplayName = *request.DisplayName
	}
	if request.Timezone != nil {
		current.Timezone = *request.Timezone
	}
	current.UserID = userID
	current.UpdatedTs = time.Now().Unix()

	updated, err := s.Store.UpsertUserProfile(c.Request().Context(), current)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to update user profile"))
	}

	// Profile feeds the composite dashboard payload.
	s.Analytics.InvalidateUser(userID)
	return c.JSON(http.StatusOK, toUserProfileResponse(updated))
}

// MintDevToken issues a bearer token without credentials. Registered only
// outside prod mode.
// POST /api/v1/auth/dev-token
func (s *APIV1Service) MintDevToken(c echo.Context) error {
	var request MintDevTokenRequest
	if err := c.Bind(&request); err != nil || request.UserID <= 0 {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "user_id must be positive"))
	}

	token, err := auth.GenerateAccessToken(request.UserID, s.Secret)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to mint token"))
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}

func toUserProfileResponse(userProfile *store.UserProfile) UserProfileResponse {
	return UserProfileResponse{
		UserID:      userProfile.UserID,
		DisplayName: userProfile.DisplayName,
		Timezone:    userProfile.Timezone,
	}
}
