package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/store"
)

// ActivityTypeRequest is the body for catalog upserts, keyed by code.
type ActivityTypeRequest struct {
	Code         string `json:"code"`
	Label        string `json:"label"`
	Emoji        string `json:"emoji"`
	DisplayOrder int32  `json:"display_order"`
}

// ActivityTypeResponse is one catalog entry.
type ActivityTypeResponse struct {
	ID           int32  `json:"id"`
	Code         string `json:"code"`
	Label        string `json:"label"`
	Emoji        string `json:"emoji"`
	DisplayOrder int32  `json:"display_order"`
}

// ListActivityTypes returns the user's catalog, seeding the defaults on
// first read.
// GET /api/v1/activity-types
func (s *APIV1Service) ListActivityTypes(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	entries, err := s.Store.ListActivityTypes(c.Request().Context(), &store.FindActivityType{UserID: &userID})
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to list activity types"))
	}

	responses := make([]ActivityTypeResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, toActivityTypeResponse(entry))
	}
	return c.JSON(http.StatusOK, map[string]any{"activity_types": responses})
}

// UpsertActivityType creates or updates a catalog entry.
// POST /api/v1/activity-types
func (s *APIV1Service) UpsertActivityType(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	var request ActivityTypeRequest
	if err := c.Bind(&request); err != nil {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "malformed request body"))
	}
	if request.Code == "" || request.Label == "" {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "code and label must not be empty"))
	}

	entry, err := s.Store.UpsertActivityType(c.Request().Context(), &store.ActivityType{
		UserID:       userID,
		Code:         request.Code,
		Label:        request.Label,
		Emoji:        request.Emoji,
		DisplayOrder: request.DisplayOrder,
	})
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to upsert activity type"))
	}

	// The catalog feeds the composite dashboard payload.
	s.Analytics.InvalidateUser(userID)
	return c.JSON(http.StatusOK, toActivityTypeResponse(entry))
}

// DeleteActivityType removes a catalog entry. Existing records keep their
// type code; aggregation treats the code as data.
// DELETE /api/v1/activity-types/:id
func (s *APIV1Service) DeleteActivityType(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "invalid activity type id"))
	}

	typeID := int32(id)
	entries, err := s.Store.ListActivityTypes(c.Request().Context(), &store.FindActivityType{ID: &typeID, UserID: &userID})
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to load activity type"))
	}
	if len(entries) == 0 {
		return jsonError(c, apierrors.New(apierrors.ErrCodeNotFound, "activity type not found"))
	}

	if err := s.Store.DeleteActivityType(c.Request().Context(), &store.DeleteActivityType{ID: typeID}); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to delete activity type"))
	}

	s.Analytics.InvalidateUser(userID)
	return c.NoContent(http.StatusNoContent)
}

func toActivityTypeResponse(entry *store.ActivityType) ActivityTypeResponse {
	return ActivityTypeResponse{
		ID:           entry.ID,
		Code:         entry.Code,
		Label:        entry.Label,
		Emoji:        entry.Emoji,
		DisplayOrder: entry.DisplayOrder,
	}
}
