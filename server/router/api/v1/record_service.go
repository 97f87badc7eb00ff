package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	apierrors "github.com/studylog/studylog/server/internal/errors"
	"github.com/studylog/studylog/server/timezone"
	"github.com/studylog/studylog/store"
)

// CreateRecordRequest is the body for record creation.
type CreateRecordRequest struct {
	Title           string   `json:"title"`
	ActivityType    string   `json:"activity_type"`
	OccurredAt      string   `json:"occurred_at"`
	DurationMinutes *int32   `json:"duration_minutes"`
	Difficulty      *int32   `json:"difficulty"`
	Focus           *int32   `json:"focus"`
	Energy          *int32   `json:"energy"`
	Note            string   `json:"note"`
	Tags            []string `json:"tags"`
}

// UpdateRecordRequest is the body for record update; nil fields are left
// unchanged. Tags are fixed at creation.
type UpdateRecordRequest struct {
	Title           *string `json:"title"`
	ActivityType    *string `json:"activity_type"`
	OccurredAt      *string `json:"occurred_at"`
	DurationMinutes *int32  `json:"duration_minutes"`
	Difficulty      *int32  `json:"difficulty"`
	Focus           *int32  `json:"focus"`
	Energy          *int32  `json:"energy"`
	Note            *string `json:"note"`
}

// RecordResponse is the full record representation.
type RecordResponse struct {
	UID             string   `json:"uid"`
	Title           string   `json:"title"`
	ActivityType    string   `json:"activity_type"`
	OccurredAt      string   `json:"occurred_at"`
	DurationMinutes *int32   `json:"duration_minutes"`
	Difficulty      *int32   `json:"difficulty"`
	Focus           *int32   `json:"focus"`
	Energy          *int32   `json:"energy"`
	Note            string   `json:"note"`
	Tags            []string `json:"tags"`
	CreatedTs       int64    `json:"created_ts"`
	UpdatedTs       int64    `json:"updated_ts"`
}

// CreateRecord stores a new activity record and busts the user's cached
// aggregates.
// POST /api/v1/records
func (s *APIV1Service) CreateRecord(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	var request CreateRecordRequest
	if err := c.Bind(&request); err != nil {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "malformed request body"))
	}
	if err := validateRecordFields(request.Title, request.ActivityType,
		request.Difficulty, request.Focus, request.Energy); err != nil {
		return jsonError(c, err)
	}
	occurredAt, err := normalizeOccurredAt(request.OccurredAt)
	if err != nil {
		return jsonError(c, err)
	}

	now := time.Now().Unix()
	record, err := s.Store.CreateRecord(c.Request().Context(), &store.Record{
		UID:             shortuuid.New(),
		UserID:          userID,
		CreatedTs:       now,
		UpdatedTs:       now,
		Title:           request.Title,
		ActivityType:    request.ActivityType,
		OccurredAt:      occurredAt,
		DurationMinutes: request.DurationMinutes,
		Difficulty:      request.Difficulty,
		Focus:           request.Focus,
		Energy:          request.Energy,
		Note:            request.Note,
		Tags:            request.Tags,
	})
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to create record"))
	}

	s.Analytics.InvalidateUser(userID)
	return c.JSON(http.StatusCreated, toRecordResponse(record))
}

// ListRecords lists the user's records, most recent first.
// GET /api/v1/records?limit=20&offset=0
func (s *APIV1Service) ListRecords(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	find := &store.FindRecord{
		UserID:                &userID,
		OrderByOccurredAtDesc: true,
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxRecentLimit {
			return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "limit must be between 1 and 100"))
		}
		find.Limit = &limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "offset must be non-negative"))
		}
		find.Offset = &offset
	}

	records, err := s.Store.ListRecords(c.Request().Context(), find)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to list records"))
	}

	recordIDs := make([]int32, 0, len(records))
	for _, record := range records {
		recordIDs = append(recordIDs, record.ID)
	}
	tagsByRecord, err := s.Store.ListRecordTagNames(c.Request().Context(), recordIDs)
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to resolve tags"))
	}

	responses := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		record.Tags = tagsByRecord[record.ID]
		responses = append(responses, toRecordResponse(record))
	}
	return c.JSON(http.StatusOK, map[string]any{"records": responses})
}

// GetRecord returns one record by uid.
// GET /api/v1/records/:uid
func (s *APIV1Service) GetRecord(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	record, err := s.findOwnedRecord(c, userID)
	if err != nil {
		return jsonError(c, err)
	}

	tagsByRecord, err := s.Store.ListRecordTagNames(c.Request().Context(), []int32{record.ID})
	if err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to resolve tags"))
	}
	record.Tags = tagsByRecord[record.ID]
	return c.JSON(http.StatusOK, toRecordResponse(record))
}

// UpdateRecord applies a partial update and busts the user's cached
// aggregates.
// PATCH /api/v1/records/:uid
func (s *APIV1Service) UpdateRecord(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	record, err := s.findOwnedRecord(c, userID)
	if err != nil {
		return jsonError(c, err)
	}

	var request UpdateRecordRequest
	if err := c.Bind(&request); err != nil {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "malformed request body"))
	}
	if request.Title != nil && *request.Title == "" {
		return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "title must not be empty"))
	}
	if request.OccurredAt != nil {
		normalized, err := normalizeOccurredAt(*request.OccurredAt)
		if err != nil {
			return jsonError(c, err)
		}
		request.OccurredAt = &normalized
	}
	for _, rating := range []*int32{request.Difficulty, request.Focus, request.Energy} {
		if rating != nil && (*rating < 1 || *rating > 5) {
			return jsonError(c, apierrors.New(apierrors.ErrCodeInvalidArgument, "ratings must be between 1 and 5"))
		}
	}

	updatedTs := time.Now().Unix()
	update := &store.UpdateRecord{
		ID:              record.ID,
		UpdatedTs:       &updatedTs,
		Title:           request.Title,
		ActivityType:    request.ActivityType,
		OccurredAt:      request.OccurredAt,
		DurationMinutes: request.DurationMinutes,
		Difficulty:      request.Difficulty,
		Focus:           request.Focus,
		Energy:          request.Energy,
		Note:            request.Note,
	}
	if err := s.Store.UpdateRecord(c.Request().Context(), update); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to update record"))
	}

	s.Analytics.InvalidateUser(userID)

	updated, err := s.Store.GetRecord(c.Request().Context(), &store.FindRecord{ID: &record.ID})
	if err != nil || updated == nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to reload record"))
	}
	return c.JSON(http.StatusOK, toRecordResponse(updated))
}

// DeleteRecord removes a record and busts the user's cached aggregates.
// DELETE /api/v1/records/:uid
func (s *APIV1Service) DeleteRecord(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return jsonError(c, err)
	}

	record, err := s.findOwnedRecord(c, userID)
	if err != nil {
		return jsonError(c, err)
	}
	if err := s.Store.DeleteRecord(c.Request().Context(), &store.DeleteRecord{ID: record.ID}); err != nil {
		return jsonError(c, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to delete record"))
	}

	s.Analytics.InvalidateUser(userID)
	return c.NoContent(http.StatusNoContent)
}

// findOwnedRecord loads the :uid record and enforces ownership.
func (s *APIV1Service) findOwnedRecord(c echo.Context, userID int32) (*store.Record, error) {
	uid := c.Param("uid")
	if uid == "" {
		return nil, apierrors.New(apierrors.ErrCodeInvalidArgument, "record uid is required")
	}
	record, err := s.Store.GetRecord(c.Request().Context(), &store.FindRecord{UID: &uid, UserID: &userID})
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to load record")
	}
	if record == nil {
		return nil, apierrors.New(apierrors.ErrCodeNotFound, "record not found")
	}
	return record, nil
}

// normalizeOccurredAt canonicalizes a client timestamp to RFC3339 UTC.
// Stored values must share one fixed-width form so the store's lexicographic
// occurred_at range filter is also a correct chronological filter; clients
// may still send any form ParseTimestamp accepts.
func normalizeOccurredAt(raw string) (string, error) {
	instant, err := timezone.ParseTimestamp(raw)
	if err != nil {
		return "", apierrors.New(apierrors.ErrCodeInvalidArgument, "occurred_at is not a recognized timestamp")
	}
	return timezone.FormatTimestamp(instant), nil
}

func validateRecordFields(title, activityType string, ratings ...*int32) error {
	if title == "" {
		return apierrors.New(apierrors.ErrCodeInvalidArgument, "title must not be empty")
	}
	if activityType == "" {
		return apierrors.New(apierrors.ErrCodeInvalidArgument, "activity_type must not be empty")
	}
	for _, rating := range ratings {
		if rating != nil && (*rating < 1 || *rating > 5) {
			return apierrors.New(apierrors.ErrCodeInvalidArgument, "ratings must be between 1 and 5")
		}
	}
	return nil
}

func toRecordResponse(record *store.Record) RecordResponse {
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}
	return RecordResponse{
		UID:             record.UID,
		Title:           record.Title,
		ActivityType:    record.ActivityType,
		OccurredAt:      record.OccurredAt,
		DurationMinutes: record.DurationMinutes,
		Difficulty:      record.Difficulty,
		Focus:           record.Focus,
		Energy:          record.Energy,
		Note:            record.Note,
		Tags:            tags,
		CreatedTs:       record.CreatedTs,
		UpdatedTs:       record.UpdatedTs,
	}
}
