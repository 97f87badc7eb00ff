package store

import (
	"context"
)

// Record is the object representing one logged learning activity.
//
// OccurredAt is stored as RFC3339 UTC text; the write path canonicalizes
// whatever ISO-8601 form the client submitted, so lexicographic range
// filters on the column are chronologically exact. Imported rows may still
// carry other forms: the analytics layer re-parses on read and skips a
// record whose timestamp cannot be parsed, never dropping it from storage.
type Record struct {
	ID        int32
	UID       string
	UserID    int32
	CreatedTs int64
	UpdatedTs int64

	Title           string
	ActivityType    string
	OccurredAt      string
	DurationMinutes *int32
	Difficulty      *int32
	Focus           *int32
	Energy          *int32
	Note            string

	// Tags holds tag names. Populated on create and, when requested,
	// on list via batched tag resolution.
	Tags []string
}

// FindRecord is the find condition for record.
type FindRecord struct {
	ID     *int32
	UID    *string
	UserID *int32

	// Instant range filter on occurred_at (RFC3339 UTC strings, gte/lt).
	OccurredAtGte *string
	OccurredAtLt  *string

	// OrderByOccurredAtDesc orders most recent first; used by the
	// recent-activity sub-query.
	OrderByOccurredAtDesc bool

	// LightProjection skips the note column; aggregation only needs
	// occurred_at, duration and ratings.
	LightProjection bool

	Limit  *int
	Offset *int
}

// UpdateRecord is the update request for record.
type UpdateRecord struct {
	ID        int32
	UpdatedTs *int64

	Title           *string
	ActivityType    *string
	OccurredAt      *string
	DurationMinutes *int32
	Difficulty      *int32
	Focus           *int32
	Energy          *int32
	Note            *string
}

// DeleteRecord is the delete request for record.
type DeleteRecord struct {
	ID int32
}

// CreateRecord creates a new record with its tag associations.
func (s *Store) CreateRecord(ctx context.Context, create *Record) (*Record, error) {
	return s.driver.CreateRecord(ctx, create)
}

// ListRecords lists records with filter.
func (s *Store) ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error) {
	return s.driver.ListRecords(ctx, find)
}

// GetRecord gets a single record, or nil when not found.
func (s *Store) GetRecord(ctx context.Context, find *FindRecord) (*Record, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListRecords(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateRecord updates a record.
func (s *Store) UpdateRecord(ctx context.Context, update *UpdateRecord) error {
	return s.driver.UpdateRecord(ctx, update)
}

// DeleteRecord deletes a record and its tag associations.
func (s *Store) DeleteRecord(ctx context.Context, delete *DeleteRecord) error {
	return s.driver.DeleteRecord(ctx, delete)
}

// ListRecordTagNames resolves tag names for a batch of records in one query.
func (s *Store) ListRecordTagNames(ctx context.Context, recordIDs []int32) (map[int32][]string, error) {
	if len(recordIDs) == 0 {
		return map[int32][]string{}, nil
	}
	return s.driver.ListRecordTagNames(ctx, recordIDs)
}
