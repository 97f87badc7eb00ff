package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Record model related methods.
	CreateRecord(ctx context.Context, create *Record) (*Record, error)
	ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error)
	UpdateRecord(ctx context.Context, update *UpdateRecord) error
	DeleteRecord(ctx context.Context, delete *DeleteRecord) error

	// ListRecordTagNames resolves tag names for a batch of records in a
	// single query (no per-record lookups).
	ListRecordTagNames(ctx context.Context, recordIDs []int32) (map[int32][]string, error)

	// ActivityType model related methods.
	UpsertActivityType(ctx context.Context, upsert *ActivityType) (*ActivityType, error)
	ListActivityTypes(ctx context.Context, find *FindActivityType) ([]*ActivityType, error)
	DeleteActivityType(ctx context.Context, delete *DeleteActivityType) error

	// UserProfile model related methods.
	UpsertUserProfile(ctx context.Context, upsert *UserProfile) (*UserProfile, error)
	GetUserProfile(ctx context.Context, userID int32) (*UserProfile, error)
}
