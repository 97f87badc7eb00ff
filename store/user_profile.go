package store

import (
	"context"
)

// UserProfile is the object representing a user's profile metadata.
type UserProfile struct {
	UserID      int32
	CreatedTs   int64
	UpdatedTs   int64
	DisplayName string
	// Timezone is the user's preferred IANA zone. Stored for a future
	// per-user bucketing mode; the engine uses the process zone today.
	Timezone string
}

// UpsertUserProfile creates or updates a user profile.
func (s *Store) UpsertUserProfile(ctx context.Context, upsert *UserProfile) (*UserProfile, error) {
	return s.driver.UpsertUserProfile(ctx, upsert)
}

// GetUserProfile returns the user's profile, or a default profile when the
// user has never saved one.
func (s *Store) GetUserProfile(ctx context.Context, userID int32) (*UserProfile, error) {
	found, err := s.driver.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return &UserProfile{UserID: userID, DisplayName: "Learner"}, nil
	}
	return found, nil
}
