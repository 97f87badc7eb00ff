package store

import (
	"context"
)

// ActivityType is one entry of a user's activity-type catalog.
//
// The type set is open: each user starts from the default catalog and can
// define custom types, so the code is data, not an enumeration.
type ActivityType struct {
	ID           int32
	UserID       int32
	Code         string
	Label        string
	Emoji        string
	DisplayOrder int32
}

// FindActivityType is the find condition for activity type.
type FindActivityType struct {
	ID     *int32
	UserID *int32
	Code   *string
}

// DeleteActivityType is the delete request for activity type.
type DeleteActivityType struct {
	ID int32
}

// defaultActivityTypes seeds a user's catalog on first read.
var defaultActivityTypes = []*ActivityType{
	{Code: "video", Label: "Video", Emoji: "🎬", DisplayOrder: 1},
	{Code: "book", Label: "Book", Emoji: "📖", DisplayOrder: 2},
	{Code: "course", Label: "Course", Emoji: "🎓", DisplayOrder: 3},
	{Code: "podcast", Label: "Podcast", Emoji: "🎤", DisplayOrder: 4},
	{Code: "article", Label: "Article", Emoji: "📝", DisplayOrder: 5},
	{Code: "exercise", Label: "Exercise", Emoji: "✏️", DisplayOrder: 6},
	{Code: "project", Label: "Project", Emoji: "🔧", DisplayOrder: 7},
	{Code: "other", Label: "Other", Emoji: "📌", DisplayOrder: 8},
}

// UpsertActivityType creates or updates a catalog entry keyed by (user, code).
func (s *Store) UpsertActivityType(ctx context.Context, upsert *ActivityType) (*ActivityType, error) {
	return s.driver.UpsertActivityType(ctx, upsert)
}

// ListActivityTypes lists a user's catalog, seeding the defaults when the
// user has none yet.
func (s *Store) ListActivityTypes(ctx context.Context, find *FindActivityType) ([]*ActivityType, error) {
	list, err := s.driver.ListActivityTypes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 || find.UserID == nil || find.ID != nil || find.Code != nil {
		return list, nil
	}

	for _, def := range defaultActivityTypes {
		seed := *def
		seed.UserID = *find.UserID
		if _, err := s.driver.UpsertActivityType(ctx, &seed); err != nil {
			return nil, err
		}
	}
	return s.driver.ListActivityTypes(ctx, find)
}

// DeleteActivityType deletes a catalog entry.
func (s *Store) DeleteActivityType(ctx context.Context, delete *DeleteActivityType) error {
	return s.driver.DeleteActivityType(ctx, delete)
}
