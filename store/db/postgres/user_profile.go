package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/studylog/studylog/store"
)

func (d *DB) UpsertUserProfile(ctx context.Context, upsert *store.UserProfile) (*store.UserProfile, error) {
	stmt := `
		INSERT INTO user_profile (user_id, display_name, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			timezone = EXCLUDED.timezone,
			updated_ts = EXTRACT(EPOCH FROM NOW())
		RETURNING created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.DisplayName, upsert.Timezone,
	).Scan(&upsert.CreatedTs, &upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetUserProfile(ctx context.Context, userID int32) (*store.UserProfile, error) {
	var userProfile store.UserProfile
	err := d.db.QueryRowContext(ctx, `
		SELECT user_id, created_ts, updated_ts, display_name, timezone
		FROM user_profile
		WHERE user_id = $1`, userID,
	).Scan(
		&userProfile.UserID,
		&userProfile.CreatedTs,
		&userProfile.UpdatedTs,
		&userProfile.DisplayName,
		&userProfile.Timezone,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &userProfile, nil
}
