package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/studylog/studylog/store"
)

func (d *DB) UpsertActivityType(ctx context.Context, upsert *store.ActivityType) (*store.ActivityType, error) {
	stmt := `
		INSERT INTO activity_type (user_id, code, label, emoji, display_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, code) DO UPDATE SET
			label = excluded.label,
			emoji = excluded.emoji,
			display_order = excluded.display_order
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.Code, upsert.Label, upsert.Emoji, upsert.DisplayOrder,
	).Scan(&upsert.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert activity type: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListActivityTypes(ctx context.Context, find *store.FindActivityType) ([]*store.ActivityType, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
	}
	if v := find.Code; v != nil {
		where, args = append(where, "code = ?"), append(args, *v)
	}

	query := `
		SELECT id, user_id, code, label, emoji, display_order
		FROM activity_type
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY display_order ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity types: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ActivityType, 0)
	for rows.Next() {
		var activityType store.ActivityType
		if err := rows.Scan(
			&activityType.ID,
			&activityType.UserID,
			&activityType.Code,
			&activityType.Label,
			&activityType.Emoji,
			&activityType.DisplayOrder,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity type: %w", err)
		}
		list = append(list, &activityType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity types: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteActivityType(ctx context.Context, delete *store.DeleteActivityType) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM activity_type WHERE id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete activity type: %w", err)
	}
	return nil
}
