package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/studylog/studylog/store"
)

func (d *DB) CreateRecord(ctx context.Context, create *store.Record) (*store.Record, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	fields := []string{"uid", "user_id", "title", "activity_type", "occurred_at", "duration_minutes", "difficulty", "focus", "energy", "note"}
	args := []any{
		create.UID, create.UserID, create.Title, create.ActivityType, create.OccurredAt,
		create.DurationMinutes, create.Difficulty, create.Focus, create.Energy, create.Note,
	}

	stmt := `INSERT INTO record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	if err := d.replaceRecordTags(ctx, tx, create.ID, create.UserID, create.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit record: %w", err)
	}
	return create, nil
}

func (d *DB) ListRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error) {
	where, args := []string{"TRUE"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "record.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "record.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "record.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OccurredAtGte; v != nil {
		where, args = append(where, "record.occurred_at >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OccurredAtLt; v != nil {
		where, args = append(where, "record.occurred_at < "+placeholder(len(args)+1)), append(args, *v)
	}

	noteColumn := "record.note"
	if find.LightProjection {
		noteColumn = "''"
	}

	orderBy := "ORDER BY record.occurred_at ASC"
	if find.OrderByOccurredAtDesc {
		orderBy = "ORDER BY record.occurred_at DESC"
	}

	query := `
		SELECT
			id, uid, user_id, created_ts, updated_ts,
			title, activity_type, occurred_at,
			duration_minutes, difficulty, focus, energy, ` + noteColumn + `
		FROM record
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Record, 0)
	for rows.Next() {
		var record store.Record
		var durationMinutes, difficulty, focus, energy sql.NullInt32

		if err := rows.Scan(
			&record.ID,
			&record.UID,
			&record.UserID,
			&record.CreatedTs,
			&record.UpdatedTs,
			&record.Title,
			&record.ActivityType,
			&record.OccurredAt,
			&durationMinutes,
			&difficulty,
			&focus,
			&energy,
			&record.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		if durationMinutes.Valid {
			record.DurationMinutes = &durationMinutes.Int32
		}
		if difficulty.Valid {
			record.Difficulty = &difficulty.Int32
		}
		if focus.Valid {
			record.Focus = &focus.Int32
		}
		if energy.Valid {
			record.Energy = &energy.Int32
		}
		list = append(list, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateRecord(ctx context.Context, update *store.UpdateRecord) error {
	set, args := []string{"updated_ts = EXTRACT(EPOCH FROM NOW())"}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ActivityType; v != nil {
		set, args = append(set, "activity_type = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.OccurredAt; v != nil {
		set, args = append(set, "occurred_at = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.DurationMinutes; v != nil {
		set, args = append(set, "duration_minutes = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Difficulty; v != nil {
		set, args = append(set, "difficulty = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Focus; v != nil {
		set, args = append(set, "focus = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Energy; v != nil {
		set, args = append(set, "energy = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Note; v != nil {
		set, args = append(set, "note = "+placeholder(len(args)+1)), append(args, *v)
	}

	args = append(args, update.ID)
	stmt := `UPDATE record SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (d *DB) DeleteRecord(ctx context.Context, delete *store.DeleteRecord) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM record_tag WHERE record_id = $1", delete.ID); err != nil {
		return fmt.Errorf("failed to delete record tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM record WHERE id = $1", delete.ID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return tx.Commit()
}

func (d *DB) ListRecordTagNames(ctx context.Context, recordIDs []int32) (map[int32][]string, error) {
	query := `
		SELECT record_tag.record_id, tag.name
		FROM record_tag
		JOIN tag ON tag.id = record_tag.tag_id
		WHERE record_tag.record_id = ANY($1)
		ORDER BY tag.name ASC`

	rows, err := d.db.QueryContext(ctx, query, pq.Array(recordIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query record tags: %w", err)
	}
	defer rows.Close()

	result := make(map[int32][]string, len(recordIDs))
	for rows.Next() {
		var recordID int32
		var name string
		if err := rows.Scan(&recordID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan record tag: %w", err)
		}
		result[recordID] = append(result[recordID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record tags: %w", err)
	}
	return result, nil
}

// replaceRecordTags upserts the tag rows and rewrites the record's associations.
func (d *DB) replaceRecordTags(ctx context.Context, tx *sql.Tx, recordID int32, userID int32, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM record_tag WHERE record_id = $1", recordID); err != nil {
		return fmt.Errorf("failed to clear record tags: %w", err)
	}
	for _, name := range tags {
		var tagID int32
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO tag (user_id, name) VALUES ($1, $2)
			ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, userID, name,
		).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO record_tag (record_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, recordID, tagID,
		); err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}
	return nil
}
