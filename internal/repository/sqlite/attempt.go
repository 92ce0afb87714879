package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

var _ repository.AttemptRepository = (*DB)(nil)

// CreateAttempt assigns the attempt an xid and a creation time, then stores it.
func (db *DB) CreateAttempt(ctx context.Context, a *model.Attempt) error {
	a.ID = xid.New().String()
	a.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO attempts (id, user_id, exercise_id, code, output, error, passed, execution_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.ExerciseID, a.Code, a.Output, a.Error, a.Passed, a.ExecutionTime, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating attempt: %w", err)
	}
	return nil
}

// ListAttempts returns a user's attempts on an exercise, newest first.
func (db *DB) ListAttempts(ctx context.Context, userID, exerciseID string, opts repository.ListOptions) ([]model.Attempt, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	// xids sort by creation time, so id breaks ties inside the same timestamp.
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, exercise_id, code, output, error, passed, execution_time, created_at
		 FROM attempts
		 WHERE user_id = ? AND exercise_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, exerciseID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]model.Attempt, 0, limit)
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ExerciseID, &a.Code, &a.Output, &a.Error,
			&a.Passed, &a.ExecutionTime, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attempt row: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attempts: %w", err)
	}
	return attempts, nil
}
