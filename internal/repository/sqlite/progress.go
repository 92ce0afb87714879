package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

var _ repository.ProgressRepository = (*DB)(nil)

const progressColumns = `id, user_id, lesson_id, completed, score, completed_at, time_spent`

func (db *DB) ListProgress(ctx context.Context, userID string) ([]model.UserProgress, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? ORDER BY lesson_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing progress for %s: %w", userID, err)
	}
	defer rows.Close()

	progress := []model.UserProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning progress row: %w", err)
		}
		progress = append(progress, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating progress: %w", err)
	}
	return progress, nil
}

// GetProgress returns apperror.ErrNotFound when the user has not touched the lesson.
func (db *DB) GetProgress(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? AND lesson_id = ?`,
		userID, lessonID,
	)
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("progress", lessonID)
		}
		return nil, fmt.Errorf("sqlite: getting progress %s/%s: %w", userID, lessonID, err)
	}
	return p, nil
}

// MarkCompleted relies on the UNIQUE (user_id, lesson_id) constraint: the
// conflict branch keeps the existing id and time_spent.
func (db *DB) MarkCompleted(ctx context.Context, userID, lessonID string, score *int, at time.Time) (*model.UserProgress, error) {
	var scoreArg any
	if score != nil {
		scoreArg = *score
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_progress (id, user_id, lesson_id, completed, score, completed_at, time_spent)
		 VALUES (?, ?, ?, 1, ?, ?, 0)
		 ON CONFLICT(user_id, lesson_id) DO UPDATE SET
			completed = 1,
			score = excluded.score,
			completed_at = excluded.completed_at`,
		xid.New().String(), userID, lessonID, scoreArg, at,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking %s completed for %s: %w", lessonID, userID, err)
	}

	return db.GetProgress(ctx, userID, lessonID)
}

func (db *DB) AddPracticeTime(ctx context.Context, userID, lessonID string, minutes int) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE user_progress SET time_spent = time_spent + ? WHERE user_id = ? AND lesson_id = ?`,
		minutes, userID, lessonID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding practice time %s/%s: %w", userID, lessonID, err)
	}
	return nil
}

// GetLessonState returns apperror.ErrNotFound when no state has been saved.
func (db *DB) GetLessonState(ctx context.Context, userID, lessonID string) (*model.LessonState, error) {
	s := model.LessonState{UserID: userID, LessonID: lessonID}
	var quiz sql.NullBool

	err := db.conn.QueryRowContext(ctx,
		`SELECT last_page, quiz_passed FROM lesson_states WHERE user_id = ? AND lesson_id = ?`,
		userID, lessonID,
	).Scan(&s.LastPage, &quiz)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("lesson state", lessonID)
		}
		return nil, fmt.Errorf("sqlite: getting lesson state %s/%s: %w", userID, lessonID, err)
	}

	if quiz.Valid {
		s.QuizPassed = &quiz.Bool
	}
	return &s, nil
}

func (db *DB) SaveLessonState(ctx context.Context, s *model.LessonState) error {
	var quiz any
	if s.QuizPassed != nil {
		quiz = *s.QuizPassed
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO lesson_states (user_id, lesson_id, last_page, quiz_passed)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, lesson_id) DO UPDATE SET
			last_page = excluded.last_page,
			quiz_passed = excluded.quiz_passed`,
		s.UserID, s.LessonID, s.LastPage, quiz,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving lesson state %s/%s: %w", s.UserID, s.LessonID, err)
	}
	return nil
}

func scanProgress(s scanner) (*model.UserProgress, error) {
	var p model.UserProgress
	var score sql.NullInt64
	var completedAt sql.NullTime

	if err := s.Scan(&p.ID, &p.UserID, &p.LessonID, &p.Completed, &score, &completedAt, &p.TimeSpent); err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		p.Score = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return &p, nil
}
