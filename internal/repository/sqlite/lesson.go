package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

var _ repository.LessonRepository = (*DB)(nil)

const lessonColumns = `id, title, description, difficulty, sort_order, estimated_time,
	content, example, next_lesson_id, language`

// UpsertLesson inserts a lesson or overwrites the row with the same id.
func (db *DB) UpsertLesson(ctx context.Context, l *model.Lesson) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO lessons (`+lessonColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			difficulty = excluded.difficulty,
			sort_order = excluded.sort_order,
			estimated_time = excluded.estimated_time,
			content = excluded.content,
			example = excluded.example,
			next_lesson_id = excluded.next_lesson_id,
			language = excluded.language`,
		l.ID, l.Title, l.Description, string(l.Difficulty), l.Order, l.EstimatedTime,
		l.Content, l.Example, l.NextLessonID, string(l.Language),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting lesson %s: %w", l.ID, err)
	}
	return nil
}

// ListLessons returns lessons ordered by language then position. An empty
// language lists the whole catalog.
func (db *DB) ListLessons(ctx context.Context, language model.Language) ([]model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons`
	var args []any
	if language != "" {
		query += ` WHERE language = ?`
		args = append(args, string(language))
	}
	query += ` ORDER BY language, sort_order, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing lessons: %w", err)
	}
	defer rows.Close()

	lessons := []model.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning lesson row: %w", err)
		}
		lessons = append(lessons, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating lessons: %w", err)
	}
	return lessons, nil
}

func (db *DB) GetLesson(ctx context.Context, id string) (*model.Lesson, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id)
	l, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("lesson", id)
		}
		return nil, fmt.Errorf("sqlite: getting lesson %s: %w", id, err)
	}
	return l, nil
}

func (db *DB) CountLessons(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting lessons: %w", err)
	}
	return n, nil
}

// UpsertExercise inserts an exercise or overwrites the row with the same id.
// Hints are stored as a JSON array.
func (db *DB) UpsertExercise(ctx context.Context, e *model.PracticeExercise) error {
	hints := e.Hints
	if hints == nil {
		hints = []string{}
	}
	encoded, err := json.Marshal(hints)
	if err != nil {
		return fmt.Errorf("sqlite: encoding hints for %s: %w", e.ID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO exercises (id, title, prompt, starter_code, expected_output, hints, language)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			prompt = excluded.prompt,
			starter_code = excluded.starter_code,
			expected_output = excluded.expected_output,
			hints = excluded.hints,
			language = excluded.language`,
		e.ID, e.Title, e.Prompt, e.StarterCode, e.ExpectedOutput, string(encoded), string(e.Language),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting exercise %s: %w", e.ID, err)
	}
	return nil
}

func (db *DB) ListExercises(ctx context.Context) ([]model.PracticeExercise, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, prompt, starter_code, expected_output, hints, language
		 FROM exercises ORDER BY language, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing exercises: %w", err)
	}
	defer rows.Close()

	exercises := []model.PracticeExercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning exercise row: %w", err)
		}
		exercises = append(exercises, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating exercises: %w", err)
	}
	return exercises, nil
}

func (db *DB) GetExercise(ctx context.Context, id string) (*model.PracticeExercise, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, prompt, starter_code, expected_output, hints, language
		 FROM exercises WHERE id = ?`, id)
	e, err := scanExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("exercise", id)
		}
		return nil, fmt.Errorf("sqlite: getting exercise %s: %w", id, err)
	}
	return e, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(s scanner) (*model.Lesson, error) {
	var l model.Lesson
	var difficulty, language string
	err := s.Scan(
		&l.ID, &l.Title, &l.Description, &difficulty, &l.Order, &l.EstimatedTime,
		&l.Content, &l.Example, &l.NextLessonID, &language,
	)
	if err != nil {
		return nil, err
	}
	l.Difficulty = model.Difficulty(difficulty)
	l.Language = model.Language(language)
	return &l, nil
}

func scanExercise(s scanner) (*model.PracticeExercise, error) {
	var e model.PracticeExercise
	var hints, language string
	if err := s.Scan(&e.ID, &e.Title, &e.Prompt, &e.StarterCode, &e.ExpectedOutput, &hints, &language); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hints), &e.Hints); err != nil {
		return nil, fmt.Errorf("decoding hints: %w", err)
	}
	e.Language = model.Language(language)
	return &e, nil
}
