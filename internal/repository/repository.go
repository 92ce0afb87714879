// Package repository declares the storage contracts the services depend on.
// internal/repository/sqlite implements all of them on a single *sqlite.DB.
package repository

import (
	"context"
	"time"

	"github.com/sakif/codecoach/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type LessonRepository interface {
	UpsertLesson(ctx context.Context, lesson *model.Lesson) error
	ListLessons(ctx context.Context, language model.Language) ([]model.Lesson, error)
	GetLesson(ctx context.Context, id string) (*model.Lesson, error)
	CountLessons(ctx context.Context) (int, error)

	UpsertExercise(ctx context.Context, exercise *model.PracticeExercise) error
	ListExercises(ctx context.Context) ([]model.PracticeExercise, error)
	GetExercise(ctx context.Context, id string) (*model.PracticeExercise, error)
}

type ProgressRepository interface {
	ListProgress(ctx context.Context, userID string) ([]model.UserProgress, error)
	GetProgress(ctx context.Context, userID, lessonID string) (*model.UserProgress, error)
	// MarkCompleted upserts the (user, lesson) row, keeping its id and time spent.
	MarkCompleted(ctx context.Context, userID, lessonID string, score *int, at time.Time) (*model.UserProgress, error)
	// AddPracticeTime adds minutes to an existing row. It is a no-op when the
	// user has no progress on the lesson.
	AddPracticeTime(ctx context.Context, userID, lessonID string, minutes int) error

	GetLessonState(ctx context.Context, userID, lessonID string) (*model.LessonState, error)
	SaveLessonState(ctx context.Context, state *model.LessonState) error
}

type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt *model.Attempt) error
	ListAttempts(ctx context.Context, userID, exerciseID string, opts ListOptions) ([]model.Attempt, error)
}

type UserRepository interface {
	// Upsert inserts or updates a GitHub-linked user keyed by GitHubID.
	Upsert(ctx context.Context, user *model.User) error
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
}
