// Package service holds codecoach's business rules. Handlers call services;
// services call the repository interfaces and the executor, and return
// apperror values that handlers map to status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

type LessonService struct {
	lessons repository.LessonRepository
	logger  *slog.Logger
}

func NewLessonService(lessons repository.LessonRepository, logger *slog.Logger) *LessonService {
	return &LessonService{lessons: lessons, logger: logger}
}

// LessonDetail is a lesson together with its reader pages.
type LessonDetail struct {
	Lesson *model.Lesson `json:"lesson"`
	Pages  []string      `json:"pages"`
}

// List returns the catalog, optionally restricted to one language.
func (s *LessonService) List(ctx context.Context, language string) ([]model.Lesson, error) {
	lang := model.Language(strings.ToLower(strings.TrimSpace(language)))
	if lang != "" && !lang.Valid() {
		return nil, apperror.ValidationFailed("language", fmt.Sprintf("unknown language %q", language))
	}

	lessons, err := s.lessons.ListLessons(ctx, lang)
	if err != nil {
		s.logger.Error("failed to list lessons", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	return lessons, nil
}

func (s *LessonService) Get(ctx context.Context, id string) (*LessonDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "lesson ID is required")
	}

	lesson, err := s.lessons.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LessonDetail{Lesson: lesson, Pages: lesson.Pages()}, nil
}

func (s *LessonService) ListExercises(ctx context.Context) ([]model.PracticeExercise, error) {
	exercises, err := s.lessons.ListExercises(ctx)
	if err != nil {
		s.logger.Error("failed to list exercises", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return exercises, nil
}

func (s *LessonService) GetExercise(ctx context.Context, id string) (*model.PracticeExercise, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "exercise ID is required")
	}
	return s.lessons.GetExercise(ctx, id)
}
