package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

// weekDays is the length of ProgressStats.WeeklyProgress.
const weekDays = 7

type ProgressService struct {
	progress repository.ProgressRepository
	lessons  repository.LessonRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewProgressService(progress repository.ProgressRepository, lessons repository.LessonRepository, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		progress: progress,
		lessons:  lessons,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ProgressService) GetUserProgress(ctx context.Context, userID string) ([]model.UserProgress, error) {
	rows, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	return rows, nil
}

// GetLessonProgress returns nil, nil when the user has not started the lesson.
func (s *ProgressService) GetLessonProgress(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	p, err := s.progress.GetProgress(ctx, userID, lessonID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching progress for %s: %w", lessonID, err)
	}
	return p, nil
}

// MarkLessonCompleted completes a lesson. A nil score clears any earlier one.
func (s *ProgressService) MarkLessonCompleted(ctx context.Context, userID, lessonID string, score *int) (*model.UserProgress, error) {
	if score != nil && (*score < 0 || *score > 100) {
		return nil, apperror.ValidationFailed("score", "score must be between 0 and 100")
	}
	if err := s.requireLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	p, err := s.progress.MarkCompleted(ctx, userID, lessonID, score, s.now())
	if err != nil {
		return nil, fmt.Errorf("completing lesson %s: %w", lessonID, err)
	}

	s.logger.Info("lesson completed",
		slog.String("userID", userID),
		slog.String("lessonID", lessonID),
	)
	return p, nil
}

// UpdatePracticeTime adds minutes to a lesson the user has already completed.
func (s *ProgressService) UpdatePracticeTime(ctx context.Context, userID, lessonID string, minutes int) error {
	if minutes <= 0 {
		return apperror.ValidationFailed("minutes", "minutes must be positive")
	}
	if err := s.progress.AddPracticeTime(ctx, userID, lessonID, minutes); err != nil {
		return fmt.Errorf("adding practice time to %s: %w", lessonID, err)
	}
	return nil
}

// GetLessonState returns the saved state, or a first-page state when none
// has been saved yet.
func (s *ProgressService) GetLessonState(ctx context.Context, userID, lessonID string) (*model.LessonState, error) {
	st, err := s.progress.GetLessonState(ctx, userID, lessonID)
	if isNotFound(err) {
		return &model.LessonState{UserID: userID, LessonID: lessonID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching lesson state for %s: %w", lessonID, err)
	}
	return st, nil
}

func (s *ProgressService) SetLessonLastPage(ctx context.Context, userID, lessonID string, page int) (*model.LessonState, error) {
	return s.updateState(ctx, userID, lessonID, func(st *model.LessonState) {
		st.LastPage = max(page, 0)
	})
}

func (s *ProgressService) SetLessonQuizPassed(ctx context.Context, userID, lessonID string, passed bool) (*model.LessonState, error) {
	return s.updateState(ctx, userID, lessonID, func(st *model.LessonState) {
		st.QuizPassed = &passed
	})
}

func (s *ProgressService) updateState(ctx context.Context, userID, lessonID string, apply func(*model.LessonState)) (*model.LessonState, error) {
	if err := s.requireLesson(ctx, lessonID); err != nil {
		return nil, err
	}

	st, err := s.GetLessonState(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	apply(st)

	if err := s.progress.SaveLessonState(ctx, st); err != nil {
		return nil, fmt.Errorf("saving lesson state for %s: %w", lessonID, err)
	}
	return st, nil
}

func (s *ProgressService) requireLesson(ctx context.Context, lessonID string) error {
	if strings.TrimSpace(lessonID) == "" {
		return apperror.ValidationFailed("lessonId", "lesson ID is required")
	}
	_, err := s.lessons.GetLesson(ctx, lessonID)
	return err
}

// GetProgressStats summarizes the user's progress. Days are UTC calendar days.
func (s *ProgressService) GetProgressStats(ctx context.Context, userID string) (*model.ProgressStats, error) {
	rows, err := s.progress.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	total, err := s.lessons.CountLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting lessons: %w", err)
	}

	today := day(s.now())
	stats := &model.ProgressStats{
		TotalLessons:   total,
		WeeklyProgress: make([]int, weekDays),
	}

	completedOn := make(map[time.Time]bool)
	scoreSum := 0
	for _, p := range rows {
		stats.TotalPracticeTime += p.TimeSpent
		if !p.Completed {
			continue
		}

		stats.LessonsCompleted++
		if p.Score != nil {
			scoreSum += *p.Score
		}
		if p.CompletedAt == nil {
			continue
		}

		d := day(*p.CompletedAt)
		completedOn[d] = true
		if ago := int(today.Sub(d).Hours() / 24); ago >= 0 && ago < weekDays {
			stats.WeeklyProgress[weekDays-1-ago]++
		}
	}

	if stats.LessonsCompleted > 0 {
		stats.AverageScore = int(math.Round(float64(scoreSum) / float64(stats.LessonsCompleted)))
	}
	stats.CurrentStreak = streak(completedOn, today)

	return stats, nil
}

// streak counts consecutive completion days ending today, or ending
// yesterday when nothing has been completed yet today.
func streak(completedOn map[time.Time]bool, today time.Time) int {
	d := today
	if !completedOn[d] {
		d = d.AddDate(0, 0, -1)
	}

	n := 0
	for completedOn[d] {
		n++
		d = d.AddDate(0, 0, -1)
	}
	return n
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
