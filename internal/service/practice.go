package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

const (
	MaxCodeLength    = 100000
	DefaultListLimit = 20
	MaxListLimit     = 100

	// PassingScore is recorded on the lesson when its exercise is solved.
	PassingScore = 100
)

// PracticeService runs learner code and grades exercise submissions.
type PracticeService struct {
	exec     executor.Executor
	lessons  repository.LessonRepository
	attempts repository.AttemptRepository
	progress repository.ProgressRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewPracticeService(
	exec executor.Executor,
	lessons repository.LessonRepository,
	attempts repository.AttemptRepository,
	progress repository.ProgressRepository,
	logger *slog.Logger,
) *PracticeService {
	return &PracticeService{
		exec:     exec,
		lessons:  lessons,
		attempts: attempts,
		progress: progress,
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitResult is the graded outcome of one submission.
type SubmitResult struct {
	Result  *executor.ExecutionResult `json:"result"`
	Passed  bool                      `json:"passed"`
	Attempt *model.Attempt            `json:"attempt"`
}

func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	if len(code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	return nil
}

// Run executes code without grading or storing anything.
func (s *PracticeService) Run(ctx context.Context, code string) (*executor.ExecutionResult, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}

	res, err := s.exec.Execute(ctx, executor.ExecutionRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("executing code: %w", err)
	}
	return res, nil
}

// Submit runs code against an exercise and records the attempt. A passing
// attempt also completes the exercise's lesson with PassingScore.
func (s *PracticeService) Submit(ctx context.Context, userID, exerciseID, code string) (*SubmitResult, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}

	exercise, err := s.lessons.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !exercise.Language.Runnable() {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("%s exercises can be read but not run", exercise.Language))
	}

	res, err := s.exec.Execute(ctx, executor.ExecutionRequest{Code: code})
	if err != nil {
		return nil, fmt.Errorf("executing submission: %w", err)
	}

	passed := !res.Failed() && exercise.Matches(res.Output)

	attempt := &model.Attempt{
		UserID:        userID,
		ExerciseID:    exercise.ID,
		Code:          code,
		Output:        res.Output,
		Error:         res.Error,
		Passed:        passed,
		ExecutionTime: res.ExecutionTime,
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("recording attempt: %w", err)
	}

	if passed {
		score := PassingScore
		if _, err := s.progress.MarkCompleted(ctx, userID, exercise.ID, &score, s.now()); err != nil {
			return nil, fmt.Errorf("completing lesson %s: %w", exercise.ID, err)
		}
	}

	s.logger.Info("exercise submitted",
		slog.String("userID", userID),
		slog.String("exerciseID", exercise.ID),
		slog.Bool("passed", passed),
	)

	return &SubmitResult{Result: res, Passed: passed, Attempt: attempt}, nil
}

// ListAttempts returns the user's attempts at an exercise, newest first.
func (s *PracticeService) ListAttempts(ctx context.Context, userID, exerciseID string, limit, offset int) ([]model.Attempt, error) {
	if _, err := s.lessons.GetExercise(ctx, exerciseID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	attempts, err := s.attempts.ListAttempts(ctx, userID, exerciseID, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	return attempts, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
