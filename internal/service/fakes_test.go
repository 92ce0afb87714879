package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User
	byGHID map[int64]*model.User
	nextID int

	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		byGHID: make(map[int64]*model.User),
	}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.byGHID[user.GitHubID]; ok {
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}

	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.byGHID[user.GitHubID] = &stored
	return nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.PasswordHash != "" && u.Login == user.Login {
			return apperror.Conflict("user", user.Login)
		}
	}

	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByLogin(_ context.Context, login string) (*model.User, error) {
	for _, u := range f.users {
		if u.PasswordHash != "" && u.Login == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", login)
}

// fakeLessonRepo is an in-memory repository.LessonRepository.
type fakeLessonRepo struct {
	lessons   map[string]model.Lesson
	exercises map[string]model.PracticeExercise
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{
		lessons:   make(map[string]model.Lesson),
		exercises: make(map[string]model.PracticeExercise),
	}
}

func (f *fakeLessonRepo) UpsertLesson(_ context.Context, l *model.Lesson) error {
	f.lessons[l.ID] = *l
	return nil
}

func (f *fakeLessonRepo) ListLessons(_ context.Context, language model.Language) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.lessons {
		if language == "" || l.Language == language {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (f *fakeLessonRepo) GetLesson(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, apperror.NotFound("lesson", id)
	}
	return &l, nil
}

func (f *fakeLessonRepo) CountLessons(context.Context) (int, error) {
	return len(f.lessons), nil
}

func (f *fakeLessonRepo) UpsertExercise(_ context.Context, e *model.PracticeExercise) error {
	f.exercises[e.ID] = *e
	return nil
}

func (f *fakeLessonRepo) ListExercises(context.Context) ([]model.PracticeExercise, error) {
	out := []model.PracticeExercise{}
	for _, e := range f.exercises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLessonRepo) GetExercise(_ context.Context, id string) (*model.PracticeExercise, error) {
	e, ok := f.exercises[id]
	if !ok {
		return nil, apperror.NotFound("exercise", id)
	}
	return &e, nil
}

type progressKey struct{ user, lesson string }

// fakeProgressRepo is an in-memory repository.ProgressRepository and
// repository.AttemptRepository.
type fakeProgressRepo struct {
	progress map[progressKey]*model.UserProgress
	states   map[progressKey]model.LessonState
	attempts []model.Attempt
	nextID   int
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{
		progress: make(map[progressKey]*model.UserProgress),
		states:   make(map[progressKey]model.LessonState),
	}
}

func (f *fakeProgressRepo) ListProgress(_ context.Context, userID string) ([]model.UserProgress, error) {
	out := []model.UserProgress{}
	for k, p := range f.progress {
		if k.user == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonID < out[j].LessonID })
	return out, nil
}

func (f *fakeProgressRepo) GetProgress(_ context.Context, userID, lessonID string) (*model.UserProgress, error) {
	p, ok := f.progress[progressKey{userID, lessonID}]
	if !ok {
		return nil, apperror.NotFound("progress", lessonID)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProgressRepo) MarkCompleted(ctx context.Context, userID, lessonID string, score *int, at time.Time) (*model.UserProgress, error) {
	k := progressKey{userID, lessonID}
	p, ok := f.progress[k]
	if !ok {
		f.nextID++
		p = &model.UserProgress{ID: fmt.Sprintf("progress-%d", f.nextID), UserID: userID, LessonID: lessonID}
		f.progress[k] = p
	}
	p.Completed = true
	p.Score = score
	at = at.UTC()
	p.CompletedAt = &at
	return f.GetProgress(ctx, userID, lessonID)
}

func (f *fakeProgressRepo) AddPracticeTime(_ context.Context, userID, lessonID string, minutes int) error {
	if p, ok := f.progress[progressKey{userID, lessonID}]; ok {
		p.TimeSpent += minutes
	}
	return nil
}

func (f *fakeProgressRepo) GetLessonState(_ context.Context, userID, lessonID string) (*model.LessonState, error) {
	st, ok := f.states[progressKey{userID, lessonID}]
	if !ok {
		return nil, apperror.NotFound("lesson state", lessonID)
	}
	return &st, nil
}

func (f *fakeProgressRepo) SaveLessonState(_ context.Context, st *model.LessonState) error {
	f.states[progressKey{st.UserID, st.LessonID}] = *st
	return nil
}

func (f *fakeProgressRepo) CreateAttempt(_ context.Context, a *model.Attempt) error {
	f.nextID++
	a.ID = fmt.Sprintf("attempt-%d", f.nextID)
	a.CreatedAt = time.Now().UTC()
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeProgressRepo) ListAttempts(_ context.Context, userID, exerciseID string, opts repository.ListOptions) ([]model.Attempt, error) {
	out := []model.Attempt{}
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.UserID == userID && a.ExerciseID == exerciseID {
			out = append(out, a)
		}
	}
	if opts.Offset >= len(out) {
		return []model.Attempt{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// stubExecutor returns a canned result and remembers the code it was given.
type stubExecutor struct {
	result *executor.ExecutionResult
	err    error
	calls  []string
}

func (s *stubExecutor) Execute(_ context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	s.calls = append(s.calls, req.Code)
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	return &res, nil
}
