package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
)

func seededLessons(t *testing.T) *fakeLessonRepo {
	t.Helper()
	repo := newFakeLessonRepo()
	ctx := context.Background()

	for _, l := range []model.Lesson{
		{ID: "js-2", Title: "Second", Language: model.LanguageJavaScript, Order: 2, Content: "a\n\nb", Example: "x()"},
		{ID: "js-1", Title: "First", Language: model.LanguageJavaScript, Order: 1, Content: "only page"},
		{ID: "py-1", Title: "Python", Language: model.LanguagePython, Order: 1},
	} {
		require.NoError(t, repo.UpsertLesson(ctx, &l))
	}
	require.NoError(t, repo.UpsertExercise(ctx, &model.PracticeExercise{
		ID: "js-1", Title: "Hello", ExpectedOutput: "Hello", Language: model.LanguageJavaScript,
	}))
	return repo
}

func TestLessonService_List(t *testing.T) {
	svc := NewLessonService(seededLessons(t), discardLogger())
	ctx := context.Background()

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	js, err := svc.List(ctx, " JavaScript ")
	require.NoError(t, err)
	require.Len(t, js, 2)
	assert.Equal(t, "js-1", js[0].ID)
	assert.Equal(t, "js-2", js[1].ID)

	_, err = svc.List(ctx, "cobol")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLessonService_Get(t *testing.T) {
	svc := NewLessonService(seededLessons(t), discardLogger())
	ctx := context.Background()

	detail, err := svc.Get(ctx, "js-2")
	require.NoError(t, err)
	assert.Equal(t, "Second", detail.Lesson.Title)
	assert.Equal(t, []string{"a", "b", model.ExamplePage}, detail.Pages)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Get(ctx, " ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLessonService_Exercises(t *testing.T) {
	svc := NewLessonService(seededLessons(t), discardLogger())
	ctx := context.Background()

	list, err := svc.ListExercises(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	ex, err := svc.GetExercise(ctx, "js-1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", ex.ExpectedOutput)

	_, err = svc.GetExercise(ctx, "js-9")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
