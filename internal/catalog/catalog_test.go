package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codecoach/internal/model"
	"github.com/sakif/codecoach/internal/repository/sqlite"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	assert.Len(t, c.Lessons, 7)
	assert.Len(t, c.Exercises, 2)

	var intro *model.Lesson
	for i := range c.Lessons {
		if c.Lessons[i].ID == "js-intro" {
			intro = &c.Lessons[i]
		}
	}
	require.NotNil(t, intro)
	assert.Equal(t, model.LanguageJavaScript, intro.Language)
	assert.Equal(t, "variables-basics", intro.NextLessonID)
	assert.Equal(t, 8, intro.EstimatedTime)
	assert.Equal(t, model.ExamplePage, intro.Pages()[len(intro.Pages())-1])

	ex := c.Exercises[0]
	assert.Equal(t, "variables-basics", ex.ID)
	assert.Equal(t, "My name is Alice and I am 25 years old.", ex.ExpectedOutput)
	assert.Len(t, ex.Hints, 2)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "lessons: [\n"},
		{"missing title", "lessons:\n  - id: a\n    language: javascript\n"},
		{"unknown language", "lessons:\n  - id: a\n    title: A\n    language: cobol\n"},
		{"duplicate lesson", "lessons:\n  - {id: a, title: A, language: ruby}\n  - {id: a, title: B, language: ruby}\n"},
		{"dangling next lesson", "lessons:\n  - {id: a, title: A, language: ruby, next_lesson_id: b}\n"},
		{"exercise without expected output", "exercises:\n  - {id: e, language: javascript}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c, err := Builtin()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	require.NoError(t, c.Seed(ctx, db, logger))
	require.NoError(t, c.Seed(ctx, db, logger))

	n, err := db.CountLessons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	ex, err := db.GetExercise(ctx, "variables-basics")
	require.NoError(t, err)
	assert.Equal(t, model.LanguageJavaScript, ex.Language)
}
