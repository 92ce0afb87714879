// Package catalog holds the built-in lessons and practice exercises and
// seeds them into storage on startup.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/sakif/codecoach/internal/model"
)

//go:embed lessons.yaml
var builtin []byte

// Catalog is the parsed seed file.
type Catalog struct {
	Lessons   []model.Lesson           `yaml:"lessons"`
	Exercises []model.PracticeExercise `yaml:"exercises"`
}

// Store is the subset of repository.LessonRepository seeding needs.
type Store interface {
	UpsertLesson(ctx context.Context, lesson *model.Lesson) error
	UpsertExercise(ctx context.Context, exercise *model.PracticeExercise) error
}

// Builtin parses the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parsing: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	lessons := make(map[string]bool, len(c.Lessons))
	for _, l := range c.Lessons {
		if l.ID == "" || l.Title == "" {
			return fmt.Errorf("catalog: lesson %q needs an id and a title", l.ID)
		}
		if !l.Language.Valid() {
			return fmt.Errorf("catalog: lesson %s has unknown language %q", l.ID, l.Language)
		}
		if lessons[l.ID] {
			return fmt.Errorf("catalog: duplicate lesson id %s", l.ID)
		}
		lessons[l.ID] = true
	}
	for _, l := range c.Lessons {
		if l.NextLessonID != "" && !lessons[l.NextLessonID] {
			return fmt.Errorf("catalog: lesson %s points at unknown next lesson %s", l.ID, l.NextLessonID)
		}
	}

	exercises := make(map[string]bool, len(c.Exercises))
	for _, e := range c.Exercises {
		if e.ID == "" || e.ExpectedOutput == "" {
			return fmt.Errorf("catalog: exercise %q needs an id and an expected output", e.ID)
		}
		if !e.Language.Valid() {
			return fmt.Errorf("catalog: exercise %s has unknown language %q", e.ID, e.Language)
		}
		if exercises[e.ID] {
			return fmt.Errorf("catalog: duplicate exercise id %s", e.ID)
		}
		exercises[e.ID] = true
	}
	return nil
}

// Seed upserts every lesson and exercise into store. Running it again
// overwrites the rows with the same ids.
func (c *Catalog) Seed(ctx context.Context, store Store, logger *slog.Logger) error {
	for i := range c.Lessons {
		if err := store.UpsertLesson(ctx, &c.Lessons[i]); err != nil {
			return fmt.Errorf("catalog: seeding lesson %s: %w", c.Lessons[i].ID, err)
		}
	}
	for i := range c.Exercises {
		if err := store.UpsertExercise(ctx, &c.Exercises[i]); err != nil {
			return fmt.Errorf("catalog: seeding exercise %s: %w", c.Exercises[i].ID, err)
		}
	}

	logger.Info("catalog seeded",
		slog.Int("lessons", len(c.Lessons)),
		slog.Int("exercises", len(c.Exercises)),
	)
	return nil
}
