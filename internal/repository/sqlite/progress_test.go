package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/model"
)

func intPtr(v int) *int { return &v }

func TestProgress_MarkCompletedUpserts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	first, err := db.MarkCompleted(ctx, "u1", "variables-basics", intPtr(85), at)
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if !first.Completed || first.Score == nil || *first.Score != 85 {
		t.Fatalf("first completion = %+v, want completed with score 85", first)
	}
	if first.CompletedAt == nil || !first.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", first.CompletedAt, at)
	}

	if err := db.AddPracticeTime(ctx, "u1", "variables-basics", 12); err != nil {
		t.Fatalf("AddPracticeTime() error = %v", err)
	}

	second, err := db.MarkCompleted(ctx, "u1", "variables-basics", nil, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("second MarkCompleted() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on upsert: %s → %s", first.ID, second.ID)
	}
	if second.TimeSpent != 12 {
		t.Errorf("TimeSpent = %d, want 12 (kept across upsert)", second.TimeSpent)
	}
	if second.Score != nil {
		t.Errorf("Score = %v, want nil after completing without a score", *second.Score)
	}

	all, err := db.ListProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("ListProgress() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListProgress() returned %d rows, want 1", len(all))
	}
}

func TestProgress_AddPracticeTimeWithoutRowIsNoop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.AddPracticeTime(ctx, "u1", "js-intro", 5); err != nil {
		t.Fatalf("AddPracticeTime() error = %v", err)
	}
	if _, err := db.GetProgress(ctx, "u1", "js-intro"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetProgress() error = %v, want ErrNotFound", err)
	}
}

func TestProgress_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.MarkCompleted(ctx, "u1", "js-intro", intPtr(100), time.Now()); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}

	other, err := db.ListProgress(ctx, "u2")
	if err != nil {
		t.Fatalf("ListProgress() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ListProgress(u2) returned %d rows, want 0", len(other))
	}
}

func TestLessonState_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetLessonState(ctx, "u1", "js-intro"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetLessonState() before save error = %v, want ErrNotFound", err)
	}

	if err := db.SaveLessonState(ctx, &model.LessonState{UserID: "u1", LessonID: "js-intro", LastPage: 3}); err != nil {
		t.Fatalf("SaveLessonState() error = %v", err)
	}
	got, err := db.GetLessonState(ctx, "u1", "js-intro")
	if err != nil {
		t.Fatalf("GetLessonState() error = %v", err)
	}
	if got.LastPage != 3 || got.QuizPassed != nil {
		t.Errorf("state = %+v, want lastPage 3 and no quiz result", got)
	}

	passed := true
	got.QuizPassed = &passed
	if err := db.SaveLessonState(ctx, got); err != nil {
		t.Fatalf("SaveLessonState() update error = %v", err)
	}
	got, err = db.GetLessonState(ctx, "u1", "js-intro")
	if err != nil {
		t.Fatalf("GetLessonState() error = %v", err)
	}
	if got.QuizPassed == nil || !*got.QuizPassed {
		t.Errorf("QuizPassed = %v, want true", got.QuizPassed)
	}
	if got.LastPage != 3 {
		t.Errorf("LastPage = %d, want 3", got.LastPage)
	}
}
