package model

import "time"

// UserProgress records a user's completion of one lesson.
type UserProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	LessonID    string     `json:"lessonId"`
	Completed   bool       `json:"completed"`
	Score       *int       `json:"score,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	TimeSpent   int        `json:"timeSpent"` // minutes
}

// LessonState is where a user left off inside a lesson.
type LessonState struct {
	UserID     string `json:"userId"`
	LessonID   string `json:"lessonId"`
	LastPage   int    `json:"lastPage"`
	QuizPassed *bool  `json:"quizPassed,omitempty"`
}

// ProgressStats summarizes a user's progress across the catalog.
type ProgressStats struct {
	LessonsCompleted  int   `json:"lessonsCompleted"`
	TotalLessons      int   `json:"totalLessons"`
	CurrentStreak     int   `json:"currentStreak"`     // days
	TotalPracticeTime int   `json:"totalPracticeTime"` // minutes
	AverageScore      int   `json:"averageScore"`
	WeeklyProgress    []int `json:"weeklyProgress"` // completions per day, oldest first, today last
}

// Attempt is one graded submission to a practice exercise.
type Attempt struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ExerciseID    string    `json:"exerciseId"`
	Code          string    `json:"code"`
	Output        string    `json:"output"`
	Error         string    `json:"error,omitempty"`
	Passed        bool      `json:"passed"`
	ExecutionTime int64     `json:"executionTime"` // milliseconds
	CreatedAt     time.Time `json:"createdAt"`
}
