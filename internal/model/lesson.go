// Package model defines the data structures used throughout the application.
package model

import (
	"regexp"
	"strings"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Language is the language a lesson teaches. Only JavaScript is executed;
// the others are shown but never run.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguagePHP        Language = "php"
	LanguageRuby       Language = "ruby"
)

// Valid reports whether l is one of the catalog languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageJavaScript, LanguagePython, LanguagePHP, LanguageRuby:
		return true
	}
	return false
}

// Runnable reports whether snippets in l can be executed.
func (l Language) Runnable() bool {
	return l == LanguageJavaScript
}

// Lesson is one reading lesson in the catalog.
type Lesson struct {
	ID            string     `json:"id"                     yaml:"id"`
	Title         string     `json:"title"                  yaml:"title"`
	Description   string     `json:"description"            yaml:"description"`
	Difficulty    Difficulty `json:"difficulty"             yaml:"difficulty"`
	Order         int        `json:"order"                  yaml:"order"`
	EstimatedTime int        `json:"estimatedTime"          yaml:"estimated_time"` // minutes
	Content       string     `json:"content"                yaml:"content"`
	Example       string     `json:"example"                yaml:"example"`
	NextLessonID  string     `json:"nextLessonId,omitempty" yaml:"next_lesson_id"`
	Language      Language   `json:"language"               yaml:"language"`
}

// ExamplePage is the label of the trailing page that shows a lesson's example.
const ExamplePage = "Example"

// MaxContentPages caps how many content pages a lesson is split into.
const MaxContentPages = 6

var blankLines = regexp.MustCompile(`\n\n+`)

// Pages splits the lesson content into short pages on blank lines. Empty
// pages are dropped, at most MaxContentPages are kept, and an ExamplePage is
// appended when the lesson has an example.
func (l *Lesson) Pages() []string {
	pages := make([]string, 0, MaxContentPages+1)
	for _, p := range blankLines.Split(l.Content, -1) {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if len(pages) == MaxContentPages {
			break
		}
		pages = append(pages, p)
	}
	if strings.TrimSpace(l.Example) != "" {
		pages = append(pages, ExamplePage)
	}
	return pages
}

// PracticeExercise is a small task checked against an exact expected output.
type PracticeExercise struct {
	ID             string   `json:"id"             yaml:"id"`
	Title          string   `json:"title"          yaml:"title"`
	Prompt         string   `json:"prompt"         yaml:"prompt"`
	StarterCode    string   `json:"starterCode"    yaml:"starter_code"`
	ExpectedOutput string   `json:"expectedOutput" yaml:"expected_output"`
	Hints          []string `json:"hints"          yaml:"hints"`
	Language       Language `json:"language"       yaml:"language"`
}

// Matches reports whether output is the expected output, ignoring
// surrounding whitespace.
func (e *PracticeExercise) Matches(output string) bool {
	return strings.TrimSpace(output) == strings.TrimSpace(e.ExpectedOutput)
}
