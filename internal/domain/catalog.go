package domain

import (
	"strings"
	"time"
)

// QuestionType enumerates how a question is answered.
type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "single"
	QuestionTypeMultiple  QuestionType = "multiple"
	QuestionTypeTrueFalse QuestionType = "true_false"
)

// ParseQuestionType normalizes a raw type string, falling back to single.
func ParseQuestionType(s string) QuestionType {
	switch QuestionType(strings.ToLower(strings.TrimSpace(s))) {
	case QuestionTypeMultiple:
		return QuestionTypeMultiple
	case QuestionTypeTrueFalse:
		return QuestionTypeTrueFalse
	default:
		return QuestionTypeSingle
	}
}

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty normalizes a raw difficulty string, falling back to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Category groups exams (e.g. Math, English, Biology). Deleting a category
// cascades through its exams, topics, questions, choices and sessions.
type Category struct {
	ID           string
	Name         string
	ExamCategory string
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Exam is a named, timed set of questions under a category.
type Exam struct {
	ID              string
	CategoryID      string
	Name            string
	Description     string
	DurationMinutes int
	TotalQuestions  int
	PassingScore    int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate validates the exam
func (e *Exam) Validate() error {
	if e.CategoryID == "" {
		return NewInvalidInputError("category ID is required")
	}
	if e.Name == "" {
		return NewInvalidInputError("exam name is required")
	}
	return nil
}

// Duration returns the exam's time limit.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// Topic is an optional grouping of questions inside an exam.
type Topic struct {
	ID          string
	ExamID      string
	Name        string
	Description string
	Order       int
}

// Question belongs to an exam and optionally to a topic. Choices are
// loaded alongside the question wherever correctness matters.
type Question struct {
	ID           string
	ExamID       string
	TopicID      string
	QuestionText string
	QuestionType QuestionType
	Difficulty   Difficulty
	Explanation  string
	Points       int
	Order        int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Choices      []Choice
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.ExamID == "" {
		return NewInvalidInputError("exam ID is required")
	}
	if q.QuestionText == "" {
		return NewInvalidInputError("question text is required")
	}
	return nil
}

// CorrectChoiceIDs returns the IDs of the question's correct choices.
func (q *Question) CorrectChoiceIDs() []string {
	var ids []string
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// HasChoice reports whether the given choice ID belongs to this question.
func (q *Question) HasChoice(choiceID string) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

// EvaluateSelection checks a set of selected choice IDs against the
// question's correct choices. Single and true/false questions require
// exactly one selection matching the unique correct choice; multiple
// questions require exact set equality.
func (q *Question) EvaluateSelection(selectedIDs []string) bool {
	correct := make(map[string]bool)
	for _, id := range q.CorrectChoiceIDs() {
		correct[id] = true
	}
	selected := make(map[string]bool)
	for _, id := range selectedIDs {
		selected[id] = true
	}

	switch q.QuestionType {
	case QuestionTypeMultiple:
		if len(selected) != len(correct) {
			return false
		}
		for id := range selected {
			if !correct[id] {
				return false
			}
		}
		return len(correct) > 0
	default: // single, true_false
		if len(selected) != 1 || len(correct) != 1 {
			return false
		}
		for id := range selected {
			if !correct[id] {
				return false
			}
		}
		return true
	}
}

// Choice is one answer option of a question.
type Choice struct {
	ID         string
	QuestionID string
	ChoiceText string
	IsCorrect  bool
	Order      int
}
