package domain

import "context"

// QuestionContext is what the assistant is allowed to see about the
// question a student is asking about. Correct-answer flags and the
// stored explanation never appear here; the explanation usually gives
// the answer away.
type QuestionContext struct {
	ExamName     string
	CategoryName string
	QuestionText string
	Difficulty   string
	QuestionType string
	ChoiceTexts  []string
}

// Assistant answers a student's concept question during a quiz without
// revealing correct answers. Implementations wrap an external LLM; a
// missing API key surfaces as an ASSISTANT_UNAVAILABLE domain error.
type Assistant interface {
	Chat(ctx context.Context, message string, qctx *QuestionContext) (string, error)
}
