package dto

import "time"

// StartSessionRequest starts (or resumes) a session for an exam.
type StartSessionRequest struct {
	ExamID string `json:"exam_id"`
}

// SessionResponse is the API view of a quiz session.
type SessionResponse struct {
	ID               string     `json:"id"`
	ExamID           string     `json:"exam_id"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
	IsPaused         bool       `json:"is_paused"`
	Score            float64    `json:"score"`
	TotalQuestions   int        `json:"total_questions"`
	CorrectAnswers   int        `json:"correct_answers"`
	RemainingSeconds int        `json:"remaining_seconds"`
}

// StartSessionResponse bundles the session with its questions. Resumed
// reports whether an existing incomplete session was reused.
type StartSessionResponse struct {
	Session   SessionResponse    `json:"session"`
	Questions []QuestionResponse `json:"questions"`
	Resumed   bool               `json:"resumed"`
}

// SubmitAnswerRequest submits the selected choices for one question.
type SubmitAnswerRequest struct {
	QuestionID        string   `json:"question_id"`
	SelectedChoiceIDs []string `json:"selected_choice_ids"`
}

// SubmitAnswerResponse reports the evaluation of one submission.
type SubmitAnswerResponse struct {
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
}

// RemainingTimeResponse reports the seconds left on the session clock.
type RemainingTimeResponse struct {
	RemainingSeconds int  `json:"remaining_seconds"`
	IsPaused         bool `json:"is_paused"`
}

// AnswerResultResponse is one question's outcome in the results view.
type AnswerResultResponse struct {
	QuestionID        string   `json:"question_id"`
	QuestionText      string   `json:"question_text"`
	SelectedChoiceIDs []string `json:"selected_choice_ids"`
	CorrectChoiceIDs  []string `json:"correct_choice_ids"`
	IsCorrect         bool     `json:"is_correct"`
	Explanation       string   `json:"explanation,omitempty"`
}

// SessionResultsResponse is the detailed results view of a completed
// session.
type SessionResultsResponse struct {
	Session       SessionResponse        `json:"session"`
	Passed        bool                   `json:"passed"`
	PassingScore  int                    `json:"passing_score"`
	TokensAwarded int                    `json:"tokens_awarded"`
	Answers       []AnswerResultResponse `json:"answers"`
}
