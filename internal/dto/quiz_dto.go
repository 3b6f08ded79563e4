package dto

// CategoryResponse represents a category in listings.
type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExamCategory string `json:"exam_category,omitempty"`
	Description  string `json:"description,omitempty"`
}

// ExamResponse represents an exam in listings.
type ExamResponse struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalQuestions  int    `json:"total_questions"`
	PassingScore    int    `json:"passing_score"`
}

// ChoiceResponse is a choice as shown to a quiz taker. The is_correct
// flag deliberately never appears here.
type ChoiceResponse struct {
	ID         string `json:"id"`
	ChoiceText string `json:"choice_text"`
	Order      int    `json:"order"`
}

// QuestionResponse is a question as shown to a quiz taker.
type QuestionResponse struct {
	ID           string           `json:"id"`
	QuestionText string           `json:"question_text"`
	QuestionType string           `json:"question_type"`
	Difficulty   string           `json:"difficulty"`
	Points       int              `json:"points"`
	Order        int              `json:"order"`
	Choices      []ChoiceResponse `json:"choices"`
}

// BookmarkToggleResponse reports the new bookmark state of a question.
type BookmarkToggleResponse struct {
	QuestionID string `json:"question_id"`
	Bookmarked bool   `json:"bookmarked"`
}
