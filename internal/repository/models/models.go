package models

import (
	"database/sql"
	"time"
)

// Category is the categories table row. Optional text columns are
// NullString throughout these models: Oracle stores a zero-length
// VARCHAR2 as NULL, so an empty value always comes back as NULL.
type Category struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	ExamCategory sql.NullString `db:"exam_category"`
	Description  sql.NullString `db:"description"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Exam is the exams table row. Name is unique within a category.
type Exam struct {
	ID              string         `db:"id"`
	CategoryID      string         `db:"category_id"`
	Name            string         `db:"name"`
	Description     sql.NullString `db:"description"`
	DurationMinutes int            `db:"duration_minutes"`
	TotalQuestions  int            `db:"total_questions"`
	PassingScore    int            `db:"passing_score"`
	IsActive        bool           `db:"is_active"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// Topic is the topics table row.
type Topic struct {
	ID          string         `db:"id"`
	ExamID      string         `db:"exam_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Ord         int            `db:"ord"`
}

// Question is the questions table row. The column is named ord because
// ORDER is reserved in Oracle.
type Question struct {
	ID           string         `db:"id"`
	ExamID       string         `db:"exam_id"`
	TopicID      sql.NullString `db:"topic_id"`
	QuestionText string         `db:"question_text"`
	QuestionType string         `db:"question_type"`
	Difficulty   string         `db:"difficulty"`
	Explanation  sql.NullString `db:"explanation"`
	Points       int            `db:"points"`
	Ord          int            `db:"ord"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Choice is the choices table row.
type Choice struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	ChoiceText string `db:"choice_text"`
	IsCorrect  bool   `db:"is_correct"`
	Ord        int    `db:"ord"`
}

// User is the users table row.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserProfile is the user_profiles table row.
type UserProfile struct {
	ID                 string       `db:"id"`
	UserID             string       `db:"user_id"`
	SubscriptionPlan   string       `db:"subscription_plan"`
	Tokens             int          `db:"tokens"`
	LastTokenGrantDate sql.NullTime `db:"last_token_grant_date"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
}

// QuizSession is the quiz_sessions table row.
type QuizSession struct {
	ID                 string        `db:"id"`
	UserID             string        `db:"user_id"`
	ExamID             string        `db:"exam_id"`
	StartedAt          time.Time     `db:"started_at"`
	CompletedAt        sql.NullTime  `db:"completed_at"`
	IsCompleted        bool          `db:"is_completed"`
	Score              float64       `db:"score"`
	TotalQuestions     int           `db:"total_questions"`
	CorrectAnswers     int           `db:"correct_answers"`
	TimeTakenSeconds   sql.NullInt64 `db:"time_taken_seconds"`
	TokensGranted      bool          `db:"tokens_granted"`
	IsPaused           bool          `db:"is_paused"`
	PausedAt           sql.NullTime  `db:"paused_at"`
	TotalPausedSeconds int           `db:"total_paused_seconds"`
}

// UserAnswer is the user_answers table row; selected choices live in the
// user_answer_choices junction table.
type UserAnswer struct {
	ID            string    `db:"id"`
	QuizSessionID string    `db:"quiz_session_id"`
	QuestionID    string    `db:"question_id"`
	IsCorrect     bool      `db:"is_correct"`
	AnsweredAt    time.Time `db:"answered_at"`
}

// BookmarkedQuestion is the bookmarked_questions table row.
type BookmarkedQuestion struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	QuestionID string    `db:"question_id"`
	CreatedAt  time.Time `db:"created_at"`
}
