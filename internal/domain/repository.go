package domain

import (
	"context"
	"time"
)

// TransactionManager runs a function inside a database transaction.
// Repositories called with the returned context join that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogRepository persists the question bank hierarchy:
// Category -> Exam -> Topic -> Question -> Choice.
// Lookups return (nil, nil) when the row does not exist.
type CatalogRepository interface {
	GetOrCreateCategory(ctx context.Context, name, description string) (*Category, error)
	GetOrCreateExam(ctx context.Context, categoryID, name string, defaults *Exam) (*Exam, error)
	GetOrCreateTopic(ctx context.Context, examID, name, description string, order int) (*Topic, error)

	// UpsertQuestion updates-or-creates by (exam_id, question_text) and
	// reports whether a new row was created.
	UpsertQuestion(ctx context.Context, question *Question) (bool, error)

	// ReplaceChoices deletes the question's choices and recreates them.
	ReplaceChoices(ctx context.Context, questionID string, choices []Choice) error

	GetCategoryByID(ctx context.Context, id string) (*Category, error)
	GetExamByID(ctx context.Context, id string) (*Exam, error)
	GetQuestionByID(ctx context.Context, id string) (*Question, error)

	// ListCategories returns categories owning at least one exam that has
	// at least one active question.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListExams returns active exams with at least one active question,
	// optionally filtered by category.
	ListExams(ctx context.Context, categoryID string) ([]Exam, error)

	// ListActiveQuestions returns an exam's active questions with their
	// choices, ordered by (ord, id).
	ListActiveQuestions(ctx context.Context, examID string) ([]Question, error)

	CountActiveQuestions(ctx context.Context, examID string) (int, error)
}

// SessionRepository persists quiz sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *QuizSession) error
	GetSessionByID(ctx context.Context, id string) (*QuizSession, error)

	// GetIncompleteSession returns the user's open session for an exam,
	// or (nil, nil) when there is none.
	GetIncompleteSession(ctx context.Context, userID, examID string) (*QuizSession, error)

	UpdateSession(ctx context.Context, session *QuizSession) error
	ListSessionsByUser(ctx context.Context, userID string) ([]QuizSession, error)
}

// AnswerRepository persists per-question answers of a session.
type AnswerRepository interface {
	// UpsertAnswer creates or replaces the answer for the answer's
	// (session, question) pair, including its selected choices.
	UpsertAnswer(ctx context.Context, answer *UserAnswer) error

	GetAnswersBySession(ctx context.Context, sessionID string) ([]UserAnswer, error)
	CountCorrectAnswers(ctx context.Context, sessionID string) (int, error)
}

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// ProfileRepository persists the subscription/token side of a user.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *UserProfile) error
	GetProfileByUserID(ctx context.Context, userID string) (*UserProfile, error)
	UpdateProfile(ctx context.Context, profile *UserProfile) error

	// ListProfiles returns every profile; used by the daily token grant.
	ListProfiles(ctx context.Context) ([]UserProfile, error)
}

// BookmarkRepository persists per-user question bookmarks.
type BookmarkRepository interface {
	GetBookmark(ctx context.Context, userID, questionID string) (*BookmarkedQuestion, error)
	CreateBookmark(ctx context.Context, bookmark *BookmarkedQuestion) error
	DeleteBookmark(ctx context.Context, id string) error
	ListBookmarkedQuestions(ctx context.Context, userID string) ([]Question, error)
}

// Clock abstracts time.Now for the session services.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
