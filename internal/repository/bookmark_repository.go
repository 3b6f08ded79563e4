package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// BookmarkDatabaseAdapter implements domain.BookmarkRepository using sqlx.
type BookmarkDatabaseAdapter struct {
	db *sqlx.DB
}

// NewBookmarkDatabaseAdapter creates a new bookmark repository adapter.
func NewBookmarkDatabaseAdapter(db *sqlx.DB) domain.BookmarkRepository {
	return &BookmarkDatabaseAdapter{db: db}
}

// GetBookmark implements domain.BookmarkRepository.
func (a *BookmarkDatabaseAdapter) GetBookmark(ctx context.Context, userID, questionID string) (*domain.BookmarkedQuestion, error) {
	var m models.BookmarkedQuestion
	query := `SELECT id "id", user_id "user_id", question_id "question_id", created_at "created_at"
	          FROM bookmarked_questions WHERE user_id = :1 AND question_id = :2`

	if err := GetExecutor(ctx, a.db).GetContext(ctx, &m, query, userID, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return &domain.BookmarkedQuestion{
		ID:         m.ID,
		UserID:     m.UserID,
		QuestionID: m.QuestionID,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// CreateBookmark implements domain.BookmarkRepository.
func (a *BookmarkDatabaseAdapter) CreateBookmark(ctx context.Context, bookmark *domain.BookmarkedQuestion) error {
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now()
	}
	m := models.BookmarkedQuestion{
		ID:         bookmark.ID,
		UserID:     bookmark.UserID,
		QuestionID: bookmark.QuestionID,
		CreatedAt:  bookmark.CreatedAt,
	}
	query := `INSERT INTO bookmarked_questions (id, user_id, question_id, created_at)
	          VALUES (:id, :user_id, :question_id, :created_at)`

	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, &m); err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	return nil
}

// DeleteBookmark implements domain.BookmarkRepository.
func (a *BookmarkDatabaseAdapter) DeleteBookmark(ctx context.Context, id string) error {
	if _, err := GetExecutor(ctx, a.db).ExecContext(ctx, `DELETE FROM bookmarked_questions WHERE id = :1`, id); err != nil {
		return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
	}
	return nil
}

// ListBookmarkedQuestions implements domain.BookmarkRepository. Choices
// are not loaded; bookmark listings only show the question itself.
func (a *BookmarkDatabaseAdapter) ListBookmarkedQuestions(ctx context.Context, userID string) ([]domain.Question, error) {
	var rows []models.Question
	query := `SELECT q.id "id", q.exam_id "exam_id", q.topic_id "topic_id", q.question_text "question_text", q.question_type "question_type", q.difficulty "difficulty", q.explanation "explanation", q.points "points", q.ord "ord", q.is_active "is_active", q.created_at "created_at", q.updated_at "updated_at"
	          FROM questions q
	          JOIN bookmarked_questions b ON b.question_id = q.id
	          WHERE b.user_id = :1
	          ORDER BY b.created_at DESC`

	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bookmarked questions for user %s: %w", userID, err)
	}

	questions := make([]domain.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, *toDomainQuestion(&rows[i], nil))
	}
	return questions, nil
}
