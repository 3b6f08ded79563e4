package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quizhub/internal/domain"
	"quizhub/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

const sessionColumns = `id "id", user_id "user_id", exam_id "exam_id", started_at "started_at", completed_at "completed_at", is_completed "is_completed", score "score", total_questions "total_questions", correct_answers "correct_answers", time_taken_seconds "time_taken_seconds", tokens_granted "tokens_granted", is_paused "is_paused", paused_at "paused_at", total_paused_seconds "total_paused_seconds"`

// SessionDatabaseAdapter implements domain.SessionRepository using sqlx.
type SessionDatabaseAdapter struct {
	db *sqlx.DB
}

// NewSessionDatabaseAdapter creates a new session repository adapter.
func NewSessionDatabaseAdapter(db *sqlx.DB) domain.SessionRepository {
	return &SessionDatabaseAdapter{db: db}
}

// CreateSession implements domain.SessionRepository.
func (a *SessionDatabaseAdapter) CreateSession(ctx context.Context, session *domain.QuizSession) error {
	m := fromDomainSession(session)
	query := `INSERT INTO quiz_sessions (id, user_id, exam_id, started_at, completed_at, is_completed, score, total_questions, correct_answers, time_taken_seconds, tokens_granted, is_paused, paused_at, total_paused_seconds)
	          VALUES (:id, :user_id, :exam_id, :started_at, :completed_at, :is_completed, :score, :total_questions, :correct_answers, :time_taken_seconds, :tokens_granted, :is_paused, :paused_at, :total_paused_seconds)`

	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create quiz session: %w", err)
	}
	return nil
}

// GetSessionByID implements domain.SessionRepository.
func (a *SessionDatabaseAdapter) GetSessionByID(ctx context.Context, id string) (*domain.QuizSession, error) {
	var m models.QuizSession
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions WHERE id = :id`

	ex := GetExecutor(ctx, a.db)
	stmt, err := ex.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetSessionByID: %w", err)
	}
	defer stmt.Close()

	if err := stmt.GetContext(ctx, &m, map[string]interface{}{"id": id}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz session by ID %s: %w", id, err)
	}
	return toDomainSession(&m), nil
}

// GetIncompleteSession implements domain.SessionRepository. An open
// session for the same (user, exam) pair is reused instead of creating a
// new attempt.
func (a *SessionDatabaseAdapter) GetIncompleteSession(ctx context.Context, userID, examID string) (*domain.QuizSession, error) {
	var m models.QuizSession
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions
	          WHERE user_id = :user_id AND exam_id = :exam_id AND is_completed = 0
	          ORDER BY started_at DESC
	          FETCH FIRST 1 ROWS ONLY`

	ex := GetExecutor(ctx, a.db)
	stmt, err := ex.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query for GetIncompleteSession: %w", err)
	}
	defer stmt.Close()

	args := map[string]interface{}{"user_id": userID, "exam_id": examID}
	if err := stmt.GetContext(ctx, &m, args); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incomplete session: %w", err)
	}
	return toDomainSession(&m), nil
}

// UpdateSession implements domain.SessionRepository.
func (a *SessionDatabaseAdapter) UpdateSession(ctx context.Context, session *domain.QuizSession) error {
	m := fromDomainSession(session)
	query := `UPDATE quiz_sessions SET
				completed_at = :completed_at,
				is_completed = :is_completed,
				score = :score,
				total_questions = :total_questions,
				correct_answers = :correct_answers,
				time_taken_seconds = :time_taken_seconds,
				tokens_granted = :tokens_granted,
				is_paused = :is_paused,
				paused_at = :paused_at,
				total_paused_seconds = :total_paused_seconds
			WHERE id = :id`

	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to update quiz session %s: %w", session.ID, err)
	}
	return nil
}

// ListSessionsByUser implements domain.SessionRepository.
func (a *SessionDatabaseAdapter) ListSessionsByUser(ctx context.Context, userID string) ([]domain.QuizSession, error) {
	var rows []models.QuizSession
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions
	          WHERE user_id = :1 ORDER BY started_at DESC`

	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions for user %s: %w", userID, err)
	}

	sessions := make([]domain.QuizSession, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, *toDomainSession(&rows[i]))
	}
	return sessions, nil
}
