package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/repository/models"
	"quizhub/internal/util"

	"github.com/jmoiron/sqlx"
)

// AnswerDatabaseAdapter implements domain.AnswerRepository using sqlx.
// Selected choices live in the user_answer_choices junction table and are
// fully replaced on every submission.
type AnswerDatabaseAdapter struct {
	db *sqlx.DB
}

// NewAnswerDatabaseAdapter creates a new answer repository adapter.
func NewAnswerDatabaseAdapter(db *sqlx.DB) domain.AnswerRepository {
	return &AnswerDatabaseAdapter{db: db}
}

// UpsertAnswer implements domain.AnswerRepository. A re-submission for
// the same (session, question) pair overwrites the prior selection.
func (a *AnswerDatabaseAdapter) UpsertAnswer(ctx context.Context, answer *domain.UserAnswer) error {
	ex := GetExecutor(ctx, a.db)

	var existingID string
	query := `SELECT id FROM user_answers WHERE quiz_session_id = :1 AND question_id = :2`
	err := ex.GetContext(ctx, &existingID, query, answer.QuizSessionID, answer.QuestionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to look up existing answer: %w", err)
	}

	if answer.AnsweredAt.IsZero() {
		answer.AnsweredAt = time.Now()
	}

	if existingID != "" {
		answer.ID = existingID
		update := `UPDATE user_answers SET is_correct = :1, answered_at = :2 WHERE id = :3`
		if _, err := ex.ExecContext(ctx, update, answer.IsCorrect, answer.AnsweredAt, existingID); err != nil {
			return fmt.Errorf("failed to update answer: %w", err)
		}
		if _, err := ex.ExecContext(ctx, `DELETE FROM user_answer_choices WHERE user_answer_id = :1`, existingID); err != nil {
			return fmt.Errorf("failed to clear selected choices: %w", err)
		}
	} else {
		answer.ID = util.NewULID()
		m := models.UserAnswer{
			ID:            answer.ID,
			QuizSessionID: answer.QuizSessionID,
			QuestionID:    answer.QuestionID,
			IsCorrect:     answer.IsCorrect,
			AnsweredAt:    answer.AnsweredAt,
		}
		insert := `INSERT INTO user_answers (id, quiz_session_id, question_id, is_correct, answered_at)
		           VALUES (:id, :quiz_session_id, :question_id, :is_correct, :answered_at)`
		if _, err := ex.NamedExecContext(ctx, insert, &m); err != nil {
			return fmt.Errorf("failed to create answer: %w", err)
		}
	}

	for _, choiceID := range answer.SelectedChoiceIDs {
		link := `INSERT INTO user_answer_choices (user_answer_id, choice_id) VALUES (:1, :2)`
		if _, err := ex.ExecContext(ctx, link, answer.ID, choiceID); err != nil {
			return fmt.Errorf("failed to link selected choice %s: %w", choiceID, err)
		}
	}
	return nil
}

// GetAnswersBySession implements domain.AnswerRepository.
func (a *AnswerDatabaseAdapter) GetAnswersBySession(ctx context.Context, sessionID string) ([]domain.UserAnswer, error) {
	ex := GetExecutor(ctx, a.db)

	var rows []models.UserAnswer
	query := `SELECT id "id", quiz_session_id "quiz_session_id", question_id "question_id", is_correct "is_correct", answered_at "answered_at"
	          FROM user_answers WHERE quiz_session_id = :1 ORDER BY answered_at`
	if err := ex.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list answers for session %s: %w", sessionID, err)
	}

	type answerChoice struct {
		UserAnswerID string `db:"user_answer_id"`
		ChoiceID     string `db:"choice_id"`
	}
	var links []answerChoice
	linkQuery := `SELECT uac.user_answer_id "user_answer_id", uac.choice_id "choice_id"
	              FROM user_answer_choices uac
	              JOIN user_answers ua ON ua.id = uac.user_answer_id
	              WHERE ua.quiz_session_id = :1`
	if err := ex.SelectContext(ctx, &links, linkQuery, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list selected choices for session %s: %w", sessionID, err)
	}

	selected := make(map[string][]string)
	for _, l := range links {
		selected[l.UserAnswerID] = append(selected[l.UserAnswerID], l.ChoiceID)
	}

	answers := make([]domain.UserAnswer, 0, len(rows))
	for _, m := range rows {
		answers = append(answers, domain.UserAnswer{
			ID:                m.ID,
			QuizSessionID:     m.QuizSessionID,
			QuestionID:        m.QuestionID,
			SelectedChoiceIDs: selected[m.ID],
			IsCorrect:         m.IsCorrect,
			AnsweredAt:        m.AnsweredAt,
		})
	}
	return answers, nil
}

// CountCorrectAnswers implements domain.AnswerRepository.
func (a *AnswerDatabaseAdapter) CountCorrectAnswers(ctx context.Context, sessionID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_answers WHERE quiz_session_id = :1 AND is_correct = 1`
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &count, query, sessionID); err != nil {
		return 0, fmt.Errorf("failed to count correct answers for session %s: %w", sessionID, err)
	}
	return count, nil
}
