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

const categoryColumns = `id "id", name "name", exam_category "exam_category", description "description", created_at "created_at", updated_at "updated_at"`
const examColumns = `id "id", category_id "category_id", name "name", description "description", duration_minutes "duration_minutes", total_questions "total_questions", passing_score "passing_score", is_active "is_active", created_at "created_at", updated_at "updated_at"`
const questionColumns = `id "id", exam_id "exam_id", topic_id "topic_id", question_text "question_text", question_type "question_type", difficulty "difficulty", explanation "explanation", points "points", ord "ord", is_active "is_active", created_at "created_at", updated_at "updated_at"`
const choiceColumns = `id "id", question_id "question_id", choice_text "choice_text", is_correct "is_correct", ord "ord"`

// CatalogDatabaseAdapter implements domain.CatalogRepository using sqlx.
type CatalogDatabaseAdapter struct {
	db *sqlx.DB
}

// NewCatalogDatabaseAdapter creates a new catalog repository adapter.
func NewCatalogDatabaseAdapter(db *sqlx.DB) domain.CatalogRepository {
	return &CatalogDatabaseAdapter{db: db}
}

func (a *CatalogDatabaseAdapter) getNamed(ctx context.Context, dest interface{}, query string, args map[string]interface{}) error {
	ex := GetExecutor(ctx, a.db)
	stmt, err := ex.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()
	return stmt.GetContext(ctx, dest, args)
}

// GetOrCreateCategory implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) GetOrCreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	var m models.Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE name = :name`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"name": name})
	if err == nil {
		return toDomainCategory(&m), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}

	now := time.Now()
	// Empty optional text binds as NULL; Oracle would store '' as NULL
	// anyway, and the columns are nullable to match.
	m = models.Category{
		ID:          util.NewULID(),
		Name:        name,
		Description: util.StringToNullString(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	insert := `INSERT INTO categories (id, name, exam_category, description, created_at, updated_at)
	           VALUES (:id, :name, :exam_category, :description, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, insert, &m); err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return toDomainCategory(&m), nil
}

// GetOrCreateExam implements domain.CatalogRepository. The defaults are
// only applied when the exam does not exist yet.
func (a *CatalogDatabaseAdapter) GetOrCreateExam(ctx context.Context, categoryID, name string, defaults *domain.Exam) (*domain.Exam, error) {
	var m models.Exam
	query := `SELECT ` + examColumns + ` FROM exams WHERE category_id = :category_id AND name = :name`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"category_id": categoryID, "name": name})
	if err == nil {
		return toDomainExam(&m), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get exam by name: %w", err)
	}

	now := time.Now()
	m = models.Exam{
		ID:              util.NewULID(),
		CategoryID:      categoryID,
		Name:            name,
		DurationMinutes: 60,
		TotalQuestions:  10,
		PassingScore:    60,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if defaults != nil {
		m.Description = util.StringToNullString(defaults.Description)
		if defaults.DurationMinutes > 0 {
			m.DurationMinutes = defaults.DurationMinutes
		}
		if defaults.TotalQuestions > 0 {
			m.TotalQuestions = defaults.TotalQuestions
		}
		if defaults.PassingScore > 0 {
			m.PassingScore = defaults.PassingScore
		}
	}
	insert := `INSERT INTO exams (id, category_id, name, description, duration_minutes, total_questions, passing_score, is_active, created_at, updated_at)
	           VALUES (:id, :category_id, :name, :description, :duration_minutes, :total_questions, :passing_score, :is_active, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, insert, &m); err != nil {
		return nil, fmt.Errorf("failed to create exam %q: %w", name, err)
	}
	return toDomainExam(&m), nil
}

// GetOrCreateTopic implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) GetOrCreateTopic(ctx context.Context, examID, name, description string, order int) (*domain.Topic, error) {
	var m models.Topic
	query := `SELECT id "id", exam_id "exam_id", name "name", description "description", ord "ord"
	          FROM topics WHERE exam_id = :exam_id AND name = :name`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"exam_id": examID, "name": name})
	if err == nil {
		return toDomainTopic(&m), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get topic by name: %w", err)
	}

	m = models.Topic{
		ID:          util.NewULID(),
		ExamID:      examID,
		Name:        name,
		Description: util.StringToNullString(description),
		Ord:         order,
	}
	insert := `INSERT INTO topics (id, exam_id, name, description, ord)
	           VALUES (:id, :exam_id, :name, :description, :ord)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, insert, &m); err != nil {
		return nil, fmt.Errorf("failed to create topic %q: %w", name, err)
	}
	return toDomainTopic(&m), nil
}

// UpsertQuestion implements domain.CatalogRepository: update-or-create by
// (exam_id, question_text). The question's ID is filled in either way.
func (a *CatalogDatabaseAdapter) UpsertQuestion(ctx context.Context, question *domain.Question) (bool, error) {
	var existing models.Question
	query := `SELECT ` + questionColumns + ` FROM questions
	          WHERE exam_id = :exam_id AND question_text = :question_text`

	err := a.getNamed(ctx, &existing, query, map[string]interface{}{
		"exam_id":       question.ExamID,
		"question_text": question.QuestionText,
	})

	now := time.Now()
	m := models.Question{
		ExamID:       question.ExamID,
		TopicID:      util.StringToNullString(question.TopicID),
		QuestionText: question.QuestionText,
		QuestionType: string(question.QuestionType),
		Difficulty:   string(question.Difficulty),
		Explanation:  util.StringToNullString(question.Explanation),
		Points:       question.Points,
		Ord:          question.Order,
		IsActive:     question.IsActive,
		UpdatedAt:    now,
	}

	if err == nil {
		m.ID = existing.ID
		update := `UPDATE questions SET
					topic_id = :topic_id,
					question_type = :question_type,
					difficulty = :difficulty,
					explanation = :explanation,
					points = :points,
					ord = :ord,
					is_active = :is_active,
					updated_at = :updated_at
				WHERE id = :id`
		if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, update, &m); err != nil {
			return false, fmt.Errorf("failed to update question: %w", err)
		}
		question.ID = existing.ID
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to look up question: %w", err)
	}

	m.ID = util.NewULID()
	m.CreatedAt = now
	insert := `INSERT INTO questions (id, exam_id, topic_id, question_text, question_type, difficulty, explanation, points, ord, is_active, created_at, updated_at)
	           VALUES (:id, :exam_id, :topic_id, :question_text, :question_type, :difficulty, :explanation, :points, :ord, :is_active, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, insert, &m); err != nil {
		return false, fmt.Errorf("failed to create question: %w", err)
	}
	question.ID = m.ID
	return true, nil
}

// ReplaceChoices implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) ReplaceChoices(ctx context.Context, questionID string, choices []domain.Choice) error {
	ex := GetExecutor(ctx, a.db)

	if _, err := ex.ExecContext(ctx, `DELETE FROM choices WHERE question_id = :1`, questionID); err != nil {
		return fmt.Errorf("failed to delete existing choices: %w", err)
	}

	insert := `INSERT INTO choices (id, question_id, choice_text, is_correct, ord)
	           VALUES (:id, :question_id, :choice_text, :is_correct, :ord)`
	for i := range choices {
		m := models.Choice{
			ID:         util.NewULID(),
			QuestionID: questionID,
			ChoiceText: choices[i].ChoiceText,
			IsCorrect:  choices[i].IsCorrect,
			Ord:        choices[i].Order,
		}
		if _, err := ex.NamedExecContext(ctx, insert, &m); err != nil {
			return fmt.Errorf("failed to create choice %d: %w", i+1, err)
		}
	}
	return nil
}

// GetCategoryByID implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	var m models.Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = :id`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category by ID %s: %w", id, err)
	}
	return toDomainCategory(&m), nil
}

// GetExamByID implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) GetExamByID(ctx context.Context, id string) (*domain.Exam, error) {
	var m models.Exam
	query := `SELECT ` + examColumns + ` FROM exams WHERE id = :id`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exam by ID %s: %w", id, err)
	}
	return toDomainExam(&m), nil
}

// GetQuestionByID implements domain.CatalogRepository. Choices are loaded
// with the question.
func (a *CatalogDatabaseAdapter) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	var m models.Question
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = :id`

	err := a.getNamed(ctx, &m, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question by ID %s: %w", id, err)
	}

	choices, err := a.choicesForQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomainQuestion(&m, choices), nil
}

func (a *CatalogDatabaseAdapter) choicesForQuestion(ctx context.Context, questionID string) ([]models.Choice, error) {
	var choices []models.Choice
	query := `SELECT ` + choiceColumns + ` FROM choices WHERE question_id = :1 ORDER BY ord, id`
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &choices, query, questionID); err != nil {
		return nil, fmt.Errorf("failed to load choices for question %s: %w", questionID, err)
	}
	return choices, nil
}

// ListCategories implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []models.Category
	query := `SELECT ` + categoryColumns + ` FROM categories c
	          WHERE EXISTS (
	              SELECT 1 FROM exams e
	              JOIN questions q ON q.exam_id = e.id
	              WHERE e.category_id = c.id AND e.is_active = 1 AND q.is_active = 1
	          )
	          ORDER BY name`
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, *toDomainCategory(&rows[i]))
	}
	return categories, nil
}

// ListExams implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) ListExams(ctx context.Context, categoryID string) ([]domain.Exam, error) {
	var rows []models.Exam
	query := `SELECT ` + examColumns + ` FROM exams e
	          WHERE e.is_active = 1
	          AND EXISTS (SELECT 1 FROM questions q WHERE q.exam_id = e.id AND q.is_active = 1)`
	args := []interface{}{}
	if categoryID != "" {
		query += ` AND e.category_id = :1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	exams := make([]domain.Exam, 0, len(rows))
	for i := range rows {
		exams = append(exams, *toDomainExam(&rows[i]))
	}
	return exams, nil
}

// ListActiveQuestions implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) ListActiveQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	ex := GetExecutor(ctx, a.db)

	var qRows []models.Question
	query := `SELECT ` + questionColumns + ` FROM questions
	          WHERE exam_id = :1 AND is_active = 1 ORDER BY ord, id`
	if err := ex.SelectContext(ctx, &qRows, query, examID); err != nil {
		return nil, fmt.Errorf("failed to list questions for exam %s: %w", examID, err)
	}

	var cRows []models.Choice
	choiceQuery := `SELECT ` + choiceColumns + ` FROM choices
	                WHERE question_id IN (SELECT id FROM questions WHERE exam_id = :1 AND is_active = 1)
	                ORDER BY ord, id`
	if err := ex.SelectContext(ctx, &cRows, choiceQuery, examID); err != nil {
		return nil, fmt.Errorf("failed to list choices for exam %s: %w", examID, err)
	}

	byQuestion := make(map[string][]models.Choice)
	for _, c := range cRows {
		byQuestion[c.QuestionID] = append(byQuestion[c.QuestionID], c)
	}

	questions := make([]domain.Question, 0, len(qRows))
	for i := range qRows {
		questions = append(questions, *toDomainQuestion(&qRows[i], byQuestion[qRows[i].ID]))
	}
	return questions, nil
}

// CountActiveQuestions implements domain.CatalogRepository.
func (a *CatalogDatabaseAdapter) CountActiveQuestions(ctx context.Context, examID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM questions WHERE exam_id = :1 AND is_active = 1`
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &count, query, examID); err != nil {
		return 0, fmt.Errorf("failed to count active questions for exam %s: %w", examID, err)
	}
	return count, nil
}
