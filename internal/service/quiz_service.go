package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/logger"
)

const (
	categoriesCacheKey   = "catalog:categories"
	examsCacheKeyPrefix  = "catalog:exams:"
	catalogCacheDuration = 10 * time.Minute
)

// QuizService serves the public catalog: categories and exams that have
// at least one active question. Listings are cached in redis; a cache
// failure falls through to the database.
type QuizService interface {
	ListCategories(ctx context.Context) ([]dto.CategoryResponse, error)
	ListExams(ctx context.Context, categoryID string) ([]dto.ExamResponse, error)
	GetExam(ctx context.Context, examID string) (*dto.ExamResponse, error)
	GetExamQuestions(ctx context.Context, examID string) ([]dto.QuestionResponse, error)
}

type quizServiceImpl struct {
	catalogRepo domain.CatalogRepository
	cache       domain.Cache
}

// NewQuizService creates a new QuizService. cache may be nil, in which
// case every call hits the database.
func NewQuizService(catalogRepo domain.CatalogRepository, cache domain.Cache) QuizService {
	return &quizServiceImpl{catalogRepo: catalogRepo, cache: cache}
}

func (s *quizServiceImpl) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	var cached []dto.CategoryResponse
	if s.cacheGet(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}

	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to list categories", err)
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, dto.CategoryResponse{
			ID:           c.ID,
			Name:         c.Name,
			ExamCategory: c.ExamCategory,
			Description:  c.Description,
		})
	}

	s.cacheSet(ctx, categoriesCacheKey, responses)
	return responses, nil
}

func (s *quizServiceImpl) ListExams(ctx context.Context, categoryID string) ([]dto.ExamResponse, error) {
	cacheKey := examsCacheKeyPrefix + categoryID

	var cached []dto.ExamResponse
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	exams, err := s.catalogRepo.ListExams(ctx, categoryID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list exams", err)
	}

	responses := make([]dto.ExamResponse, 0, len(exams))
	for _, e := range exams {
		responses = append(responses, toExamResponse(&e))
	}

	s.cacheSet(ctx, cacheKey, responses)
	return responses, nil
}

func (s *quizServiceImpl) GetExam(ctx context.Context, examID string) (*dto.ExamResponse, error) {
	exam, err := s.catalogRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch exam", err)
	}
	if exam == nil || !exam.IsActive {
		return nil, domain.NewExamNotFoundError(examID)
	}
	resp := toExamResponse(exam)
	return &resp, nil
}

// GetExamQuestions returns the exam's active questions for quiz taking.
// Correct-answer flags are never included.
func (s *quizServiceImpl) GetExamQuestions(ctx context.Context, examID string) ([]dto.QuestionResponse, error) {
	exam, err := s.catalogRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch exam", err)
	}
	if exam == nil || !exam.IsActive {
		return nil, domain.NewExamNotFoundError(examID)
	}

	questions, err := s.catalogRepo.ListActiveQuestions(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list questions", err)
	}

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, toQuestionResponse(&q))
	}
	return responses, nil
}

func toExamResponse(e *domain.Exam) dto.ExamResponse {
	return dto.ExamResponse{
		ID:              e.ID,
		CategoryID:      e.CategoryID,
		Name:            e.Name,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		TotalQuestions:  e.TotalQuestions,
		PassingScore:    e.PassingScore,
	}
}

func toQuestionResponse(q *domain.Question) dto.QuestionResponse {
	choices := make([]dto.ChoiceResponse, 0, len(q.Choices))
	for _, c := range q.Choices {
		choices = append(choices, dto.ChoiceResponse{
			ID:         c.ID,
			ChoiceText: c.ChoiceText,
			Order:      c.Order,
		})
	}
	return dto.QuestionResponse{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: string(q.QuestionType),
		Difficulty:   string(q.Difficulty),
		Points:       q.Points,
		Order:        q.Order,
		Choices:      choices,
	}
}

func (s *quizServiceImpl) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Get().Warn("Cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *quizServiceImpl) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), catalogCacheDuration); err != nil {
		logger.Get().Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
