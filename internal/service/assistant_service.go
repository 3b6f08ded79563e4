package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/logger"
)

// AssistantService fronts the AI study assistant: it checks the token
// balance, builds the question context the model may see, and deducts
// one token only after the external call succeeds.
type AssistantService interface {
	Ask(ctx context.Context, userID, sessionID, questionID string, req dto.AssistantRequest) (*dto.AssistantResponse, error)
}

type assistantServiceImpl struct {
	assistant   domain.Assistant
	sessionRepo domain.SessionRepository
	catalogRepo domain.CatalogRepository
	profileRepo domain.ProfileRepository
	clock       domain.Clock
}

// NewAssistantService creates a new AssistantService. assistant may be
// nil when no API key is configured; calls then degrade to an
// assistant-unavailable error.
func NewAssistantService(
	assistant domain.Assistant,
	sessionRepo domain.SessionRepository,
	catalogRepo domain.CatalogRepository,
	profileRepo domain.ProfileRepository,
	clock domain.Clock,
) AssistantService {
	return &assistantServiceImpl{
		assistant:   assistant,
		sessionRepo: sessionRepo,
		catalogRepo: catalogRepo,
		profileRepo: profileRepo,
		clock:       clock,
	}
}

func (s *assistantServiceImpl) Ask(ctx context.Context, userID, sessionID, questionID string, req dto.AssistantRequest) (*dto.AssistantResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.NewInvalidInputError("message is required")
	}

	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch session", err)
	}
	if session == nil || session.UserID != userID {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}

	question, err := s.catalogRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch question", err)
	}
	if question == nil || question.ExamID != session.ExamID {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Question not found in this exam: %s", questionID))
	}

	profile, err := s.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch profile", err)
	}
	if profile == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Profile not found for user: %s", userID))
	}
	if !profile.HasTokens(domain.AssistantTokenCost) {
		return nil, domain.NewInsufficientTokensError(profile.Tokens)
	}

	if s.assistant == nil {
		return nil, domain.NewAssistantUnavailableError(nil)
	}

	qctx, err := s.buildQuestionContext(ctx, session.ExamID, question)
	if err != nil {
		return nil, err
	}

	reply, err := s.assistant.Chat(ctx, message, qctx)
	if err != nil {
		logger.Get().Error("Assistant call failed",
			zap.String("userID", userID),
			zap.String("questionID", questionID),
			zap.Error(err))
		return nil, domain.NewAssistantUnavailableError(err)
	}

	// Deduct only after a successful call. Check-then-act: a concurrent
	// request on the same balance can slip through, as in the original.
	profile.DeductTokens(domain.AssistantTokenCost)
	profile.UpdatedAt = s.clock.Now()
	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, domain.NewInternalError("failed to deduct token", err)
	}

	return &dto.AssistantResponse{
		Reply:           reply,
		TokensRemaining: profile.Tokens,
	}, nil
}

// buildQuestionContext assembles what the model is allowed to see.
// Correct-answer flags never cross this boundary.
func (s *assistantServiceImpl) buildQuestionContext(ctx context.Context, examID string, question *domain.Question) (*domain.QuestionContext, error) {
	exam, err := s.catalogRepo.GetExamByID(ctx, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch exam", err)
	}

	qctx := &domain.QuestionContext{
		QuestionText: question.QuestionText,
		Difficulty:   string(question.Difficulty),
		QuestionType: string(question.QuestionType),
	}
	for _, c := range question.Choices {
		qctx.ChoiceTexts = append(qctx.ChoiceTexts, c.ChoiceText)
	}
	if exam != nil {
		qctx.ExamName = exam.Name
		if category, err := s.catalogRepo.GetCategoryByID(ctx, exam.CategoryID); err == nil && category != nil {
			qctx.CategoryName = category.Name
		}
	}
	return qctx, nil
}
