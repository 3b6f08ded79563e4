package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
)

func askFixtures() (*domain.QuizSession, *domain.Question) {
	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: baseTime()}
	question := &domain.Question{
		ID: "q1", ExamID: "exam1", QuestionText: "What is a prime number?",
		QuestionType: domain.QuestionTypeSingle, Difficulty: domain.DifficultyEasy,
		IsActive: true,
		Choices: []domain.Choice{
			{ID: "c1", ChoiceText: "A number divisible only by 1 and itself", IsCorrect: true},
			{ID: "c2", ChoiceText: "An even number"},
		},
	}
	return session, question
}

func TestAssistantService_Ask_DeductsTokenAfterSuccess(t *testing.T) {
	session, question := askFixtures()
	assistant := new(MockAssistant)
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)
	profileRepo := new(MockProfileRepository)

	profile := &domain.UserProfile{ID: "prof1", UserID: "user1", Tokens: 3}

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(question, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("GetCategoryByID", mock.Anything, "cat1").
		Return(&domain.Category{ID: "cat1", Name: "Math"}, nil)
	assistant.On("Chat", mock.Anything, "what makes a number prime?", mock.MatchedBy(func(qctx *domain.QuestionContext) bool {
		return qctx.QuestionText == question.QuestionText &&
			qctx.ExamName == "Algebra Basics" &&
			qctx.CategoryName == "Math" &&
			len(qctx.ChoiceTexts) == 2
	})).Return("A prime has exactly two divisors.", nil)
	profileRepo.On("UpdateProfile", mock.Anything, profile).Return(nil)

	svc := NewAssistantService(assistant, sessionRepo, catalogRepo, profileRepo, fixedClock{now: baseTime()})
	resp, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "what makes a number prime?"})

	assert.NoError(t, err)
	assert.Equal(t, "A prime has exactly two divisors.", resp.Reply)
	assert.Equal(t, 2, resp.TokensRemaining)
	profileRepo.AssertExpectations(t)
}

func TestAssistantService_Ask_InsufficientTokens(t *testing.T) {
	session, question := askFixtures()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)
	profileRepo := new(MockProfileRepository)

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(question, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").
		Return(&domain.UserProfile{ID: "prof1", UserID: "user1", Tokens: 0}, nil)

	svc := NewAssistantService(new(MockAssistant), sessionRepo, catalogRepo, profileRepo, fixedClock{now: baseTime()})
	_, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "help"})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInsufficientTokens, domainErr.Code)
}

func TestAssistantService_Ask_NoTokenDeductedOnFailure(t *testing.T) {
	session, question := askFixtures()
	assistant := new(MockAssistant)
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)
	profileRepo := new(MockProfileRepository)

	profile := &domain.UserProfile{ID: "prof1", UserID: "user1", Tokens: 3}

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(question, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("GetCategoryByID", mock.Anything, "cat1").
		Return(&domain.Category{ID: "cat1", Name: "Math"}, nil)
	assistant.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	svc := NewAssistantService(assistant, sessionRepo, catalogRepo, profileRepo, fixedClock{now: baseTime()})
	_, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "help"})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeAssistantUnavailable, domainErr.Code)
	assert.Equal(t, 3, profile.Tokens)
	profileRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestAssistantService_Ask_NilAssistantUnavailable(t *testing.T) {
	session, question := askFixtures()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)
	profileRepo := new(MockProfileRepository)

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(question, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").
		Return(&domain.UserProfile{ID: "prof1", UserID: "user1", Tokens: 3}, nil)

	svc := NewAssistantService(nil, sessionRepo, catalogRepo, profileRepo, fixedClock{now: baseTime()})
	_, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "help"})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeAssistantUnavailable, domainErr.Code)
}

func TestAssistantService_Ask_ForeignSessionNotFound(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(&domain.QuizSession{
		ID: "sess1", UserID: "someone_else", ExamID: "exam1",
	}, nil)

	svc := NewAssistantService(new(MockAssistant), sessionRepo, new(MockCatalogRepository), new(MockProfileRepository), fixedClock{now: baseTime()})
	_, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "help"})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionNotFound, domainErr.Code)
}

func TestAssistantService_Ask_EmptyMessageRejected(t *testing.T) {
	svc := NewAssistantService(new(MockAssistant), new(MockSessionRepository), new(MockCatalogRepository), new(MockProfileRepository), fixedClock{now: baseTime()})
	_, err := svc.Ask(context.Background(), "user1", "sess1", "q1",
		dto.AssistantRequest{Message: "   "})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
}
