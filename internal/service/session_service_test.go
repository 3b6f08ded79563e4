package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
)

func baseTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func activeExam() *domain.Exam {
	return &domain.Exam{
		ID:              "exam1",
		CategoryID:      "cat1",
		Name:            "Algebra Basics",
		DurationMinutes: 60,
		PassingScore:    60,
		IsActive:        true,
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID: "q1", ExamID: "exam1", QuestionText: "2+2?",
			QuestionType: domain.QuestionTypeSingle, IsActive: true,
			Choices: []domain.Choice{
				{ID: "c1", QuestionID: "q1", ChoiceText: "3"},
				{ID: "c2", QuestionID: "q1", ChoiceText: "4", IsCorrect: true},
			},
		},
		{
			ID: "q2", ExamID: "exam1", QuestionText: "3+3?",
			QuestionType: domain.QuestionTypeSingle, IsActive: true,
			Choices: []domain.Choice{
				{ID: "c3", QuestionID: "q2", ChoiceText: "6", IsCorrect: true},
				{ID: "c4", QuestionID: "q2", ChoiceText: "9"},
			},
		},
	}
}

func newSessionServiceForTest(
	sessionRepo *MockSessionRepository,
	answerRepo *MockAnswerRepository,
	catalogRepo *MockCatalogRepository,
	profileRepo *MockProfileRepository,
	now time.Time,
) SessionService {
	return NewSessionService(sessionRepo, answerRepo, catalogRepo, profileRepo,
		passthroughTxManager{}, fixedClock{now: now})
}

func TestSessionService_StartSession_CreatesNewSession(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("ListActiveQuestions", mock.Anything, "exam1").Return(sampleQuestions(), nil)
	sessionRepo.On("GetIncompleteSession", mock.Anything, "user1", "exam1").Return(nil, nil)
	sessionRepo.On("CreateSession", mock.Anything, mock.MatchedBy(func(s *domain.QuizSession) bool {
		return s.UserID == "user1" && s.ExamID == "exam1" &&
			s.TotalQuestions == 2 && s.StartedAt.Equal(now) && s.ID != ""
	})).Return(nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), now)
	resp, err := svc.StartSession(context.Background(), "user1", "exam1")

	assert.NoError(t, err)
	assert.False(t, resp.Resumed)
	assert.Len(t, resp.Questions, 2)
	assert.Equal(t, 3600, resp.Session.RemainingSeconds)
	sessionRepo.AssertExpectations(t)
}

func TestSessionService_StartSession_ReusesIncompleteSession(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	open := &domain.QuizSession{
		ID: "sess1", UserID: "user1", ExamID: "exam1",
		StartedAt:      now.Add(-10 * time.Minute),
		TotalQuestions: 2,
	}
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("ListActiveQuestions", mock.Anything, "exam1").Return(sampleQuestions(), nil)
	sessionRepo.On("GetIncompleteSession", mock.Anything, "user1", "exam1").Return(open, nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), now)
	resp, err := svc.StartSession(context.Background(), "user1", "exam1")

	assert.NoError(t, err)
	assert.True(t, resp.Resumed)
	assert.Equal(t, "sess1", resp.Session.ID)
	assert.Equal(t, 3000, resp.Session.RemainingSeconds)
	sessionRepo.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestSessionService_StartSession_ExamWithoutQuestions(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("ListActiveQuestions", mock.Anything, "exam1").Return([]domain.Question{}, nil)

	svc := newSessionServiceForTest(new(MockSessionRepository), new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), baseTime())
	_, err := svc.StartSession(context.Background(), "user1", "exam1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeExamHasNoQuestions, domainErr.Code)
}

func TestSessionService_StartSession_InactiveExamNotFound(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	inactive := activeExam()
	inactive.IsActive = false
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(inactive, nil)

	svc := newSessionServiceForTest(new(MockSessionRepository), new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), baseTime())
	_, err := svc.StartSession(context.Background(), "user1", "exam1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeExamNotFound, domainErr.Code)
}

func TestSessionService_GetSession_ForeignSessionReportedNotFound(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(&domain.QuizSession{
		ID: "sess1", UserID: "someone_else", ExamID: "exam1",
	}, nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), new(MockCatalogRepository), new(MockProfileRepository), baseTime())
	_, err := svc.GetSession(context.Background(), "user1", "sess1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionNotFound, domainErr.Code)
}

func TestSessionService_SubmitAnswer_EvaluatesAndUpserts(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	answerRepo := new(MockAnswerRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: now.Add(-time.Minute)}
	question := sampleQuestions()[0]

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(&question, nil)
	answerRepo.On("UpsertAnswer", mock.Anything, mock.MatchedBy(func(a *domain.UserAnswer) bool {
		return a.QuizSessionID == "sess1" && a.QuestionID == "q1" && a.IsCorrect
	})).Return(nil)

	svc := newSessionServiceForTest(sessionRepo, answerRepo, catalogRepo, new(MockProfileRepository), now)
	resp, err := svc.SubmitAnswer(context.Background(), "user1", "sess1", dto.SubmitAnswerRequest{
		QuestionID:        "q1",
		SelectedChoiceIDs: []string{"c2"},
	})

	assert.NoError(t, err)
	assert.True(t, resp.IsCorrect)
	answerRepo.AssertExpectations(t)
}

func TestSessionService_SubmitAnswer_RejectsForeignChoice(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: now}
	question := sampleQuestions()[0]

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(&question, nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), now)
	_, err := svc.SubmitAnswer(context.Background(), "user1", "sess1", dto.SubmitAnswerRequest{
		QuestionID:        "q1",
		SelectedChoiceIDs: []string{"c3"}, // belongs to q2
	})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidChoices, domainErr.Code)
}

func TestSessionService_SubmitAnswer_CompletedSessionRejected(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", IsCompleted: true}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), baseTime())
	_, err := svc.SubmitAnswer(context.Background(), "user1", "sess1", dto.SubmitAnswerRequest{
		QuestionID:        "q1",
		SelectedChoiceIDs: []string{"c2"},
	})

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionCompleted, domainErr.Code)
}

func TestSessionService_PauseAndResume_AdjustRemainingTime(t *testing.T) {
	start := baseTime()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: start}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	sessionRepo.On("UpdateSession", mock.Anything, session).Return(nil)

	pauseAt := start.Add(10 * time.Minute)
	svcAtPause := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), pauseAt)
	paused, err := svcAtPause.PauseSession(context.Background(), "user1", "sess1")
	assert.NoError(t, err)
	assert.True(t, paused.IsPaused)
	assert.Equal(t, 3000, paused.RemainingSeconds)

	// Pausing again is rejected.
	_, err = svcAtPause.PauseSession(context.Background(), "user1", "sess1")
	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)

	// Five paused minutes later the clock has not moved.
	resumeAt := pauseAt.Add(5 * time.Minute)
	svcAtResume := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), resumeAt)
	resumed, err := svcAtResume.ResumeSession(context.Background(), "user1", "sess1")
	assert.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	assert.Equal(t, 3000, resumed.RemainingSeconds)
	assert.Equal(t, 300, session.TotalPausedSeconds)
}

func TestSessionService_CompleteSession_ScoresAgainstActiveCount(t *testing.T) {
	start := baseTime()
	completeAt := start.Add(20 * time.Minute)
	sessionRepo := new(MockSessionRepository)
	answerRepo := new(MockAnswerRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: start, TotalQuestions: 2}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("CountActiveQuestions", mock.Anything, "exam1").Return(4, nil)
	answerRepo.On("CountCorrectAnswers", mock.Anything, "sess1").Return(3, nil)
	sessionRepo.On("UpdateSession", mock.Anything, session).Return(nil)

	svc := newSessionServiceForTest(sessionRepo, answerRepo, catalogRepo, new(MockProfileRepository), completeAt)
	resp, err := svc.CompleteSession(context.Background(), "user1", "sess1")

	assert.NoError(t, err)
	assert.True(t, resp.IsCompleted)
	assert.Equal(t, 75.0, resp.Score)
	assert.Equal(t, 4, resp.TotalQuestions)
	assert.Equal(t, 3, resp.CorrectAnswers)
	assert.Equal(t, 1200, session.TimeTakenSeconds)
}

func TestSessionService_CompleteSession_TwiceRejected(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", IsCompleted: true}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), baseTime())
	_, err := svc.CompleteSession(context.Background(), "user1", "sess1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionCompleted, domainErr.Code)
}

func TestSessionService_GetResults_GrantsPassBonusOnce(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	answerRepo := new(MockAnswerRepository)
	catalogRepo := new(MockCatalogRepository)
	profileRepo := new(MockProfileRepository)

	session := &domain.QuizSession{
		ID: "sess1", UserID: "user1", ExamID: "exam1",
		StartedAt: now.Add(-30 * time.Minute), CompletedAt: now,
		IsCompleted: true,
	}
	profile := &domain.UserProfile{ID: "prof1", UserID: "user1", SubscriptionPlan: domain.PlanBasic, Tokens: 20}
	questions := sampleQuestions()

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("CountActiveQuestions", mock.Anything, "exam1").Return(2, nil)
	answerRepo.On("CountCorrectAnswers", mock.Anything, "sess1").Return(2, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	profileRepo.On("UpdateProfile", mock.Anything, profile).Return(nil)
	sessionRepo.On("UpdateSession", mock.Anything, session).Return(nil)
	answerRepo.On("GetAnswersBySession", mock.Anything, "sess1").Return([]domain.UserAnswer{
		{QuizSessionID: "sess1", QuestionID: "q1", SelectedChoiceIDs: []string{"c2"}, IsCorrect: true},
		{QuizSessionID: "sess1", QuestionID: "q2", SelectedChoiceIDs: []string{"c3"}, IsCorrect: true},
	}, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(&questions[0], nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q2").Return(&questions[1], nil)

	svc := newSessionServiceForTest(sessionRepo, answerRepo, catalogRepo, profileRepo, now)

	first, err := svc.GetResults(context.Background(), "user1", "sess1")
	assert.NoError(t, err)
	assert.True(t, first.Passed)
	assert.Equal(t, domain.QuizPassTokens, first.TokensAwarded)
	assert.Equal(t, 20+domain.QuizPassTokens, profile.Tokens)
	assert.True(t, session.TokensGranted)
	assert.Len(t, first.Answers, 2)
	assert.Equal(t, []string{"c2"}, first.Answers[0].CorrectChoiceIDs)

	// A second view must not re-grant.
	second, err := svc.GetResults(context.Background(), "user1", "sess1")
	assert.NoError(t, err)
	assert.Equal(t, 0, second.TokensAwarded)
	assert.Equal(t, 20+domain.QuizPassTokens, profile.Tokens)
}

func TestSessionService_GetResults_IncompleteSessionRejected(t *testing.T) {
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: baseTime()}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), baseTime())
	_, err := svc.GetResults(context.Background(), "user1", "sess1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
}

func TestSessionService_GetResults_SkipsRemovedQuestions(t *testing.T) {
	now := baseTime()
	sessionRepo := new(MockSessionRepository)
	answerRepo := new(MockAnswerRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{
		ID: "sess1", UserID: "user1", ExamID: "exam1",
		StartedAt: now.Add(-30 * time.Minute), CompletedAt: now,
		IsCompleted: true, TokensGranted: true,
	}
	questions := sampleQuestions()

	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)
	catalogRepo.On("CountActiveQuestions", mock.Anything, "exam1").Return(1, nil)
	answerRepo.On("CountCorrectAnswers", mock.Anything, "sess1").Return(1, nil)
	sessionRepo.On("UpdateSession", mock.Anything, session).Return(nil)
	answerRepo.On("GetAnswersBySession", mock.Anything, "sess1").Return([]domain.UserAnswer{
		{QuizSessionID: "sess1", QuestionID: "q1", SelectedChoiceIDs: []string{"c2"}, IsCorrect: true},
		{QuizSessionID: "sess1", QuestionID: "gone", SelectedChoiceIDs: []string{"x"}, IsCorrect: false},
	}, nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").Return(&questions[0], nil)
	catalogRepo.On("GetQuestionByID", mock.Anything, "gone").Return(nil, nil)

	svc := newSessionServiceForTest(sessionRepo, answerRepo, catalogRepo, new(MockProfileRepository), now)
	resp, err := svc.GetResults(context.Background(), "user1", "sess1")

	assert.NoError(t, err)
	assert.Len(t, resp.Answers, 1)
	assert.Equal(t, "q1", resp.Answers[0].QuestionID)
	assert.Equal(t, 100.0, resp.Session.Score)
}

func TestSessionService_RemainingTime_FloorsAtZero(t *testing.T) {
	start := baseTime()
	sessionRepo := new(MockSessionRepository)
	catalogRepo := new(MockCatalogRepository)

	session := &domain.QuizSession{ID: "sess1", UserID: "user1", ExamID: "exam1", StartedAt: start}
	sessionRepo.On("GetSessionByID", mock.Anything, "sess1").Return(session, nil)
	catalogRepo.On("GetExamByID", mock.Anything, "exam1").Return(activeExam(), nil)

	svc := newSessionServiceForTest(sessionRepo, new(MockAnswerRepository), catalogRepo, new(MockProfileRepository), start.Add(2*time.Hour))
	resp, err := svc.RemainingTime(context.Background(), "user1", "sess1")

	assert.NoError(t, err)
	assert.Equal(t, 0, resp.RemainingSeconds)
	assert.False(t, resp.IsPaused)
}
