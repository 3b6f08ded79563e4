package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/logger"
	"quizhub/internal/util"
)

// SessionService drives the quiz session lifecycle: start/reuse, pause,
// resume, answer submission, completion and results. Every operation is
// scoped to the owning user; a session belonging to someone else is
// reported as not found.
type SessionService interface {
	StartSession(ctx context.Context, userID, examID string) (*dto.StartSessionResponse, error)
	ListSessions(ctx context.Context, userID string) ([]dto.SessionResponse, error)
	GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	SubmitAnswer(ctx context.Context, userID, sessionID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	PauseSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	ResumeSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	RemainingTime(ctx context.Context, userID, sessionID string) (*dto.RemainingTimeResponse, error)
	CompleteSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	GetResults(ctx context.Context, userID, sessionID string) (*dto.SessionResultsResponse, error)
}

type sessionServiceImpl struct {
	sessionRepo domain.SessionRepository
	answerRepo  domain.AnswerRepository
	catalogRepo domain.CatalogRepository
	profileRepo domain.ProfileRepository
	txManager   domain.TransactionManager
	clock       domain.Clock
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo domain.SessionRepository,
	answerRepo domain.AnswerRepository,
	catalogRepo domain.CatalogRepository,
	profileRepo domain.ProfileRepository,
	txManager domain.TransactionManager,
	clock domain.Clock,
) SessionService {
	return &sessionServiceImpl{
		sessionRepo: sessionRepo,
		answerRepo:  answerRepo,
		catalogRepo: catalogRepo,
		profileRepo: profileRepo,
		txManager:   txManager,
		clock:       clock,
	}
}

// StartSession opens a session for the exam, or hands back the user's
// existing incomplete one so a closed browser doesn't burn the attempt.
func (s *sessionServiceImpl) StartSession(ctx context.Context, userID, examID string) (*dto.StartSessionResponse, error) {
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
	if len(questions) == 0 {
		return nil, domain.NewError(domain.CodeExamHasNoQuestions,
			fmt.Sprintf("Exam %s has no active questions", examID), nil)
	}

	now := s.clock.Now()
	resumed := true
	session, err := s.sessionRepo.GetIncompleteSession(ctx, userID, examID)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up open session", err)
	}
	if session == nil {
		resumed = false
		session = &domain.QuizSession{
			ID:             util.NewULID(),
			UserID:         userID,
			ExamID:         examID,
			StartedAt:      now,
			TotalQuestions: len(questions),
		}
		if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
			return nil, domain.NewInternalError("failed to create session", err)
		}
		logger.Get().Info("Quiz session started",
			zap.String("sessionID", session.ID),
			zap.String("userID", userID),
			zap.String("examID", examID))
	}

	questionResponses := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		questionResponses = append(questionResponses, toQuestionResponse(&q))
	}

	return &dto.StartSessionResponse{
		Session:   s.toSessionResponse(session, exam),
		Questions: questionResponses,
		Resumed:   resumed,
	}, nil
}

func (s *sessionServiceImpl) ListSessions(ctx context.Context, userID string) ([]dto.SessionResponse, error) {
	sessions, err := s.sessionRepo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list sessions", err)
	}
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		exam, err := s.catalogRepo.GetExamByID(ctx, sessions[i].ExamID)
		if err != nil {
			return nil, domain.NewInternalError("failed to fetch exam", err)
		}
		responses = append(responses, s.toSessionResponse(&sessions[i], exam))
	}
	return responses, nil
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	resp := s.toSessionResponse(session, exam)
	return &resp, nil
}

// SubmitAnswer records the selected choices for one question, replacing
// any prior selection for the same question in this session.
func (s *sessionServiceImpl) SubmitAnswer(ctx context.Context, userID, sessionID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	session, _, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, domain.NewSessionCompletedError(sessionID)
	}

	question, err := s.catalogRepo.GetQuestionByID(ctx, req.QuestionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch question", err)
	}
	if question == nil || question.ExamID != session.ExamID || !question.IsActive {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Question not found in this exam: %s", req.QuestionID))
	}

	if len(req.SelectedChoiceIDs) == 0 {
		return nil, domain.NewInvalidChoicesError("at least one choice must be selected")
	}
	for _, choiceID := range req.SelectedChoiceIDs {
		if !question.HasChoice(choiceID) {
			return nil, domain.NewInvalidChoicesError(
				fmt.Sprintf("Choice %s does not belong to question %s", choiceID, question.ID))
		}
	}

	answer := &domain.UserAnswer{
		ID:                util.NewULID(),
		QuizSessionID:     session.ID,
		QuestionID:        question.ID,
		SelectedChoiceIDs: req.SelectedChoiceIDs,
		IsCorrect:         question.EvaluateSelection(req.SelectedChoiceIDs),
		AnsweredAt:        s.clock.Now(),
	}
	if err := s.answerRepo.UpsertAnswer(ctx, answer); err != nil {
		return nil, domain.NewInternalError("failed to save answer", err)
	}

	return &dto.SubmitAnswerResponse{
		QuestionID: question.ID,
		IsCorrect:  answer.IsCorrect,
	}, nil
}

func (s *sessionServiceImpl) PauseSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, domain.NewSessionCompletedError(sessionID)
	}
	if !session.Pause(s.clock.Now()) {
		return nil, domain.NewInvalidInputError("session is already paused")
	}
	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, domain.NewInternalError("failed to save session", err)
	}
	resp := s.toSessionResponse(session, exam)
	return &resp, nil
}

func (s *sessionServiceImpl) ResumeSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, domain.NewSessionCompletedError(sessionID)
	}
	if !session.Resume(s.clock.Now()) {
		return nil, domain.NewInvalidInputError("session is not paused")
	}
	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, domain.NewInternalError("failed to save session", err)
	}
	resp := s.toSessionResponse(session, exam)
	return &resp, nil
}

func (s *sessionServiceImpl) RemainingTime(ctx context.Context, userID, sessionID string) (*dto.RemainingTimeResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.RemainingTimeResponse{
		RemainingSeconds: session.RemainingTime(s.clock.Now(), exam.Duration()),
		IsPaused:         session.IsPaused,
	}, nil
}

// CompleteSession closes the session and computes the final score
// against the exam's current active question count.
func (s *sessionServiceImpl) CompleteSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Complete(s.clock.Now()) {
		return nil, domain.NewSessionCompletedError(sessionID)
	}

	if err := s.rescore(ctx, session); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, domain.NewInternalError("failed to save session", err)
	}

	logger.Get().Info("Quiz session completed",
		zap.String("sessionID", session.ID),
		zap.Float64("score", session.Score),
		zap.Int("timeTakenSeconds", session.TimeTakenSeconds))

	resp := s.toSessionResponse(session, exam)
	return &resp, nil
}

// GetResults builds the detailed result view. The score is recomputed
// against the exam's current active questions on every view, and the
// first passing view grants the one-time token bonus.
func (s *sessionServiceImpl) GetResults(ctx context.Context, userID, sessionID string) (*dto.SessionResultsResponse, error) {
	session, exam, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted {
		return nil, domain.NewInvalidInputError("session is not completed yet")
	}

	if err := s.rescore(ctx, session); err != nil {
		return nil, err
	}

	tokensAwarded := 0
	if session.Passed(exam.PassingScore) && !session.TokensGranted {
		awarded, err := s.grantPassBonus(ctx, session)
		if err != nil {
			return nil, err
		}
		tokensAwarded = awarded
	}
	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, domain.NewInternalError("failed to save session", err)
	}

	answers, err := s.answerRepo.GetAnswersBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load answers", err)
	}

	answerResults := make([]dto.AnswerResultResponse, 0, len(answers))
	for _, a := range answers {
		question, err := s.catalogRepo.GetQuestionByID(ctx, a.QuestionID)
		if err != nil {
			return nil, domain.NewInternalError("failed to fetch question", err)
		}
		if question == nil {
			continue // question removed since the attempt
		}
		answerResults = append(answerResults, dto.AnswerResultResponse{
			QuestionID:        a.QuestionID,
			QuestionText:      question.QuestionText,
			SelectedChoiceIDs: a.SelectedChoiceIDs,
			CorrectChoiceIDs:  question.CorrectChoiceIDs(),
			IsCorrect:         a.IsCorrect,
			Explanation:       question.Explanation,
		})
	}

	return &dto.SessionResultsResponse{
		Session:       s.toSessionResponse(session, exam),
		Passed:        session.Passed(exam.PassingScore),
		PassingScore:  exam.PassingScore,
		TokensAwarded: tokensAwarded,
		Answers:       answerResults,
	}, nil
}

// rescore recomputes the session score from the current active question
// count and the stored correct-answer count.
func (s *sessionServiceImpl) rescore(ctx context.Context, session *domain.QuizSession) error {
	activeCount, err := s.catalogRepo.CountActiveQuestions(ctx, session.ExamID)
	if err != nil {
		return domain.NewInternalError("failed to count questions", err)
	}
	correctCount, err := s.answerRepo.CountCorrectAnswers(ctx, session.ID)
	if err != nil {
		return domain.NewInternalError("failed to count correct answers", err)
	}
	session.CalculateScore(activeCount, correctCount)
	return nil
}

// grantPassBonus credits the pass bonus and flips the per-session flag
// in one transaction so repeated result views cannot re-grant.
func (s *sessionServiceImpl) grantPassBonus(ctx context.Context, session *domain.QuizSession) (int, error) {
	var awarded int
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		profile, err := s.profileRepo.GetProfileByUserID(txCtx, session.UserID)
		if err != nil {
			return err
		}
		if profile == nil {
			return fmt.Errorf("profile not found for user %s", session.UserID)
		}
		profile.AddTokens(domain.QuizPassTokens)
		profile.UpdatedAt = s.clock.Now()
		if err := s.profileRepo.UpdateProfile(txCtx, profile); err != nil {
			return err
		}
		session.TokensGranted = true
		if err := s.sessionRepo.UpdateSession(txCtx, session); err != nil {
			return err
		}
		awarded = domain.QuizPassTokens
		return nil
	})
	if err != nil {
		return 0, domain.NewInternalError("failed to grant pass bonus", err)
	}

	logger.Get().Info("Quiz pass bonus granted",
		zap.String("sessionID", session.ID),
		zap.String("userID", session.UserID),
		zap.Int("tokens", awarded))
	return awarded, nil
}

// ownedSession loads a session and verifies ownership. A session owned
// by another user is reported as not found so IDs cannot be probed.
func (s *sessionServiceImpl) ownedSession(ctx context.Context, userID, sessionID string) (*domain.QuizSession, *domain.Exam, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, domain.NewInternalError("failed to fetch session", err)
	}
	if session == nil || session.UserID != userID {
		return nil, nil, domain.NewSessionNotFoundError(sessionID)
	}
	exam, err := s.catalogRepo.GetExamByID(ctx, session.ExamID)
	if err != nil {
		return nil, nil, domain.NewInternalError("failed to fetch exam", err)
	}
	if exam == nil {
		return nil, nil, domain.NewExamNotFoundError(session.ExamID)
	}
	return session, exam, nil
}

func (s *sessionServiceImpl) toSessionResponse(session *domain.QuizSession, exam *domain.Exam) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:             session.ID,
		ExamID:         session.ExamID,
		StartedAt:      session.StartedAt,
		IsCompleted:    session.IsCompleted,
		IsPaused:       session.IsPaused,
		Score:          session.Score,
		TotalQuestions: session.TotalQuestions,
		CorrectAnswers: session.CorrectAnswers,
	}
	if !session.CompletedAt.IsZero() {
		completedAt := session.CompletedAt
		resp.CompletedAt = &completedAt
	}
	if exam != nil {
		resp.RemainingSeconds = session.RemainingTime(s.clock.Now(), exam.Duration())
	}
	return resp
}
