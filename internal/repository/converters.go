package repository

import (
	"time"

	"quizhub/internal/domain"
	"quizhub/internal/repository/models"
	"quizhub/internal/util"
)

func toDomainCategory(m *models.Category) *domain.Category {
	if m == nil {
		return nil
	}
	return &domain.Category{
		ID:           m.ID,
		Name:         m.Name,
		ExamCategory: m.ExamCategory.String,
		Description:  m.Description.String,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainExam(m *models.Exam) *domain.Exam {
	if m == nil {
		return nil
	}
	return &domain.Exam{
		ID:              m.ID,
		CategoryID:      m.CategoryID,
		Name:            m.Name,
		Description:     m.Description.String,
		DurationMinutes: m.DurationMinutes,
		TotalQuestions:  m.TotalQuestions,
		PassingScore:    m.PassingScore,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toDomainTopic(m *models.Topic) *domain.Topic {
	if m == nil {
		return nil
	}
	return &domain.Topic{
		ID:          m.ID,
		ExamID:      m.ExamID,
		Name:        m.Name,
		Description: m.Description.String,
		Order:       m.Ord,
	}
}

func toDomainQuestion(m *models.Question, choices []models.Choice) *domain.Question {
	if m == nil {
		return nil
	}
	q := &domain.Question{
		ID:           m.ID,
		ExamID:       m.ExamID,
		TopicID:      m.TopicID.String,
		QuestionText: m.QuestionText,
		QuestionType: domain.QuestionType(m.QuestionType),
		Difficulty:   domain.Difficulty(m.Difficulty),
		Explanation:  m.Explanation.String,
		Points:       m.Points,
		Order:        m.Ord,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for i := range choices {
		q.Choices = append(q.Choices, *toDomainChoice(&choices[i]))
	}
	return q
}

func toDomainChoice(m *models.Choice) *domain.Choice {
	if m == nil {
		return nil
	}
	return &domain.Choice{
		ID:         m.ID,
		QuestionID: m.QuestionID,
		ChoiceText: m.ChoiceText,
		IsCorrect:  m.IsCorrect,
		Order:      m.Ord,
	}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainProfile(m *models.UserProfile) *domain.UserProfile {
	if m == nil {
		return nil
	}
	p := &domain.UserProfile{
		ID:               m.ID,
		UserID:           m.UserID,
		SubscriptionPlan: domain.SubscriptionPlan(m.SubscriptionPlan),
		Tokens:           m.Tokens,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.LastTokenGrantDate.Valid {
		p.LastTokenGrantDate = m.LastTokenGrantDate.Time
	}
	return p
}

func toDomainSession(m *models.QuizSession) *domain.QuizSession {
	if m == nil {
		return nil
	}
	s := &domain.QuizSession{
		ID:                 m.ID,
		UserID:             m.UserID,
		ExamID:             m.ExamID,
		StartedAt:          m.StartedAt,
		IsCompleted:        m.IsCompleted,
		Score:              m.Score,
		TotalQuestions:     m.TotalQuestions,
		CorrectAnswers:     m.CorrectAnswers,
		TokensGranted:      m.TokensGranted,
		IsPaused:           m.IsPaused,
		TotalPausedSeconds: m.TotalPausedSeconds,
	}
	if m.CompletedAt.Valid {
		s.CompletedAt = m.CompletedAt.Time
	}
	if m.PausedAt.Valid {
		s.PausedAt = m.PausedAt.Time
	}
	if m.TimeTakenSeconds.Valid {
		s.TimeTakenSeconds = int(m.TimeTakenSeconds.Int64)
	}
	return s
}

func fromDomainSession(s *domain.QuizSession) *models.QuizSession {
	if s == nil {
		return nil
	}
	m := &models.QuizSession{
		ID:                 s.ID,
		UserID:             s.UserID,
		ExamID:             s.ExamID,
		StartedAt:          s.StartedAt,
		CompletedAt:        util.TimeToNullTime(s.CompletedAt),
		IsCompleted:        s.IsCompleted,
		Score:              s.Score,
		TotalQuestions:     s.TotalQuestions,
		CorrectAnswers:     s.CorrectAnswers,
		TokensGranted:      s.TokensGranted,
		IsPaused:           s.IsPaused,
		PausedAt:           util.TimeToNullTime(s.PausedAt),
		TotalPausedSeconds: s.TotalPausedSeconds,
	}
	if s.TimeTakenSeconds > 0 {
		m.TimeTakenSeconds.Int64 = int64(s.TimeTakenSeconds)
		m.TimeTakenSeconds.Valid = true
	}
	return m
}

// truncateToDate drops the time-of-day so last_token_grant_date compares
// by calendar day.
func truncateToDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
