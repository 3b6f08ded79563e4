package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"quizhub/internal/domain"
)

// --- MockCatalogRepository ---
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) GetOrCreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	args := m.Called(ctx, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCatalogRepository) GetOrCreateExam(ctx context.Context, categoryID, name string, defaults *domain.Exam) (*domain.Exam, error) {
	args := m.Called(ctx, categoryID, name, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exam), args.Error(1)
}

func (m *MockCatalogRepository) GetOrCreateTopic(ctx context.Context, examID, name, description string, order int) (*domain.Topic, error) {
	args := m.Called(ctx, examID, name, description, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

func (m *MockCatalogRepository) UpsertQuestion(ctx context.Context, question *domain.Question) (bool, error) {
	args := m.Called(ctx, question)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogRepository) ReplaceChoices(ctx context.Context, questionID string, choices []domain.Choice) error {
	args := m.Called(ctx, questionID, choices)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *MockCatalogRepository) GetExamByID(ctx context.Context, id string) (*domain.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Exam), args.Error(1)
}

func (m *MockCatalogRepository) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockCatalogRepository) ListExams(ctx context.Context, categoryID string) ([]domain.Exam, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Exam), args.Error(1)
}

func (m *MockCatalogRepository) ListActiveQuestions(ctx context.Context, examID string) ([]domain.Question, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

func (m *MockCatalogRepository) CountActiveQuestions(ctx context.Context, examID string) (int, error) {
	args := m.Called(ctx, examID)
	return args.Int(0), args.Error(1)
}

// --- MockSessionRepository ---
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *domain.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetSessionByID(ctx context.Context, id string) (*domain.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) GetIncompleteSession(ctx context.Context, userID, examID string) (*domain.QuizSession, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) UpdateSession(ctx context.Context, session *domain.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) ListSessionsByUser(ctx context.Context, userID string) ([]domain.QuizSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizSession), args.Error(1)
}

// --- MockAnswerRepository ---
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) UpsertAnswer(ctx context.Context, answer *domain.UserAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetAnswersBySession(ctx context.Context, sessionID string) ([]domain.UserAnswer, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserAnswer), args.Error(1)
}

func (m *MockAnswerRepository) CountCorrectAnswers(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- MockProfileRepository ---
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) GetProfileByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, profile *domain.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) ListProfiles(ctx context.Context) ([]domain.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}

// --- MockBookmarkRepository ---
type MockBookmarkRepository struct {
	mock.Mock
}

func (m *MockBookmarkRepository) GetBookmark(ctx context.Context, userID, questionID string) (*domain.BookmarkedQuestion, error) {
	args := m.Called(ctx, userID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookmarkedQuestion), args.Error(1)
}

func (m *MockBookmarkRepository) CreateBookmark(ctx context.Context, bookmark *domain.BookmarkedQuestion) error {
	args := m.Called(ctx, bookmark)
	return args.Error(0)
}

func (m *MockBookmarkRepository) DeleteBookmark(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookmarkRepository) ListBookmarkedQuestions(ctx context.Context, userID string) ([]domain.Question, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Question), args.Error(1)
}

// --- MockAssistant ---
type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Chat(ctx context.Context, message string, qctx *domain.QuestionContext) (string, error) {
	args := m.Called(ctx, message, qctx)
	return args.String(0), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// passthroughTxManager runs the transaction body directly so repository
// expectations can be asserted without a database.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixedClock pins time for deterministic timer arithmetic.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
