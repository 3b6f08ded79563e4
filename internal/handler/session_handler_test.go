package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/middleware"
)

// --- MockSessionService ---
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) StartSession(ctx context.Context, userID, examID string) (*dto.StartSessionResponse, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StartSessionResponse), args.Error(1)
}

func (m *MockSessionService) ListSessions(ctx context.Context, userID string) ([]dto.SessionResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.SessionResponse), args.Error(1)
}

func (m *MockSessionService) GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionService) SubmitAnswer(ctx context.Context, userID, sessionID string, req dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	args := m.Called(ctx, userID, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitAnswerResponse), args.Error(1)
}

func (m *MockSessionService) PauseSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionService) ResumeSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionService) RemainingTime(ctx context.Context, userID, sessionID string) (*dto.RemainingTimeResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RemainingTimeResponse), args.Error(1)
}

func (m *MockSessionService) CompleteSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResponse), args.Error(1)
}

func (m *MockSessionService) GetResults(ctx context.Context, userID, sessionID string) (*dto.SessionResultsResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SessionResultsResponse), args.Error(1)
}

// newSessionTestApp wires the handler behind the central error handler
// and a stub auth layer that injects the given user ID.
func newSessionTestApp(svc *MockSessionService, userID string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	if userID != "" {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.UserIDKey, userID)
			return c.Next()
		})
	}
	h := NewSessionHandler(svc)
	app.Post("/api/sessions", h.StartSession)
	app.Get("/api/sessions/:id", h.GetSession)
	app.Post("/api/sessions/:id/answers", h.SubmitAnswer)
	app.Post("/api/sessions/:id/pause", h.PauseSession)
	return app
}

func TestSessionHandler_StartSession_NewSessionReturns201(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("StartSession", mock.Anything, "user1", "exam1").Return(&dto.StartSessionResponse{
		Session: dto.SessionResponse{ID: "sess1", ExamID: "exam1"},
		Resumed: false,
	}, nil)

	app := newSessionTestApp(svc, "user1")
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(`{"exam_id":"exam1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body dto.StartSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "sess1", body.Session.ID)
}

func TestSessionHandler_StartSession_ResumedReturns200(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("StartSession", mock.Anything, "user1", "exam1").Return(&dto.StartSessionResponse{
		Session: dto.SessionResponse{ID: "sess1", ExamID: "exam1"},
		Resumed: true,
	}, nil)

	app := newSessionTestApp(svc, "user1")
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(`{"exam_id":"exam1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionHandler_StartSession_MissingExamIDReturns400(t *testing.T) {
	app := newSessionTestApp(new(MockSessionService), "user1")
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_GetSession_NotFoundMapsTo404(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("GetSession", mock.Anything, "user1", "sess1").
		Return(nil, domain.NewSessionNotFoundError("sess1"))

	app := newSessionTestApp(svc, "user1")
	resp, err := app.Test(httptest.NewRequest("GET", "/api/sessions/sess1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(domain.CodeSessionNotFound), body["code"])
}

func TestSessionHandler_UnauthenticatedReturns401(t *testing.T) {
	app := newSessionTestApp(new(MockSessionService), "")
	resp, err := app.Test(httptest.NewRequest("GET", "/api/sessions/sess1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionHandler_SubmitAnswer_CompletedSessionMapsTo400(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("SubmitAnswer", mock.Anything, "user1", "sess1", mock.Anything).
		Return(nil, domain.NewSessionCompletedError("sess1"))

	app := newSessionTestApp(svc, "user1")
	req := httptest.NewRequest("POST", "/api/sessions/sess1/answers",
		strings.NewReader(`{"question_id":"q1","selected_choice_ids":["c1"]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandler_PauseSession(t *testing.T) {
	svc := new(MockSessionService)
	svc.On("PauseSession", mock.Anything, "user1", "sess1").Return(&dto.SessionResponse{
		ID: "sess1", IsPaused: true,
	}, nil)

	app := newSessionTestApp(svc, "user1")
	resp, err := app.Test(httptest.NewRequest("POST", "/api/sessions/sess1/pause", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.IsPaused)
}
