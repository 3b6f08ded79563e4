package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/middleware"
	"quizhub/internal/service"
)

// SessionHandler serves the quiz session lifecycle endpoints. All of
// them require authentication; the user ID comes from the JWT claims.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler instance
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// currentUserID extracts the authenticated user's ID set by the auth
// middleware.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		return "", domain.NewUnauthorizedError("user is not authenticated")
	}
	return userID, nil
}

// StartSession handles POST /api/sessions
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req dto.StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.ExamID == "" {
		return domain.NewInvalidInputError("exam_id is required")
	}

	resp, err := h.sessionService.StartSession(c.Context(), userID, req.ExamID)
	if err != nil {
		return err
	}
	status := fiber.StatusCreated
	if resp.Resumed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(resp)
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	sessions, err := h.sessionService.ListSessions(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(sessions)
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	session, err := h.sessionService.GetSession(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// SubmitAnswer handles POST /api/sessions/:id/answers
func (h *SessionHandler) SubmitAnswer(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.QuestionID == "" {
		return domain.NewInvalidInputError("question_id is required")
	}

	resp, err := h.sessionService.SubmitAnswer(c.Context(), userID, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// PauseSession handles POST /api/sessions/:id/pause
func (h *SessionHandler) PauseSession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	session, err := h.sessionService.PauseSession(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// ResumeSession handles POST /api/sessions/:id/resume
func (h *SessionHandler) ResumeSession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	session, err := h.sessionService.ResumeSession(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// RemainingTime handles GET /api/sessions/:id/time
func (h *SessionHandler) RemainingTime(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	resp, err := h.sessionService.RemainingTime(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CompleteSession handles POST /api/sessions/:id/complete
func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	session, err := h.sessionService.CompleteSession(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// GetResults handles GET /api/sessions/:id/results
func (h *SessionHandler) GetResults(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	results, err := h.sessionService.GetResults(c.Context(), userID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(results)
}
