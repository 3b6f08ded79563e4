package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/service"
)

// AssistantHandler serves the AI study assistant endpoint.
type AssistantHandler struct {
	assistantService service.AssistantService
}

// NewAssistantHandler creates a new AssistantHandler instance
func NewAssistantHandler(assistantService service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// Ask handles POST /api/sessions/:id/questions/:questionID/assistant
func (h *AssistantHandler) Ask(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req dto.AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.assistantService.Ask(c.Context(), userID, c.Params("id"), c.Params("questionID"), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
