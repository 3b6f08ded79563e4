package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/service"
)

// AuthHandler handles registration, login and token refresh.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	user, err := h.authService.Register(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	accessToken, refreshToken, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// RefreshToken handles POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.RefreshToken == "" {
		return domain.NewInvalidInputError("refresh_token is required")
	}

	accessToken, refreshToken, err := h.authService.RefreshTokens(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}
